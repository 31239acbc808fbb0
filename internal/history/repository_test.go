package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/junco466/animatronics-bridge/internal/infrastructure/database"
	_ "github.com/junco466/animatronics-bridge/migrations"
)

func testRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return NewRepository(db)
}

func TestRecordAndList(t *testing.T) {
	repo := testRepository(t)

	if err := repo.RecordTransition("3", true, "", 1000); err != nil {
		t.Fatalf("RecordTransition() error = %v", err)
	}
	if err := repo.RecordTransition("3", false, "timeout", 2000); err != nil {
		t.Fatalf("RecordTransition() error = %v", err)
	}
	if err := repo.RecordTransition("4", true, "", 1500); err != nil {
		t.Fatalf("RecordTransition() error = %v", err)
	}

	transitions, err := repo.ListByDevice(context.Background(), "3", 0)
	if err != nil {
		t.Fatalf("ListByDevice() error = %v", err)
	}
	if len(transitions) != 2 {
		t.Fatalf("expected 2 transitions, got %d", len(transitions))
	}

	// Newest first.
	if transitions[0].ObservedAt != 2000 {
		t.Errorf("first transition observed_at = %d, want 2000", transitions[0].ObservedAt)
	}
	if transitions[0].Connected {
		t.Error("first transition should be a disconnect")
	}
	if transitions[0].Reason != "timeout" {
		t.Errorf("reason = %q, want timeout", transitions[0].Reason)
	}
	if transitions[1].ObservedAt != 1000 || !transitions[1].Connected {
		t.Errorf("second transition = %+v", transitions[1])
	}
}

func TestListByDeviceEmpty(t *testing.T) {
	repo := testRepository(t)

	transitions, err := repo.ListByDevice(context.Background(), "unknown", 10)
	if err != nil {
		t.Fatalf("ListByDevice() error = %v", err)
	}
	if len(transitions) != 0 {
		t.Errorf("expected no transitions, got %d", len(transitions))
	}
}

func TestListByDeviceLimitClamp(t *testing.T) {
	repo := testRepository(t)

	for i := int64(0); i < 10; i++ {
		if err := repo.RecordTransition("1", i%2 == 0, "", i*100); err != nil {
			t.Fatalf("RecordTransition() error = %v", err)
		}
	}

	transitions, err := repo.ListByDevice(context.Background(), "1", 3)
	if err != nil {
		t.Fatalf("ListByDevice() error = %v", err)
	}
	if len(transitions) != 3 {
		t.Errorf("expected 3 transitions, got %d", len(transitions))
	}

	// Oversized limits are clamped rather than rejected.
	transitions, err = repo.ListByDevice(context.Background(), "1", maxLimit+1)
	if err != nil {
		t.Fatalf("ListByDevice() error = %v", err)
	}
	if len(transitions) != 10 {
		t.Errorf("expected all 10 transitions, got %d", len(transitions))
	}
}
