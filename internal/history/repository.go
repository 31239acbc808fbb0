package history

import (
	"context"
	"fmt"
	"time"

	"github.com/junco466/animatronics-bridge/internal/infrastructure/database"
)

const (
	// defaultLimit is used when a caller asks for zero or negative rows.
	defaultLimit = 50

	// maxLimit caps a single history query.
	maxLimit = 200

	// writeTimeout bounds the insert done on the bus message path.
	writeTimeout = 5 * time.Second
)

// Transition is one recorded connectivity change for a device.
type Transition struct {
	DeviceID   string `json:"device_id"`
	Connected  bool   `json:"connected"`
	Reason     string `json:"reason,omitempty"`
	ObservedAt int64  `json:"observed_at"`
}

// Repository persists presence transitions to SQLite.
type Repository struct {
	db *database.DB
}

// NewRepository returns a repository backed by the given database.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// RecordTransition inserts one transition row. It carries its own
// timeout so a stalled database cannot block bus message handling
// indefinitely.
func (r *Repository) RecordTransition(deviceID string, connected bool, reason string, atMillis int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO presence_log (device_id, connected, reason, observed_at)
		VALUES (?, ?, ?, ?)
	`, deviceID, boolToInt(connected), reason, atMillis)
	if err != nil {
		return fmt.Errorf("recording transition for %s: %w", deviceID, err)
	}
	return nil
}

// ListByDevice returns the most recent transitions for one device,
// newest first. Limit is clamped to [1, 200]; zero means the default.
func (r *Repository) ListByDevice(ctx context.Context, deviceID string, limit int) ([]Transition, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT device_id, connected, reason, observed_at
		FROM presence_log
		WHERE device_id = ?
		ORDER BY observed_at DESC, id DESC
		LIMIT ?
	`, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying transitions for %s: %w", deviceID, err)
	}
	defer rows.Close()

	transitions := make([]Transition, 0, limit)
	for rows.Next() {
		var t Transition
		var connected int
		if err := rows.Scan(&t.DeviceID, &connected, &t.Reason, &t.ObservedAt); err != nil {
			return nil, fmt.Errorf("scanning transition row: %w", err)
		}
		t.Connected = connected != 0
		transitions = append(transitions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transitions: %w", err)
	}
	return transitions, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
