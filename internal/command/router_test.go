package command

import (
	"errors"
	"testing"

	"github.com/junco466/animatronics-bridge/internal/device"
	"github.com/junco466/animatronics-bridge/internal/infrastructure/config"
)

type publishedMsg struct {
	topic    string
	payload  string
	qos      byte
	retained bool
}

type mockPublisher struct {
	messages []publishedMsg
	err      error
}

func (m *mockPublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, publishedMsg{topic, string(payload), qos, retained})
	return nil
}

func testRegistry() *device.Registry {
	return device.NewRegistry([]config.CatalogEntry{
		{ID: "1", Name: "Sapo Dardo Dorada", Icon: "🐸"},
		{ID: "2", Name: "Jaguar", Icon: "🐆"},
	})
}

func TestSendConnectedDevice(t *testing.T) {
	reg := testRegistry()
	reg.SetConnected("1", true, 1000)

	pub := &mockPublisher{}
	router := NewRouter(reg, pub, 1)

	if err := router.Send("1", "wave"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if len(pub.messages) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(pub.messages))
	}
	msg := pub.messages[0]
	if msg.topic != "animatronics/1/wave" {
		t.Errorf("topic = %q, want animatronics/1/wave", msg.topic)
	}
	if msg.payload != "activate" {
		t.Errorf("payload = %q, want activate", msg.payload)
	}
	if msg.qos != 1 {
		t.Errorf("qos = %d, want 1", msg.qos)
	}
	if msg.retained {
		t.Error("command publishes must not be retained")
	}
}

func TestSendUnknownDevice(t *testing.T) {
	router := NewRouter(testRegistry(), &mockPublisher{}, 1)

	err := router.Send("99", "wave")
	if !errors.Is(err, device.ErrNotFound) {
		t.Fatalf("Send() error = %v, want ErrNotFound", err)
	}
}

func TestSendOfflineDevice(t *testing.T) {
	pub := &mockPublisher{}
	router := NewRouter(testRegistry(), pub, 1)

	err := router.Send("2", "wave")

	var offline *OfflineError
	if !errors.As(err, &offline) {
		t.Fatalf("Send() error = %v, want *OfflineError", err)
	}
	if offline.DeviceID != "2" || offline.Name != "Jaguar" {
		t.Errorf("OfflineError = %+v", offline)
	}
	if len(pub.messages) != 0 {
		t.Error("offline command must not publish")
	}
}

func TestSendPingActionBypassesLiveness(t *testing.T) {
	pub := &mockPublisher{}
	router := NewRouter(testRegistry(), pub, 0)

	// Device 2 is disconnected; ping must still go out.
	if err := router.Send("2", "ping"); err != nil {
		t.Fatalf("Send(ping) error = %v", err)
	}

	if len(pub.messages) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(pub.messages))
	}
	msg := pub.messages[0]
	if msg.topic != "animatronics/2/ping" {
		t.Errorf("topic = %q, want animatronics/2/ping", msg.topic)
	}
	if msg.payload != "ping" {
		t.Errorf("payload = %q, want ping", msg.payload)
	}
}

func TestPingUnknownDevice(t *testing.T) {
	router := NewRouter(testRegistry(), &mockPublisher{}, 0)

	if err := router.Ping("nope"); !errors.Is(err, device.ErrNotFound) {
		t.Fatalf("Ping() error = %v, want ErrNotFound", err)
	}
}

func TestSendPublishFailure(t *testing.T) {
	reg := testRegistry()
	reg.SetConnected("1", true, 1000)

	pub := &mockPublisher{err: errors.New("broker down")}
	router := NewRouter(reg, pub, 1)

	if err := router.Send("1", "wave"); err == nil {
		t.Fatal("expected publish error to propagate")
	}
}
