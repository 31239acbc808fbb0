package presence

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/junco466/animatronics-bridge/internal/device"
	"github.com/junco466/animatronics-bridge/internal/infrastructure/mqtt"
)

// Status signal payloads published by the devices themselves.
const (
	payloadConnected    = "connected"
	payloadDisconnected = "disconnected"
)

// topicSegments is the expected segment count of a device topic:
// animatronics/{deviceID}/{messageType}.
const topicSegments = 3

// Logger is the logging interface used by the presence package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Tracker reconciles presence signals from the bus with the device
// registry and emits one notification per registry mutation.
//
// A single mutex serialises every mutate-and-notify sequence (status
// signals, response signals, and liveness sweeps), so a client observes
// notifications for one device in exactly the order the underlying
// mutations occurred. No ordering is guaranteed across devices.
type Tracker struct {
	registry *device.Registry
	notifier Notifier

	mu sync.Mutex

	// Bus link state. Devices are never demoted while the bridge's own
	// link is down, and after a reconnect silence is measured from the
	// restore time, not from a last-seen that went stale while blind.
	linkUp         bool
	linkRestoredAt int64

	recorder  Recorder  // optional
	telemetry Telemetry // optional
	logger    Logger

	// now is swappable for tests.
	now func() int64
}

// NewTracker creates a presence tracker over the given registry.
// The notifier receives every emitted event; it must not be nil.
func NewTracker(registry *device.Registry, notifier Notifier) *Tracker {
	return &Tracker{
		registry: registry,
		notifier: notifier,
		linkUp:   true,
		logger:   noopLogger{},
		now:      func() int64 { return time.Now().UnixMilli() },
	}
}

// SetLogger sets the logger for the tracker.
func (t *Tracker) SetLogger(logger Logger) {
	t.logger = logger
}

// SetRecorder sets the optional presence audit log.
func (t *Tracker) SetRecorder(recorder Recorder) {
	t.recorder = recorder
}

// SetTelemetry sets the optional telemetry sink.
func (t *Tracker) SetTelemetry(telemetry Telemetry) {
	t.telemetry = telemetry
}

// Subscribe registers the tracker's bus subscriptions on the client.
func (t *Tracker) Subscribe(client *mqtt.Client, qos byte) error {
	topics := mqtt.Topics{}
	if err := client.Subscribe(topics.AllStatus(), qos, t.HandleBusMessage); err != nil {
		return fmt.Errorf("subscribing to status topics: %w", err)
	}
	if err := client.Subscribe(topics.AllResponses(), qos, t.HandleBusMessage); err != nil {
		return fmt.Errorf("subscribing to response topics: %w", err)
	}
	return nil
}

// SetLinkUp records the state of the bridge's own bus link.
// Wired to the MQTT client's connect/disconnect callbacks.
func (t *Tracker) SetLinkUp(up bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if up && !t.linkUp {
		t.linkRestoredAt = t.now()
	}
	t.linkUp = up
}

// HandleBusMessage processes one inbound bus message.
//
// Topic shape: animatronics/{deviceID}/{status|response}. Anything else —
// unknown device, unknown message type, unrecognised status payload — is
// logged and dropped; malformed traffic is never an error and never fatal.
func (t *Tracker) HandleBusMessage(topic string, payload []byte) error {
	parts := strings.Split(topic, "/")
	if len(parts) != topicSegments || parts[0] != mqtt.TopicPrefix {
		t.logger.Warn("dropping message with malformed topic", "topic", topic)
		return nil
	}

	deviceID := parts[1]
	messageType := parts[2]
	value := string(payload)

	switch messageType {
	case mqtt.SegmentStatus:
		t.handleStatus(deviceID, value)
	case mqtt.SegmentResponse:
		t.handleResponse(deviceID, value)
	default:
		t.logger.Warn("dropping message with unknown type",
			"topic", topic,
			"message_type", messageType,
		)
	}
	return nil
}

// handleStatus applies an explicit presence signal.
// Every recognised signal emits a notification — repeated "connected"
// signals are genuine (each refreshes last-seen), so none are suppressed.
func (t *Tracker) handleStatus(deviceID, value string) {
	var connected bool
	switch value {
	case payloadConnected:
		connected = true
	case payloadDisconnected:
		connected = false
	default:
		t.logger.Warn("dropping unrecognised status payload",
			"device_id", deviceID,
			"payload", value,
		)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	_, changed, ok := t.registry.SetConnected(deviceID, connected, now)
	if !ok {
		t.logger.Warn("dropping status for device not in catalog", "device_id", deviceID)
		return
	}

	updated, _ := t.registry.Get(deviceID)
	t.logger.Info("device status signal",
		"device_id", deviceID,
		"name", updated.Name,
		"connected", connected,
	)

	t.notifier.DeviceStatus(Notification{
		ID:        updated.ID,
		Name:      updated.Name,
		Icon:      updated.Icon,
		Connected: updated.Connected,
		LastSeen:  updated.LastSeen,
	})

	if changed {
		t.record(deviceID, connected, "", now)
	}
	t.writeConnectivityGauge(deviceID, connected)
}

// handleResponse applies a command response signal: refresh last-seen,
// broadcast the response, never flip the connected flag. A response proves
// the device spoke, not that it claims to be present.
func (t *Tracker) handleResponse(deviceID, action string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.registry.TouchLastSeen(deviceID, t.now()) {
		t.logger.Warn("dropping response for device not in catalog", "device_id", deviceID)
		return
	}

	t.logger.Debug("device response observed", "device_id", deviceID, "action", action)

	t.notifier.DeviceResponse(Response{
		ID:     deviceID,
		Action: action,
	})

	if t.telemetry != nil {
		t.telemetry.WriteDeviceMetric(deviceID, "responses", 1)
	}
}

// Sweep demotes connected devices whose silence exceeds staleThreshold.
//
// Demotion preserves last-seen: only the connected flag flips, and the
// notification carries the timeout reason. Devices never yet seen
// connected are ignored. The sweep is skipped entirely while the bridge's
// own bus link is down.
//
// Returns the number of demoted devices.
func (t *Tracker) Sweep(staleThreshold time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.linkUp {
		t.logger.Debug("skipping liveness sweep, bus link down")
		return 0
	}

	now := t.now()
	thresholdMillis := staleThreshold.Milliseconds()
	demoted := 0

	for _, d := range t.registry.All() {
		if !d.Connected || d.LastSeen == nil {
			continue
		}

		// After a link outage the bridge was blind; grant a full
		// threshold of silence from the restore time.
		silenceStart := *d.LastSeen
		if t.linkRestoredAt > silenceStart {
			silenceStart = t.linkRestoredAt
		}
		if now-silenceStart <= thresholdMillis {
			continue
		}

		t.registry.SetConnected(d.ID, false, now)
		updated, _ := t.registry.Get(d.ID)
		demoted++

		t.logger.Info("device timed out",
			"device_id", d.ID,
			"name", d.Name,
			"silence_ms", now-silenceStart,
		)

		t.notifier.DeviceStatus(Notification{
			ID:        updated.ID,
			Name:      updated.Name,
			Icon:      updated.Icon,
			Connected: false,
			LastSeen:  updated.LastSeen,
			Reason:    ReasonTimeout,
		})

		t.record(d.ID, false, ReasonTimeout, now)
		t.writeConnectivityGauge(d.ID, false)
	}

	return demoted
}

// record appends a transition to the audit log, if configured.
// Audit failures never propagate into the presence path.
func (t *Tracker) record(deviceID string, connected bool, reason string, atMillis int64) {
	if t.recorder == nil {
		return
	}
	if err := t.recorder.RecordTransition(deviceID, connected, reason, atMillis); err != nil {
		t.logger.Error("presence audit write failed", "device_id", deviceID, "error", err)
	}
}

// writeConnectivityGauge writes a 0/1 connectivity gauge, if configured.
func (t *Tracker) writeConnectivityGauge(deviceID string, connected bool) {
	if t.telemetry == nil {
		return
	}
	value := 0.0
	if connected {
		value = 1.0
	}
	t.telemetry.WriteDeviceMetric(deviceID, "connected", value)
}
