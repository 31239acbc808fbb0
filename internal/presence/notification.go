package presence

// ReasonTimeout marks a demotion caused by the liveness monitor rather
// than an explicit disconnect signal from the device.
const ReasonTimeout = "timeout"

// Notification is the broadcast payload for a device presence change.
// It carries the full display state so front-ends never need a follow-up
// query.
type Notification struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Icon      string `json:"icon"`
	Connected bool   `json:"connected"`
	LastSeen  *int64 `json:"last_seen"`

	// Reason is set to ReasonTimeout on liveness demotions and omitted
	// for explicit status signals.
	Reason string `json:"reason,omitempty"`
}

// Response is the broadcast payload for a device command response.
// This is a separate event stream from presence notifications and is
// never suppressed.
type Response struct {
	ID     string `json:"id"`
	Action string `json:"action"`
}

// Notifier receives presence events for fan-out to live clients.
// Implemented by the WebSocket hub.
type Notifier interface {
	// DeviceStatus broadcasts a presence change to all attached clients.
	DeviceStatus(n Notification)

	// DeviceResponse broadcasts an observed command response to all
	// attached clients.
	DeviceResponse(r Response)
}

// Recorder appends presence transitions to a durable audit log.
// Implementations must not block the presence path; failures are logged
// and dropped.
type Recorder interface {
	RecordTransition(deviceID string, connected bool, reason string, atMillis int64) error
}

// Telemetry receives numeric presence metrics. Satisfied by the influxdb
// client; writes are non-blocking and best-effort.
type Telemetry interface {
	WriteDeviceMetric(deviceID string, measurement string, value float64)
}
