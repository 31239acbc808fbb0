package command

import (
	"fmt"

	"github.com/junco466/animatronics-bridge/internal/device"
	"github.com/junco466/animatronics-bridge/internal/infrastructure/mqtt"
)

const (
	// ActionPing is routed to the device ping topic instead of the
	// command topic and carries no liveness requirement.
	ActionPing = "ping"

	payloadActivate = "activate"
	payloadPing     = "ping"
)

// Publisher is the outbound bus surface the router needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Logger is the subset of the structured logger used by the router.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Router admits commands against the device registry and publishes
// them onto the bus. Admission is a snapshot check: a device that
// disconnects after the check but before the publish still receives
// the message, which the bus delivers or drops as usual.
type Router struct {
	registry  *device.Registry
	publisher Publisher
	topics    mqtt.Topics
	qos       byte
	logger    Logger
}

// NewRouter builds a Router publishing at the given QoS.
func NewRouter(registry *device.Registry, publisher Publisher, qos byte) *Router {
	return &Router{
		registry:  registry,
		publisher: publisher,
		qos:       qos,
		logger:    noopLogger{},
	}
}

// SetLogger installs a structured logger.
func (r *Router) SetLogger(l Logger) {
	if l != nil {
		r.logger = l
	}
}

// Send admits an action for a device and publishes it. It returns
// device.ErrNotFound for unknown devices and *OfflineError when the
// device is known but disconnected. The "ping" action bypasses the
// liveness check.
func (r *Router) Send(deviceID, action string) error {
	if action == ActionPing {
		return r.Ping(deviceID)
	}

	d, ok := r.registry.Get(deviceID)
	if !ok {
		return fmt.Errorf("command: device %s: %w", deviceID, device.ErrNotFound)
	}
	if !d.Connected {
		return &OfflineError{DeviceID: d.ID, Name: d.Name}
	}

	topic := r.topics.DeviceCommand(deviceID, action)
	if err := r.publisher.Publish(topic, []byte(payloadActivate), r.qos, false); err != nil {
		return fmt.Errorf("command: publish %s: %w", topic, err)
	}

	r.logger.Info("command dispatched", "device_id", deviceID, "action", action)
	return nil
}

// Ping publishes a ping probe to a device. Only catalog membership is
// checked: pinging a disconnected device is the whole point of a probe.
func (r *Router) Ping(deviceID string) error {
	if _, ok := r.registry.Get(deviceID); !ok {
		return fmt.Errorf("command: device %s: %w", deviceID, device.ErrNotFound)
	}

	topic := r.topics.DevicePing(deviceID)
	if err := r.publisher.Publish(topic, []byte(payloadPing), r.qos, false); err != nil {
		return fmt.Errorf("command: publish %s: %w", topic, err)
	}

	r.logger.Info("ping dispatched", "device_id", deviceID)
	return nil
}
