package mqtt

import "fmt"

// Topic layout for the animatronics bus.
//
// Device-originated traffic:
//
//	animatronics/{deviceID}/status    payload "connected" | "disconnected"
//	animatronics/{deviceID}/response  payload = action string
//
// Bridge-originated traffic:
//
//	animatronics/{deviceID}/{action}  payload "activate"
//	animatronics/{deviceID}/ping      payload "ping"
const (
	// TopicPrefix is the root of all animatronics topics.
	TopicPrefix = "animatronics"

	// SegmentStatus is the message-type segment for presence signals.
	SegmentStatus = "status"

	// SegmentResponse is the message-type segment for command responses.
	SegmentResponse = "response"
)

// Topics provides builders for animatronics bus topics.
// Using these helpers keeps topic naming consistent across the codebase.
type Topics struct{}

// DeviceStatus returns the presence signal topic for one device.
//
// Example: animatronics/3/status
func (Topics) DeviceStatus(deviceID string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefix, deviceID, SegmentStatus)
}

// DeviceResponse returns the command response topic for one device.
//
// Example: animatronics/3/response
func (Topics) DeviceResponse(deviceID string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefix, deviceID, SegmentResponse)
}

// DeviceCommand returns the command topic for a device and action.
//
// Example: animatronics/3/wave
func (Topics) DeviceCommand(deviceID, action string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefix, deviceID, action)
}

// DevicePing returns the manual ping topic for one device.
//
// Example: animatronics/3/ping
func (Topics) DevicePing(deviceID string) string {
	return fmt.Sprintf("%s/%s/ping", TopicPrefix, deviceID)
}

// BridgeStatus returns the bridge's own status topic, used for the
// online/offline announcements and the Last Will message.
//
// Example: animatronics/bridge/status
func (Topics) BridgeStatus() string {
	return fmt.Sprintf("%s/bridge/status", TopicPrefix)
}

// AllStatus returns a pattern matching presence signals from every device.
//
// Pattern: animatronics/+/status
func (Topics) AllStatus() string {
	return fmt.Sprintf("%s/+/%s", TopicPrefix, SegmentStatus)
}

// AllResponses returns a pattern matching responses from every device.
//
// Pattern: animatronics/+/response
func (Topics) AllResponses() string {
	return fmt.Sprintf("%s/+/%s", TopicPrefix, SegmentResponse)
}
