package command

import "fmt"

// OfflineError is returned when a command targets a known device that is
// not currently connected. It carries the display name so callers can
// build a user-facing message.
type OfflineError struct {
	DeviceID string
	Name     string
}

func (e *OfflineError) Error() string {
	return fmt.Sprintf("command: %s is disconnected", e.Name)
}
