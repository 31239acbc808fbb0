package device

import "errors"

// ErrNotFound is returned when a device id is not in the catalog.
// The catalog never grows, so an unknown id means a malformed request or
// bus topic, not a race with device creation.
var ErrNotFound = errors.New("device: not found")
