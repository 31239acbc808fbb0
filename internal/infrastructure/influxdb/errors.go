package influxdb

import "errors"

var (
	// ErrDisabled is returned by Connect when telemetry is turned off
	// in configuration. Callers treat it as "run without telemetry".
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrConnectionFailed indicates the server could not be reached or
	// reported itself unhealthy during Connect.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrNotConnected indicates an operation on a closed client.
	ErrNotConnected = errors.New("influxdb: not connected")
)
