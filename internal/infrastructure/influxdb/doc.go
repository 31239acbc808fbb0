// Package influxdb provides optional time-series telemetry for device
// presence: a connectivity gauge per device and response counters.
//
// Telemetry is strictly best-effort. The client batches points and
// writes them asynchronously; when InfluxDB is disabled or down, the
// bridge operates normally without it.
package influxdb
