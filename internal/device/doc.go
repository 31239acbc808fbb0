// Package device holds the canonical in-memory device table.
//
// The Registry owns the mutable presence state (connected flag, last-seen
// timestamp) for a catalog of devices that is fixed at process start.
// Presence reconciliation, liveness sweeps and command admission all go
// through the Registry; nothing else mutates device state.
package device
