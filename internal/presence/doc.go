// Package presence reconciles device presence signals with the registry.
//
// Two inputs mutate presence state:
//
//   - Tracker.HandleBusMessage consumes explicit status and response
//     signals from the bus (the devices' own connect/disconnect messages,
//     typically backed by their firmware's Last Will).
//   - Monitor runs a periodic sweep that treats prolonged silence from a
//     connected device as an implicit disconnect.
//
// Both serialise through one mutex inside the Tracker, so notifications
// for a single device always reach clients in mutation order.
package presence
