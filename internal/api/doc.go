// Package api exposes the bridge's outward surfaces: the REST command
// and query endpoints, and the WebSocket channel that pushes presence
// and response events to attached clients. See server.go for the
// lifecycle contract.
package api
