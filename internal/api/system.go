package api

import "net/http"

// handleHealth returns the bridge health status: whether the bus link
// is up and how many catalog devices are currently connected.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	busConnected := false
	if s.bus != nil {
		busConnected = s.bus.IsConnected()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"version":         s.version,
		"bus_connected":   busConnected,
		"connected_count": s.registry.ConnectedCount(),
	})
}
