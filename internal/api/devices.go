package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// handleListDevices returns the full registry snapshot as a mapping
// from device id to device.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Snapshot())
}

// handleGetDevice returns one device by id.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, ok := s.registry.Get(id)
	if !ok {
		writeNotFound(w, "unknown device: "+id)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleDeviceHistory returns recent presence transitions for one
// device, newest first. Accepts an optional limit query parameter.
func (s *Server) handleDeviceHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.registry.Get(id); !ok {
		writeNotFound(w, "unknown device: "+id)
		return
	}
	if s.history == nil {
		writeJSON(w, http.StatusOK, map[string]any{"device_id": id, "transitions": []any{}})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	transitions, err := s.history.ListByDevice(r.Context(), id, limit)
	if err != nil {
		s.logger.Error("history query failed", "device_id", id, "error", err)
		writeInternalError(w, "failed to load device history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device_id":   id,
		"transitions": transitions,
	})
}
