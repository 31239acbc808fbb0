package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/junco466/animatronics-bridge/internal/command"
	"github.com/junco466/animatronics-bridge/internal/device"
)

// commandRejectedResponse is the wire shape used when a command targets
// a disconnected device. Clients key off the connected field to show
// the device as offline without a separate query.
type commandRejectedResponse struct {
	Error     string `json:"error"`
	Connected bool   `json:"connected"`
}

// handleCommand admits a command for a device and publishes it to the bus.
//
// Responses:
//   - 404 unknown device
//   - 400 {error, connected:false} device disconnected
//   - 200 {success:true, message} command published
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "id")
	action := chi.URLParam(r, "action")

	err := s.commands.Send(deviceID, action)
	if err == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": fmt.Sprintf("%s sent to device %s", action, deviceID),
		})
		return
	}

	var offline *command.OfflineError
	switch {
	case errors.Is(err, device.ErrNotFound):
		writeNotFound(w, "unknown device: "+deviceID)
	case errors.As(err, &offline):
		writeJSON(w, http.StatusBadRequest, commandRejectedResponse{
			Error:     offline.Name + " is disconnected",
			Connected: false,
		})
	default:
		s.logger.Error("command dispatch failed", "device_id", deviceID, "action", action, "error", err)
		writeInternalError(w, "failed to publish command")
	}
}
