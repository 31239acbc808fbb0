package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Get("/health", s.handleHealth)

	r.Route("/devices", func(r chi.Router) {
		r.Get("/", s.handleListDevices)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetDevice)
			r.Get("/history", s.handleDeviceHistory)
		})
	})

	r.Post("/command/{id}/{action}", s.handleCommand)

	wsPath := s.wsCfg.Path
	if wsPath == "" {
		wsPath = "/ws"
	}
	r.Get(wsPath, s.handleWebSocket)

	return r
}
