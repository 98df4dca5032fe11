package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/facegate/facegate/internal/enrollment"
	"github.com/facegate/facegate/internal/identification"
	"github.com/facegate/facegate/internal/web/handlers"
)

// setupRoutes configures the API routes.
func (s *Server) setupRoutes(coordinator *enrollment.Coordinator, flow *identification.Flow) {
	enrollHandler := handlers.NewEnrollHandler(s.config, coordinator, s.log)
	identifyHandler := handlers.NewIdentifyHandler(s.config, flow, s.log)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)
		r.Post("/enroll", enrollHandler.Enroll)
		r.Post("/identify", identifyHandler.Identify)
	})
}
