// Package server exposes the settlement facade over a JSON HTTP API.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gassure/escrowd/internal/service"
)

// Server routes HTTP requests to the settlement facade. It owns request
// parsing and input validation; business invariants are re-checked by the
// state machine.
type Server struct {
	svc *service.SettlementService
}

// New creates a Server over the given facade.
func New(svc *service.SettlementService) *Server {
	return &Server{svc: svc}
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Use(cors)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/state", s.handleGetState)
	r.Post("/api/notary/toggle", s.handleToggleNotarization)
	r.Post("/api/escrow/fund", s.handleFundEscrow)
	r.Post("/api/escrow/confirm", s.handleConfirm)
	r.Post("/api/reset", s.handleReset)
	r.Post("/api/fund-account", s.handleFundAccount)
	r.Get("/api/logs", s.handleListEvents)
	r.Delete("/api/logs", s.handleClearEvents)

	r.Handle("/metrics", promhttp.Handler())

	return r
}
