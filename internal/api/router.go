package api

import (
	"net/http"

	"field-dispatch-service/internal/api/handlers"
	"field-dispatch-service/internal/auth"
	"field-dispatch-service/internal/services"
	"field-dispatch-service/internal/state"
)

// Deps carries everything the HTTP surface needs. A nil Auth disables both
// the token endpoint and bearer enforcement.
type Deps struct {
	Store     *state.Store
	Planner   *services.Planner
	Sessions  *services.SessionManager
	Lifecycle *services.Lifecycle
	Auth      *auth.Service
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	orderHandler := &handlers.WorkOrderHandler{Store: deps.Store}
	settingsHandler := &handlers.SettingsHandler{Store: deps.Store}
	planHandler := &handlers.PlanHandler{Store: deps.Store, Planner: deps.Planner}
	sessionHandler := &handlers.SessionHandler{
		Store:     deps.Store,
		Sessions:  deps.Sessions,
		Lifecycle: deps.Lifecycle,
	}
	tripHandler := &handlers.TripHandler{Store: deps.Store, Lifecycle: deps.Lifecycle}

	mux.HandleFunc("GET /health", handlers.Health)

	if deps.Auth != nil {
		authHandler := &handlers.AuthHandler{Auth: deps.Auth}
		mux.HandleFunc("POST /auth/token", authHandler.Token)
	}

	mux.HandleFunc("GET /workorders", orderHandler.List)
	mux.HandleFunc("POST /workorders", orderHandler.Create)
	mux.HandleFunc("GET /workorders/{id}", orderHandler.Get)

	mux.HandleFunc("GET /settings/trip", settingsHandler.GetTripSettings)
	mux.HandleFunc("PUT /settings/trip", settingsHandler.PutTripSettings)
	mux.HandleFunc("GET /settings/goals", settingsHandler.GetGoals)
	mux.HandleFunc("PUT /settings/goals", settingsHandler.PutGoals)

	mux.HandleFunc("POST /plans", planHandler.Plan)

	mux.HandleFunc("POST /sessions", sessionHandler.Open)
	mux.HandleFunc("GET /sessions/{id}", sessionHandler.Get)
	mux.HandleFunc("DELETE /sessions/{id}", sessionHandler.Close)
	mux.HandleFunc("PUT /sessions/{id}/stops", sessionHandler.SetStops)
	mux.HandleFunc("POST /sessions/{id}/stops", sessionHandler.AddStop)
	mux.HandleFunc("DELETE /sessions/{id}/stops/{order}", sessionHandler.RemoveStop)
	mux.HandleFunc("POST /sessions/{id}/stops/move", sessionHandler.MoveStop)
	mux.HandleFunc("PUT /sessions/{id}/stops/{order}/service-time", sessionHandler.SetServiceTime)
	mux.HandleFunc("PUT /sessions/{id}/endpoints", sessionHandler.SetEndpoints)
	mux.HandleFunc("POST /sessions/{id}/reoptimize", sessionHandler.ReOptimize)
	mux.HandleFunc("POST /sessions/{id}/approve", sessionHandler.Approve)
	mux.HandleFunc("POST /sessions/{id}/save", sessionHandler.Save)

	mux.HandleFunc("GET /trips", tripHandler.List)
	mux.HandleFunc("GET /trips/{id}", tripHandler.Get)
	mux.HandleFunc("DELETE /trips/{id}", tripHandler.Delete)
	mux.HandleFunc("POST /trips/{id}/start", tripHandler.Start)
	mux.HandleFunc("POST /trips/{id}/stop", tripHandler.Stop)
	mux.HandleFunc("POST /trips/{id}/stops/{order}/complete", tripHandler.CompleteStop)

	return requestIDMiddleware(loggingMiddleware(authMiddleware(deps.Auth, mux)))
}
