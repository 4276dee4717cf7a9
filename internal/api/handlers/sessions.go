package handlers

import (
	"context"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"field-dispatch-service/internal/api/dto"
	"field-dispatch-service/internal/domain"
	"field-dispatch-service/internal/services"
	"field-dispatch-service/internal/state"
)

// SessionHandler exposes interactive editor sessions. Every structural edit
// answers immediately with the locally updated view and runs the route
// recalculation detached; clients poll GET until the phase settles. The
// session's token check makes an overtaken recalculation harmless, so the
// handler never waits for one.
type SessionHandler struct {
	Store     *state.Store
	Sessions  *services.SessionManager
	Lifecycle *services.Lifecycle
}

// Open starts a session on either a persisted trip (edit) or a planner
// suggestion the client picked (review).
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req dto.OpenSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var input services.EditorInput
	switch {
	case req.TripID != "" && req.Suggestion != nil:
		writeError(w, r, http.StatusBadRequest, "trip_id and suggestion are mutually exclusive")
		return
	case req.TripID != "":
		t, ok := h.Store.Trip(req.TripID)
		if !ok {
			writeError(w, r, http.StatusNotFound, "trip not found")
			return
		}
		input.Trip = &t
	case req.Suggestion != nil:
		sg := suggestionFromDTO(*req.Suggestion)
		input.Candidate = &sg
	default:
		writeError(w, r, http.StatusBadRequest, "trip_id or suggestion is required")
		return
	}

	sess, err := h.Sessions.Open(input)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	h.kick(r, sess, sess.CurrentToken())
	writeJSON(w, r, http.StatusCreated, sessionView(sess))
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.Sessions.Get(r.PathValue("id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, r, http.StatusOK, sessionView(sess))
}

func (h *SessionHandler) SetStops(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.Sessions.Get(r.PathValue("id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "session not found")
		return
	}

	var req dto.SetStopsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	stops := make([]domain.SuggestedStop, 0, len(req.Stops))
	for _, st := range req.Stops {
		stops = append(stops, domain.SuggestedStop{
			WorkOrderID:        st.WorkOrderID,
			Address:            st.Address,
			ServiceTimeMinutes: st.ServiceTimeMinutes,
		})
	}

	token, err := sess.SetStops(stops)
	if err != nil {
		writeEditError(w, r, err)
		return
	}

	h.kick(r, sess, token)
	writeJSON(w, r, http.StatusOK, sessionView(sess))
}

func (h *SessionHandler) MoveStop(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.Sessions.Get(r.PathValue("id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "session not found")
		return
	}

	var req dto.MoveStopRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := sess.MoveStop(req.From, req.To)
	if err != nil {
		writeEditError(w, r, err)
		return
	}

	h.kick(r, sess, token)
	writeJSON(w, r, http.StatusOK, sessionView(sess))
}

func (h *SessionHandler) AddStop(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.Sessions.Get(r.PathValue("id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "session not found")
		return
	}

	var req dto.AddStopRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := sess.AddStop(req.WorkOrderID)
	if err != nil {
		writeEditError(w, r, err)
		return
	}

	h.kick(r, sess, token)
	writeJSON(w, r, http.StatusOK, sessionView(sess))
}

func (h *SessionHandler) RemoveStop(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.Sessions.Get(r.PathValue("id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "session not found")
		return
	}

	token, err := sess.RemoveStop(r.PathValue("order"))
	if err != nil {
		writeEditError(w, r, err)
		return
	}

	h.kick(r, sess, token)
	writeJSON(w, r, http.StatusOK, sessionView(sess))
}

// SetEndpoints updates start and/or end location. Setting a location to its
// current value is a no-op, so a body echoing one unchanged endpoint does
// not trigger a recalculation for it.
func (h *SessionHandler) SetEndpoints(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.Sessions.Get(r.PathValue("id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "session not found")
		return
	}

	var req dto.EndpointsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.StartLocation == nil && req.EndLocation == nil {
		writeError(w, r, http.StatusBadRequest, "start_location or end_location is required")
		return
	}

	var token uint64
	if req.StartLocation != nil {
		t, err := sess.SetStartLocation(*req.StartLocation)
		if err != nil {
			writeEditError(w, r, err)
			return
		}
		if t != 0 {
			token = t
		}
	}
	if req.EndLocation != nil {
		t, err := sess.SetEndLocation(*req.EndLocation)
		if err != nil {
			writeEditError(w, r, err)
			return
		}
		if t != 0 {
			token = t
		}
	}

	h.kick(r, sess, token)
	writeJSON(w, r, http.StatusOK, sessionView(sess))
}

func (h *SessionHandler) SetServiceTime(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.Sessions.Get(r.PathValue("id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "session not found")
		return
	}

	var req dto.ServiceTimeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := sess.SetStopServiceTime(r.PathValue("order"), req.Minutes); err != nil {
		writeEditError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sessionView(sess))
}

// ReOptimize runs the planning round synchronously, then kicks the travel
// recalculation for the replaced stops.
func (h *SessionHandler) ReOptimize(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.Sessions.Get(r.PathValue("id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "session not found")
		return
	}

	token, err := sess.ReOptimize(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionClosed):
			writeError(w, r, http.StatusConflict, err.Error())
		case errors.Is(err, services.ErrPlannerFailed), errors.Is(err, services.ErrMalformedPlan):
			writeServiceError(w, r, err)
		default:
			writeError(w, r, http.StatusBadRequest, err.Error())
		}
		return
	}

	h.kick(r, sess, token)
	writeJSON(w, r, http.StatusOK, sessionView(sess))
}

// Approve finalizes a review session into a brand new numbered trip.
func (h *SessionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, ok := h.Sessions.Get(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, "session not found")
		return
	}
	if sess.Mode != services.ModeReview {
		writeError(w, r, http.StatusConflict, "session is not reviewing a suggestion, use save")
		return
	}

	final, err := sess.Finalize()
	if err != nil {
		writeError(w, r, http.StatusConflict, err.Error())
		return
	}

	trip, err := h.Lifecycle.Approve(r.Context(), final)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.Sessions.Close(id)
	writeJSON(w, r, http.StatusCreated, tripDTO(trip))
}

// Save finalizes an edit session back into its persisted trip.
func (h *SessionHandler) Save(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, ok := h.Sessions.Get(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, "session not found")
		return
	}
	if sess.Mode != services.ModeEdit {
		writeError(w, r, http.StatusConflict, "session is not editing a trip, use approve")
		return
	}

	tripID := sess.TripID()
	final, err := sess.Finalize()
	if err != nil {
		writeError(w, r, http.StatusConflict, err.Error())
		return
	}

	trip, err := h.Lifecycle.Save(r.Context(), tripID, final)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.Sessions.Close(id)
	writeJSON(w, r, http.StatusOK, tripDTO(trip))
}

// Close rejects the session. Nothing is persisted.
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := h.Sessions.Get(id); !ok {
		writeError(w, r, http.StatusNotFound, "session not found")
		return
	}

	h.Sessions.Close(id)
	w.WriteHeader(http.StatusNoContent)
}

// kick runs the recalculation for token off-request. The triggering request
// has already answered by the time the route comes back; failures land in
// the session view for the next poll, so they are only logged here.
func (h *SessionHandler) kick(r *http.Request, sess *services.EditorSession, token uint64) {
	if token == 0 {
		return
	}
	ctx := context.WithoutCancel(r.Context())
	go func() {
		if err := sess.Recalculate(ctx, token); err != nil {
			log.Printf("recalculation failed: session=%s token=%d err=%v", sess.ID, token, err)
		}
	}()
}

func writeEditError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, services.ErrSessionClosed) {
		writeError(w, r, http.StatusConflict, err.Error())
		return
	}
	writeError(w, r, http.StatusBadRequest, err.Error())
}

func sessionView(sess *services.EditorSession) dto.SessionResponse {
	v := sess.View()
	return dto.SessionResponse{
		SessionID: v.SessionID,
		Mode:      string(v.Mode),
		Phase:     string(v.Phase),
		TripID:    v.TripID,
		Error:     v.Error,
		Trip:      suggestionDTO(v.Trip),
	}
}

func suggestionFromDTO(in dto.Suggestion) domain.SuggestedTrip {
	out := domain.SuggestedTrip{
		ID:               in.ID,
		Name:             in.Name,
		Stops:            make([]domain.SuggestedStop, 0, len(in.Stops)),
		TotalMinutes:     in.TotalMinutes,
		TravelMinutes:    in.TravelMinutes,
		ServiceMinutes:   in.ServiceMinutes,
		TotalMiles:       in.TotalMiles,
		EstimatedPayout:  in.EstimatedPayout,
		Reasoning:        in.Reasoning,
		Color:            in.Color,
		ViolationWarning: in.ViolationWarning,
		StartLocation:    in.StartLocation,
		EndLocation:      in.EndLocation,
		ActualMinutes:    in.ActualMinutes,
		ActualMiles:      in.ActualMiles,
	}
	for _, st := range in.Stops {
		out.Stops = append(out.Stops, domain.SuggestedStop{
			WorkOrderID:        st.WorkOrderID,
			Address:            st.Address,
			ServiceTimeMinutes: st.ServiceTimeMinutes,
		})
	}
	return out
}
