package handlers

import (
	"net/http"

	"field-dispatch-service/internal/api/dto"
	"field-dispatch-service/internal/domain"
	"field-dispatch-service/internal/services"
	"field-dispatch-service/internal/state"
)

// TripHandler drives committed trips through their lifecycle. Structural
// edits to a trip's route go through editor sessions, not through here.
type TripHandler struct {
	Store     *state.Store
	Lifecycle *services.Lifecycle
}

func (h *TripHandler) List(w http.ResponseWriter, r *http.Request) {
	trips := h.Store.Trips()

	res := dto.ListTripsResponse{Trips: make([]dto.TripResponse, 0, len(trips))}
	for _, t := range trips {
		res.Trips = append(res.Trips, tripDTO(t))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *TripHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, ok := h.Store.Trip(r.PathValue("id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "trip not found")
		return
	}
	writeJSON(w, r, http.StatusOK, tripDTO(t))
}

func (h *TripHandler) Start(w http.ResponseWriter, r *http.Request) {
	t, err := h.Lifecycle.Start(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, tripDTO(t))
}

func (h *TripHandler) Stop(w http.ResponseWriter, r *http.Request) {
	t, err := h.Lifecycle.Stop(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, tripDTO(t))
}

func (h *TripHandler) CompleteStop(w http.ResponseWriter, r *http.Request) {
	var req dto.CompleteStopRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := h.Lifecycle.CompleteStop(r.Context(), r.PathValue("id"), r.PathValue("order"), req.TimeSpentSeconds)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, tripDTO(t))
}

func (h *TripHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Lifecycle.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func tripDTO(t domain.Trip) dto.TripResponse {
	out := dto.TripResponse{
		ID:               t.ID,
		Name:             t.Name,
		Number:           t.Number,
		Stops:            make([]dto.TripStopResponse, 0, len(t.Stops)),
		StartTime:        t.StartTime,
		EndTime:          t.EndTime,
		TotalTimeSeconds: t.TotalTimeSeconds,
		Status:           string(t.Status),
		StartLocation:    t.StartLocation,
		EndLocation:      t.EndLocation,
		TotalMiles:       t.TotalMiles,
		EstimatedPayout:  t.EstimatedPayout,
	}
	for _, s := range t.Stops {
		out.Stops = append(out.Stops, dto.TripStopResponse{
			WorkOrderID:      s.WorkOrderID,
			IsCompleted:      s.IsCompleted,
			TimeSpentSeconds: s.TimeSpentSeconds,
		})
	}
	return out
}
