package handlers

import (
	"net/http"

	"field-dispatch-service/internal/domain"
	"field-dispatch-service/internal/state"
)

// SettingsHandler reads and replaces the planning constraints and the
// financial display targets. Both are whole-value PUTs; there is no partial
// update.
type SettingsHandler struct {
	Store *state.Store
}

func (h *SettingsHandler) GetTripSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.Store.Settings())
}

func (h *SettingsHandler) PutTripSettings(w http.ResponseWriter, r *http.Request) {
	var settings domain.TripSettings
	if !decodeJSON(w, r, &settings) {
		return
	}
	if err := settings.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Store.PutSettings(r.Context(), settings); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, settings)
}

func (h *SettingsHandler) GetGoals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.Store.Goals())
}

func (h *SettingsHandler) PutGoals(w http.ResponseWriter, r *http.Request) {
	var goals domain.FinancialGoals
	if !decodeJSON(w, r, &goals) {
		return
	}
	if err := goals.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Store.PutGoals(r.Context(), goals); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, goals)
}
