package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"field-dispatch-service/internal/services"
	"field-dispatch-service/internal/state"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// decodeJSON reads one strict JSON document into v. Unknown fields and
// trailing documents are rejected; a false return means the error response
// has already been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}

// writeServiceError maps store and service failures onto HTTP statuses.
// Anything unmapped is logged and reported as a plain 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, state.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrSessionClosed):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrMalformedPlan):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrPlannerFailed):
		writeError(w, r, http.StatusBadGateway, services.ErrPlannerFailed.Error())
	default:
		log.Printf("request failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
