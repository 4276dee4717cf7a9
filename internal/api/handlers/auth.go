package handlers

import (
	"errors"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"field-dispatch-service/internal/api/dto"
	"field-dispatch-service/internal/auth"
)

// AuthHandler issues bearer tokens for the single configured operator.
type AuthHandler struct {
	Auth *auth.Service
}

func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Operator) == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "operator and password are required")
		return
	}

	token, expiresAt, err := h.Auth.Login(req.Operator, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, r, http.StatusUnauthorized, "invalid credentials")
			return
		}
		log.Printf("login failed: operator=%s err=%v", req.Operator, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.TokenResponse{Token: token, ExpiresAt: expiresAt})
}
