package dto

import "time"

type TokenRequest struct {
	Operator string `json:"operator"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
