// Package auth issues and validates the bearer tokens the API runs on.
// The dispatch tool has a single operator credential; there are no roles.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Claims is the validated identity carried by a token.
type Claims struct {
	Operator string
	Exp      int64
}

// Service signs and validates operator tokens.
type Service struct {
	secret   []byte
	operator string
	hash     string
	tokenExp time.Duration
}

// NewService builds the auth service. The operator password is supplied as
// a bcrypt hash so the plaintext never reaches the environment.
func NewService(secret, operator, passwordHash string, tokenExp time.Duration) (*Service, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: secret is required")
	}
	if strings.TrimSpace(operator) == "" || strings.TrimSpace(passwordHash) == "" {
		return nil, errors.New("auth: operator name and password hash are required")
	}
	if tokenExp <= 0 {
		tokenExp = 24 * time.Hour
	}

	return &Service{
		secret:   []byte(secret),
		operator: operator,
		hash:     passwordHash,
		tokenExp: tokenExp,
	}, nil
}

// HashPassword hashes a password with bcrypt. Used by operators generating
// the credential hash for their environment, and by tests.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Login checks the credential pair and returns a signed token plus its
// expiry. Name and password failures are indistinguishable to the caller.
func (s *Service) Login(operator, password string) (string, time.Time, error) {
	if operator != s.operator {
		return "", time.Time{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.hash), []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	now := time.Now()
	expires := now.Add(s.tokenExp)
	claims := jwt.MapClaims{
		"sub": operator,
		"iat": now.Unix(),
		"exp": expires.Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expires, nil
}

// ValidateToken parses and verifies a token string, with or without its
// "Bearer " prefix.
func (s *Service) ValidateToken(tokenString string) (Claims, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return Claims{}, ErrInvalidToken
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, ErrInvalidToken
	}
	if !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	sub, ok := mapClaims["sub"].(string)
	if !ok || sub == "" {
		return Claims{}, ErrInvalidToken
	}
	exp, ok := mapClaims["exp"].(float64)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	return Claims{Operator: sub, Exp: int64(exp)}, nil
}

// ExtractTokenFromHeader pulls the token out of an Authorization header.
func ExtractTokenFromHeader(header string) (string, error) {
	if header == "" {
		return "", ErrInvalidToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", ErrInvalidToken
	}
	return parts[1], nil
}
