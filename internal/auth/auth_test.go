package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService(t *testing.T, exp time.Duration) *Service {
	t.Helper()
	hash, err := HashPassword("open sesame")
	require.NoError(t, err)

	s, err := NewService("test-secret", "dispatcher", hash, exp)
	require.NoError(t, err)
	return s
}

func TestLoginAndValidate(t *testing.T) {
	s := testService(t, time.Hour)

	token, expires, err := s.Login("dispatcher", "open sesame")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "dispatcher", claims.Operator)
	assert.Equal(t, expires.Unix(), claims.Exp)

	// The Bearer prefix is tolerated.
	claims, err = s.ValidateToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "dispatcher", claims.Operator)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := testService(t, time.Hour)

	_, _, err := s.Login("dispatcher", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = s.Login("someone-else", "open sesame")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateRejectsForgedToken(t *testing.T) {
	s := testService(t, time.Hour)
	token, _, err := s.Login("dispatcher", "open sesame")
	require.NoError(t, err)

	hash, err := HashPassword("open sesame")
	require.NoError(t, err)
	other, err := NewService("different-secret", "dispatcher", hash, time.Hour)
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.ValidateToken("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	s := testService(t, time.Millisecond)
	token, _, err := s.Login("dispatcher", "open sesame")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = s.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestExtractTokenFromHeader(t *testing.T) {
	got, err := ExtractTokenFromHeader("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", got)

	for _, header := range []string{"", "abc", "Basic abc", "Bearer ", "Bearer"} {
		_, err := ExtractTokenFromHeader(header)
		assert.ErrorIs(t, err, ErrInvalidToken, "header %q", header)
	}
}

func TestNewServiceValidation(t *testing.T) {
	hash, err := HashPassword("pw")
	require.NoError(t, err)

	_, err = NewService("", "op", hash, time.Hour)
	require.Error(t, err)

	_, err = NewService("secret", "", hash, time.Hour)
	require.Error(t, err)

	_, err = NewService("secret", "op", "", time.Hour)
	require.Error(t, err)
}
