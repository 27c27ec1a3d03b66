package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Hour, "test-issuer")

	token, err := manager.Generate(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := manager.Validate(token)
	require.NoError(t, err)
	require.Equal(t, uint64(42), userID)
}

func TestTokenManager_Validate_Errors(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Hour, "test-issuer")

	expiredManager := NewTokenManager("test-secret", -time.Minute, "test-issuer")
	expiredToken, err := expiredManager.Generate(7)
	require.NoError(t, err)

	otherManager := NewTokenManager("other-secret", time.Hour, "test-issuer")
	foreignToken, err := otherManager.Generate(7)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{
			name:    "expired token",
			token:   expiredToken,
			wantErr: ErrExpiredToken,
		},
		{
			name:    "wrong secret",
			token:   foreignToken,
			wantErr: ErrInvalidToken,
		},
		{
			name:    "malformed token",
			token:   "not-a-token",
			wantErr: ErrInvalidToken,
		},
		{
			name:    "empty token",
			token:   "",
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := manager.Validate(tt.token)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
