package service

import (
	"errors"
	"testing"
	"time"

	"github.com/Streamly-Media/accounts/config"
	apperrors "github.com/Streamly-Media/accounts/internal/errors"
)

func newTestTokenService() *TokenService {
	return NewTokenService(config.TokenConfig{
		AccessSecret:  "access-secret-for-tests",
		RefreshSecret: "refresh-secret-for-tests",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    240 * time.Hour,
	})
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService()

	tests := []struct {
		name   string
		kind   TokenKind
		userID uint
	}{
		{
			name:   "Access token",
			kind:   AccessToken,
			userID: 42,
		},
		{
			name:   "Refresh token",
			kind:   RefreshToken,
			userID: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var token string
			var err error
			if tt.kind == AccessToken {
				token, err = svc.IssueAccessToken(tt.userID)
			} else {
				token, err = svc.IssueRefreshToken(tt.userID)
			}
			if err != nil {
				t.Fatalf("issue: %v", err)
			}
			if token == "" {
				t.Fatalf("issued empty token")
			}

			userID, err := svc.Verify(token, tt.kind)
			if err != nil {
				t.Fatalf("verify: %v", err)
			}
			if userID != tt.userID {
				t.Errorf("Verify() user = %d, want %d", userID, tt.userID)
			}
		})
	}
}

func TestTokenKindIsolation(t *testing.T) {
	svc := newTestTokenService()

	access, err := svc.IssueAccessToken(1)
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	refresh, err := svc.IssueRefreshToken(1)
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}

	// A token of one kind must never verify as the other: the kinds use
	// distinct secrets, so the signature check alone rejects it.
	if _, err := svc.Verify(access, RefreshToken); !errors.Is(err, apperrors.ErrInvalidToken) {
		t.Errorf("access token verified as refresh, err = %v", err)
	}
	if _, err := svc.Verify(refresh, AccessToken); !errors.Is(err, apperrors.ErrInvalidToken) {
		t.Errorf("refresh token verified as access, err = %v", err)
	}
}

func TestTokenExpiry(t *testing.T) {
	svc := NewTokenService(config.TokenConfig{
		AccessSecret:  "access-secret-for-tests",
		RefreshSecret: "refresh-secret-for-tests",
		AccessTTL:     -time.Minute,
		RefreshTTL:    -time.Minute,
	})

	token, err := svc.IssueRefreshToken(3)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = svc.Verify(token, RefreshToken)
	if !errors.Is(err, apperrors.ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenTampering(t *testing.T) {
	svc := newTestTokenService()

	token, err := svc.IssueAccessToken(5)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{
			name:  "Garbage token",
			token: "not.a.jwt",
		},
		{
			name:  "Truncated token",
			token: token[:len(token)-10],
		},
		{
			name:  "Flipped payload byte",
			token: token[:20] + "x" + token[21:],
		},
		{
			name:  "Empty token",
			token: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Verify(tt.token, AccessToken); !errors.Is(err, apperrors.ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestTokenWrongSecret(t *testing.T) {
	svc := newTestTokenService()
	other := NewTokenService(config.TokenConfig{
		AccessSecret:  "a-different-access-secret",
		RefreshSecret: "a-different-refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    240 * time.Hour,
	})

	token, err := svc.IssueRefreshToken(9)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := other.Verify(token, RefreshToken); !errors.Is(err, apperrors.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken with foreign secret, got %v", err)
	}
}
