package service

import (
	"errors"
	"time"

	"github.com/Streamly-Media/accounts/config"
	apperrors "github.com/Streamly-Media/accounts/internal/errors"
	"github.com/golang-jwt/jwt/v5"
)

// TokenKind discriminates the two token flavors; each kind is signed with its
// own secret, so one secret's compromise does not forge the other kind.
type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

// TokenService issues and verifies the signed token pair. It holds no state
// beyond configuration; issuance and verification are pure.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenService(cfg config.TokenConfig) *TokenService {
	return &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}
}

// IssueAccessToken creates a short-lived access token for the user.
func (s *TokenService) IssueAccessToken(userID uint) (string, error) {
	return s.issue(userID, AccessToken, s.accessSecret, s.accessTTL)
}

// IssueRefreshToken creates a long-lived refresh token for the user.
func (s *TokenService) IssueRefreshToken(userID uint) (string, error) {
	return s.issue(userID, RefreshToken, s.refreshSecret, s.refreshTTL)
}

func (s *TokenService) issue(userID uint, kind TokenKind, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":    userID,
		"token_kind": string(kind),
		"iat":        now.Unix(),
		"exp":        now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify checks signature, expiry and kind, and returns the embedded user ID.
// Expired tokens map to ErrTokenExpired; everything else to ErrInvalidToken.
func (s *TokenService) Verify(tokenString string, expectedKind TokenKind) (uint, error) {
	secret := s.accessSecret
	if expectedKind == RefreshToken {
		secret = s.refreshSecret
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, apperrors.WrapError(apperrors.ErrTokenExpired, err)
		}
		return 0, apperrors.WrapError(apperrors.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, apperrors.ErrInvalidToken
	}

	kind, ok := claims["token_kind"].(string)
	if !ok || kind != string(expectedKind) {
		return 0, apperrors.ErrInvalidToken
	}

	userIDFloat, ok := claims["user_id"].(float64)
	if !ok || userIDFloat <= 0 {
		return 0, apperrors.ErrInvalidToken
	}

	return uint(userIDFloat), nil
}
