package repository

import (
	"context"
	"errors"

	"github.com/Streamly-Media/accounts/internal/model"
)

// ErrStaleRefreshToken is returned by RotateRefreshToken when the stored token
// no longer matches the presented one (rotated, cleared, or never set).
var ErrStaleRefreshToken = errors.New("stored refresh token does not match")

// UserStore is the persistence contract consumed by the account service.
type UserStore interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
	// GetByIdentity looks a user up by username or email; either may be empty.
	GetByIdentity(ctx context.Context, username, email string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error

	// SetRefreshToken unconditionally overwrites the stored refresh token.
	// Empty token clears the session.
	SetRefreshToken(ctx context.Context, id uint, token string) error
	// RotateRefreshToken swaps oldToken for newToken in a single conditional
	// update; returns ErrStaleRefreshToken when oldToken is no longer stored.
	RotateRefreshToken(ctx context.Context, id uint, oldToken, newToken string) error

	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
	UpdateAccount(ctx context.Context, id uint, fullName, email string) (*model.User, error)
	UpdateAvatar(ctx context.Context, id uint, avatarURL string) error
	UpdateCoverImage(ctx context.Context, id uint, coverImageURL string) error

	ChannelProfile(ctx context.Context, username string, viewerID uint) (*model.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID uint) ([]model.WatchHistoryEntry, error)
}
