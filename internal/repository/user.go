package repository

import (
	"context"
	"strings"
	"time"

	"github.com/Streamly-Media/accounts/internal/model"
	ctxutil "github.com/Streamly-Media/accounts/pkg/context"
	"github.com/Streamly-Media/accounts/pkg/logger"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

var _ UserStore = (*UserRepository)(nil)

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "GetByID")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	start := time.Now()
	var user model.User

	result := r.db.WithContext(ctx).Where("id = ?", id).First(&user)
	if result.Error != nil {
		logger.DebugWithContext(ctx, "Failed to get user by ID").
			Uint("user_id", id).
			Duration(time.Since(start)).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	return &user, nil
}

// GetByIdentity finds a user by username or email; both keys are stored
// lowercase, so the lookup folds case before matching.
func (r *UserRepository) GetByIdentity(ctx context.Context, username, email string) (*model.User, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "GetByIdentity")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	query := r.db.WithContext(ctx)
	switch {
	case username != "" && email != "":
		query = query.Where("username = ? OR email = ?", username, email)
	case username != "":
		query = query.Where("username = ?", username)
	case email != "":
		query = query.Where("email = ?", email)
	default:
		return nil, gorm.ErrRecordNotFound
	}

	start := time.Now()
	var user model.User
	result := query.First(&user)
	if result.Error != nil {
		logger.DebugWithContext(ctx, "Failed to get user by identity").
			String("username", username).
			String("email", email).
			Duration(time.Since(start)).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	return &user, nil
}

// Create inserts a new user; unique violations surface as gorm.ErrDuplicatedKey.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Create")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	start := time.Now()
	result := r.db.WithContext(ctx).Create(user)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to create user").
			String("username", user.Username).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	logger.InfoWithContext(ctx, "User created").
		String("username", user.Username).
		Uint("user_id", user.ID).
		Duration(duration).
		Log()

	return nil
}

// SetRefreshToken overwrites the stored refresh token in one update. An empty
// token clears the active session.
func (r *UserRepository) SetRefreshToken(ctx context.Context, id uint, token string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "SetRefreshToken")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("refresh_token", token)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to set refresh token").
			Uint("user_id", id).
			Err(result.Error).
			Log()
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// RotateRefreshToken replaces oldToken with newToken only if oldToken is still
// the stored one. The conditional WHERE makes the comparison-and-swap a single
// atomic statement: with two concurrent refreshes presenting the same token,
// at most one update matches a row.
func (r *UserRepository) RotateRefreshToken(ctx context.Context, id uint, oldToken, newToken string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "RotateRefreshToken")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	start := time.Now()
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND refresh_token = ?", id, oldToken).
		Update("refresh_token", newToken)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to rotate refresh token").
			Uint("user_id", id).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	if result.RowsAffected == 0 {
		logger.WarnWithContext(ctx, "Refresh token rotation found stale token").
			Uint("user_id", id).
			Duration(duration).
			Log()
		return ErrStaleRefreshToken
	}

	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "UpdatePassword")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update password").
			Uint("user_id", id).
			Err(result.Error).
			Log()
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.InfoWithContext(ctx, "Password updated").
		Uint("user_id", id).
		Log()

	return nil
}

func (r *UserRepository) UpdateAccount(ctx context.Context, id uint, fullName, email string) (*model.User, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "UpdateAccount")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"full_name": fullName,
			"email":     strings.ToLower(strings.TrimSpace(email)),
		})
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update account").
			Uint("user_id", id).
			Err(result.Error).
			Log()
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id uint, avatarURL string) error {
	return r.updateMediaColumn(ctx, id, "avatar_url", avatarURL)
}

func (r *UserRepository) UpdateCoverImage(ctx context.Context, id uint, coverImageURL string) error {
	return r.updateMediaColumn(ctx, id, "cover_image_url", coverImageURL)
}

func (r *UserRepository) updateMediaColumn(ctx context.Context, id uint, column, url string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "updateMediaColumn")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update(column, url)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update media column").
			Uint("user_id", id).
			String("column", column).
			Err(result.Error).
			Log()
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// ChannelProfile aggregates subscriber counts and the viewer's subscription
// state for one channel, all in one round trip.
func (r *UserRepository) ChannelProfile(ctx context.Context, username string, viewerID uint) (*model.ChannelProfile, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "ChannelProfile")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	start := time.Now()
	var profile model.ChannelProfile

	result := r.db.WithContext(ctx).Raw(`
		SELECT
			u.id,
			u.username,
			u.full_name,
			u.email,
			u.avatar_url,
			u.cover_image_url,
			(SELECT COUNT(*) FROM subscriptions s
				WHERE s.channel_id = u.id AND s.deleted_at IS NULL) AS subscriber_count,
			(SELECT COUNT(*) FROM subscriptions s
				WHERE s.subscriber_id = u.id AND s.deleted_at IS NULL) AS channels_subscribed_to_count,
			EXISTS (SELECT 1 FROM subscriptions s
				WHERE s.channel_id = u.id AND s.subscriber_id = ? AND s.deleted_at IS NULL) AS is_subscribed
		FROM users u
		WHERE u.username = ? AND u.deleted_at IS NULL`,
		viewerID, strings.ToLower(strings.TrimSpace(username)),
	).Scan(&profile)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to load channel profile").
			String("channel", username).
			Duration(time.Since(start)).
			Err(result.Error).
			Log()
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	logger.DebugWithContext(ctx, "Channel profile loaded").
		String("channel", profile.Username).
		Int64("subscriber_count", profile.SubscriberCount).
		Duration(time.Since(start)).
		Log()

	return &profile, nil
}

// WatchHistory joins the user's history rows with videos and their owners,
// newest first.
func (r *UserRepository) WatchHistory(ctx context.Context, userID uint) ([]model.WatchHistoryEntry, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "WatchHistory")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	start := time.Now()
	var entries []model.WatchHistoryEntry

	result := r.db.WithContext(ctx).Raw(`
		SELECT
			v.id AS video_id,
			v.title,
			v.thumbnail_url,
			v.duration,
			w.watched_at,
			o.id AS owner_id,
			o.username AS owner_username,
			o.full_name AS owner_full_name,
			o.avatar_url AS owner_avatar
		FROM watch_histories w
		JOIN videos v ON v.id = w.video_id AND v.deleted_at IS NULL
		JOIN users o ON o.id = v.owner_id AND o.deleted_at IS NULL
		WHERE w.user_id = ?
		ORDER BY w.watched_at DESC`,
		userID,
	).Scan(&entries)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to load watch history").
			Uint("user_id", userID).
			Duration(time.Since(start)).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	logger.DebugWithContext(ctx, "Watch history loaded").
		Uint("user_id", userID).
		Int("entries", len(entries)).
		Duration(time.Since(start)).
		Log()

	return entries, nil
}
