package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Streamly-Media/accounts/internal/dto"
	apperrors "github.com/Streamly-Media/accounts/internal/errors"
	"github.com/Streamly-Media/accounts/internal/model"
	"github.com/Streamly-Media/accounts/internal/repository"
	ctxutil "github.com/Streamly-Media/accounts/pkg/context"
	"github.com/Streamly-Media/accounts/pkg/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// MediaStore is the opaque remote upload dependency. Implementations receive a
// staged local file path and return the public URL and object key.
type MediaStore interface {
	Upload(ctx context.Context, localPath string) (url, key string, err error)
}

// UserService orchestrates the session lifecycle: registration, login,
// refresh-token rotation, logout, and the profile operations around them.
type UserService struct {
	repo   repository.UserStore
	tokens *TokenService
	media  MediaStore
	cache  *ProfileCache
}

func NewUserService(repo repository.UserStore, tokens *TokenService, media MediaStore, cache *ProfileCache) *UserService {
	return &UserService{
		repo:   repo,
		tokens: tokens,
		media:  media,
		cache:  cache,
	}
}

// hashPassword hashes password using bcrypt
func (s *UserService) hashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedPassword), nil
}

// checkPassword verifies password against hash in constant time
func (s *UserService) checkPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// uploadMedia pushes a staged temp file to the media store and always removes
// the local file afterwards, on success and failure alike.
func (s *UserService) uploadMedia(ctx context.Context, localPath string) (string, error) {
	defer func() {
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			logger.WarnWithContext(ctx, "Failed to remove staged upload").
				String("path", localPath).
				Err(err).
				Log()
		}
	}()

	url, key, err := s.media.Upload(ctx, localPath)
	if err != nil {
		return "", err
	}

	logger.DebugWithContext(ctx, "Media uploaded").
		String("key", key).
		Log()

	return url, nil
}

// Register creates a new account. It establishes no session: the client still
// has to log in afterwards.
func (s *UserService) Register(ctx context.Context, req *dto.RegisterRequest, avatarPath, coverImagePath string) (*dto.UserResponse, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Register")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	// Staged files must not outlive the request, whichever branch rejects it.
	// uploadMedia removes the files it consumes; this sweeps the rest.
	defer func() {
		for _, path := range []string{avatarPath, coverImagePath} {
			if path == "" {
				continue
			}
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				logger.WarnWithContext(ctx, "Failed to remove staged upload").
					String("path", path).
					Err(err).
					Log()
			}
		}
	}()

	fullName := strings.TrimSpace(req.FullName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.ToLower(strings.TrimSpace(req.Username))

	if fullName == "" || email == "" || username == "" || req.Password == "" {
		return nil, apperrors.ErrMissingFields
	}

	// The avatar check precedes every store write so a rejected registration
	// never leaves an orphan record.
	if avatarPath == "" {
		return nil, apperrors.ErrMissingAvatar
	}

	existing, err := s.repo.GetByIdentity(ctx, username, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.ErrorWithContext(ctx, "Identity lookup failed during registration").
			String("username", username).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if existing != nil {
		logger.InfoWithContext(ctx, "Registration rejected, identity taken").
			String("username", username).
			Log()
		return nil, apperrors.ErrDuplicateIdentity
	}

	avatarURL, err := s.uploadMedia(ctx, avatarPath)
	if err != nil {
		logger.ErrorWithContext(ctx, "Avatar upload failed").
			String("username", username).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrMediaUploadFailed, err)
	}

	// Cover image is optional: an upload failure is logged, never surfaced.
	var coverImageURL string
	if coverImagePath != "" {
		coverImageURL, err = s.uploadMedia(ctx, coverImagePath)
		if err != nil {
			logger.WarnWithContext(ctx, "Cover image upload failed, continuing without it").
				String("username", username).
				Err(err).
				Log()
			coverImageURL = ""
		}
	}

	passwordHash, err := s.hashPassword(req.Password)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to hash password").
			String("username", username).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	user := &model.User{
		Username:      username,
		Email:         email,
		FullName:      fullName,
		PasswordHash:  passwordHash,
		AvatarURL:     avatarURL,
		CoverImageURL: coverImageURL,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race with a concurrent registration for the same keys.
			return nil, apperrors.ErrDuplicateIdentity
		}
		logger.ErrorWithContext(ctx, "Failed to create user").
			String("username", username).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "User registered").
		String("username", username).
		Uint("user_id", user.ID).
		Log()

	response := dto.NewUserResponse(user)
	return &response, nil
}

// Login verifies credentials, issues a fresh token pair and persists the
// refresh token, evicting whatever session the user held before.
func (s *UserService) Login(ctx context.Context, username, email, password string) (*dto.LoginResponse, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Login")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	if strings.TrimSpace(username) == "" && strings.TrimSpace(email) == "" {
		return nil, apperrors.ErrMissingFields
	}

	user, err := s.repo.GetByIdentity(ctx, username, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.InfoWithContext(ctx, "Login failed, user not found").
				String("username", username).
				Log()
			return nil, apperrors.ErrUserNotFound
		}
		logger.ErrorWithContext(ctx, "Identity lookup failed during login").
			String("username", username).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if !s.checkPassword(user.PasswordHash, password) {
		logger.WarnWithContext(ctx, "Login failed, wrong password").
			Uint("user_id", user.ID).
			Log()
		return nil, apperrors.ErrInvalidCredentials
	}

	accessToken, refreshToken, err := s.issueTokenPair(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	// Unconditional overwrite: a new login always invalidates the previous
	// session's refresh token.
	if err := s.repo.SetRefreshToken(ctx, user.ID, refreshToken); err != nil {
		logger.ErrorWithContext(ctx, "Failed to persist refresh token").
			Uint("user_id", user.ID).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrTokenGeneration, err)
	}

	logger.InfoWithContext(ctx, "User logged in").
		Uint("user_id", user.ID).
		String("username", user.Username).
		Log()

	return &dto.LoginResponse{
		User:         dto.NewUserResponse(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *UserService) issueTokenPair(ctx context.Context, userID uint) (string, string, error) {
	accessToken, err := s.tokens.IssueAccessToken(userID)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to issue access token").
			Uint("user_id", userID).
			Err(err).
			Log()
		return "", "", apperrors.WrapError(apperrors.ErrTokenGeneration, err)
	}

	refreshToken, err := s.tokens.IssueRefreshToken(userID)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to issue refresh token").
			Uint("user_id", userID).
			Err(err).
			Log()
		return "", "", apperrors.WrapError(apperrors.ErrTokenGeneration, err)
	}

	return accessToken, refreshToken, nil
}

// Refresh rotates the session: the presented refresh token must verify, be
// unexpired, and exactly match the stored one. The rotation is a conditional
// swap, so a replayed token that already rotated fails with TokenMismatch even
// before its expiry.
func (s *UserService) Refresh(ctx context.Context, presented string) (*dto.RefreshResponse, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Refresh")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	if presented == "" {
		return nil, apperrors.ErrMissingToken
	}

	userID, err := s.tokens.Verify(presented, RefreshToken)
	if err != nil {
		logger.WarnWithContext(ctx, "Refresh token verification failed").
			Err(err).
			Log()
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.ErrorWithContext(ctx, "User lookup failed during refresh").
			Uint("user_id", userID).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	accessToken, refreshToken, err := s.issueTokenPair(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.RotateRefreshToken(ctx, user.ID, presented, refreshToken); err != nil {
		if errors.Is(err, repository.ErrStaleRefreshToken) {
			logger.WarnWithContext(ctx, "Refresh rejected, token already rotated or cleared").
				Uint("user_id", user.ID).
				Log()
			return nil, apperrors.ErrTokenMismatch
		}
		logger.ErrorWithContext(ctx, "Failed to rotate refresh token").
			Uint("user_id", user.ID).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrTokenGeneration, err)
	}

	logger.InfoWithContext(ctx, "Session refreshed").
		Uint("user_id", user.ID).
		Log()

	return &dto.RefreshResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Logout clears the stored refresh token; the session is dead even though the
// old tokens have not expired yet.
func (s *UserService) Logout(ctx context.Context, userID uint) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Logout")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	if err := s.repo.SetRefreshToken(ctx, userID, ""); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		logger.ErrorWithContext(ctx, "Failed to clear refresh token").
			Uint("user_id", userID).
			Err(err).
			Log()
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "User logged out").
		Uint("user_id", userID).
		Log()

	return nil
}

// ChangePassword replaces the hash after verifying the old password. It also
// clears the stored refresh token: a stolen refresh token must not survive a
// password change, so the user logs in again.
func (s *UserService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "ChangePassword")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if !s.checkPassword(user.PasswordHash, oldPassword) {
		logger.WarnWithContext(ctx, "Password change rejected, old password wrong").
			Uint("user_id", userID).
			Log()
		return apperrors.ErrInvalidCredentials
	}

	passwordHash, err := s.hashPassword(newPassword)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.repo.UpdatePassword(ctx, userID, passwordHash); err != nil {
		logger.ErrorWithContext(ctx, "Failed to update password").
			Uint("user_id", userID).
			Err(err).
			Log()
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.repo.SetRefreshToken(ctx, userID, ""); err != nil {
		logger.WarnWithContext(ctx, "Failed to clear refresh token after password change").
			Uint("user_id", userID).
			Err(err).
			Log()
		// The password itself changed; the stale session dies at latest on
		// token expiry.
	}

	logger.InfoWithContext(ctx, "Password changed").
		Uint("user_id", userID).
		Log()

	return nil
}

// CurrentUser returns the sanitized record of the authenticated principal.
func (s *UserService) CurrentUser(ctx context.Context, userID uint) (*dto.UserResponse, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "CurrentUser")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	response := dto.NewUserResponse(user)
	return &response, nil
}

// UpdateAccount changes fullName and email; identity changes invalidate every
// cached profile view of the channel.
func (s *UserService) UpdateAccount(ctx context.Context, userID uint, req *dto.UpdateAccountRequest) (*dto.UserResponse, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "UpdateAccount")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	if strings.TrimSpace(req.FullName) == "" || strings.TrimSpace(req.Email) == "" {
		return nil, apperrors.ErrMissingFields
	}

	user, err := s.repo.UpdateAccount(ctx, userID, strings.TrimSpace(req.FullName), req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateIdentity
		}
		logger.ErrorWithContext(ctx, "Failed to update account").
			Uint("user_id", userID).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.cache.Invalidate(ctx, user.Username)

	response := dto.NewUserResponse(user)
	return &response, nil
}

// UpdateAvatar uploads a new avatar and swaps the URL. The avatar is required
// on the record, so the upload failure surfaces.
func (s *UserService) UpdateAvatar(ctx context.Context, userID uint, localPath string) (*dto.UserResponse, error) {
	return s.updateMedia(ctx, userID, localPath, apperrors.ErrMissingAvatar, s.repo.UpdateAvatar)
}

// UpdateCoverImage uploads a new cover image and swaps the URL.
func (s *UserService) UpdateCoverImage(ctx context.Context, userID uint, localPath string) (*dto.UserResponse, error) {
	return s.updateMedia(ctx, userID, localPath, apperrors.ErrMissingFields, s.repo.UpdateCoverImage)
}

func (s *UserService) updateMedia(
	ctx context.Context,
	userID uint,
	localPath string,
	missingErr *apperrors.DomainError,
	apply func(context.Context, uint, string) error,
) (*dto.UserResponse, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "updateMedia")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	if localPath == "" {
		return nil, missingErr
	}

	url, err := s.uploadMedia(ctx, localPath)
	if err != nil {
		logger.ErrorWithContext(ctx, "Media upload failed").
			Uint("user_id", userID).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrMediaUploadFailed, err)
	}

	if err := apply(ctx, userID, url); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.cache.Invalidate(ctx, user.Username)

	response := dto.NewUserResponse(user)
	return &response, nil
}

// ChannelProfile returns the aggregated channel view, after a cache check.
func (s *UserService) ChannelProfile(ctx context.Context, username string, viewerID uint) (*model.ChannelProfile, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "ChannelProfile")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, apperrors.ErrMissingFields
	}

	if profile, ok := s.cache.Get(ctx, username, viewerID); ok {
		return profile, nil
	}

	profile, err := s.repo.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrChannelNotFound
		}
		logger.ErrorWithContext(ctx, "Failed to load channel profile").
			String("channel", username).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.cache.Set(ctx, username, viewerID, profile)

	return profile, nil
}

// WatchHistory returns the user's watched videos, newest first.
func (s *UserService) WatchHistory(ctx context.Context, userID uint) ([]model.WatchHistoryEntry, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "WatchHistory")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	entries, err := s.repo.WatchHistory(ctx, userID)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to load watch history").
			Uint("user_id", userID).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if entries == nil {
		entries = []model.WatchHistoryEntry{}
	}

	return entries, nil
}
