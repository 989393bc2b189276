package handler

import (
	"context"
	"net/http"

	"github.com/Streamly-Media/accounts/config"
	"github.com/Streamly-Media/accounts/internal/constants"
	"github.com/Streamly-Media/accounts/internal/dto"
	apperrors "github.com/Streamly-Media/accounts/internal/errors"
	"github.com/Streamly-Media/accounts/internal/service"
	ctxutil "github.com/Streamly-Media/accounts/pkg/context"
	"github.com/Streamly-Media/accounts/pkg/logger"
	"github.com/gin-gonic/gin"
)

// UserHandler owns the authenticated account and channel endpoints.
type UserHandler struct {
	svc *service.UserService
	cfg *config.Config
}

func NewUserHandler(svc *service.UserService, cfg *config.Config) *UserHandler {
	return &UserHandler{svc: svc, cfg: cfg}
}

// CurrentUser handles GET /api/v1/users/current-user.
func (h *UserHandler) CurrentUser(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "CurrentUser")

	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	user, err := h.svc.CurrentUser(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.NewResponse(http.StatusOK, user, "current user fetched"))
}

// ChangePassword handles POST /api/v1/users/change-password.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "ChangePassword")

	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if err := h.svc.ChangePassword(ctx, userID, req.OldPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.NewResponse(http.StatusOK, nil, "password changed successfully"))
}

// UpdateAccount handles PATCH /api/v1/users/update-account.
func (h *UserHandler) UpdateAccount(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "UpdateAccount")

	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	var req dto.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	user, err := h.svc.UpdateAccount(ctx, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.NewResponse(http.StatusOK, user, "account updated successfully"))
}

// UpdateAvatar handles PATCH /api/v1/users/avatar with a multipart avatar part.
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "UpdateAvatar")
	h.updateMedia(c, ctx, constants.FormFieldAvatar, h.svc.UpdateAvatar, "avatar updated successfully")
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image.
func (h *UserHandler) UpdateCoverImage(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "UpdateCoverImage")
	h.updateMedia(c, ctx, constants.FormFieldCoverImage, h.svc.UpdateCoverImage, "cover image updated successfully")
}

func (h *UserHandler) updateMedia(
	c *gin.Context,
	ctx context.Context,
	field string,
	apply func(context.Context, uint, string) (*dto.UserResponse, error),
	message string,
) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	localPath, err := stageUpload(c, &h.cfg.Upload, field)
	if err != nil {
		logger.WarnWithContext(ctx, "Failed to stage media upload").
			String("field", field).
			Err(err).
			Log()
		respondError(c, apperrors.WrapError(apperrors.ErrMediaUploadFailed, err))
		return
	}

	user, err := apply(ctx, userID, localPath)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.NewResponse(http.StatusOK, user, message))
}

// ChannelProfile handles GET /api/v1/users/c/:username.
func (h *UserHandler) ChannelProfile(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "ChannelProfile")

	viewerID, _ := currentUserID(c)

	profile, err := h.svc.ChannelProfile(ctx, c.Param("username"), viewerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.NewResponse(http.StatusOK, profile, "channel profile fetched"))
}

// WatchHistory handles GET /api/v1/users/history.
func (h *UserHandler) WatchHistory(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "WatchHistory")

	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	history, err := h.svc.WatchHistory(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.NewResponse(http.StatusOK, history, "watch history fetched"))
}
