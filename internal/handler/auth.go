package handler

import (
	"net/http"
	"os"

	"github.com/Streamly-Media/accounts/config"
	"github.com/Streamly-Media/accounts/internal/constants"
	"github.com/Streamly-Media/accounts/internal/dto"
	apperrors "github.com/Streamly-Media/accounts/internal/errors"
	"github.com/Streamly-Media/accounts/internal/service"
	ctxutil "github.com/Streamly-Media/accounts/pkg/context"
	"github.com/Streamly-Media/accounts/pkg/logger"
	"github.com/gin-gonic/gin"
)

// AuthHandler owns the session endpoints: register, login, refresh, logout.
type AuthHandler struct {
	svc *service.UserService
	cfg *config.Config
}

func NewAuthHandler(svc *service.UserService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{svc: svc, cfg: cfg}
}

// Register handles POST /api/v1/users/register: multipart form with text
// fields plus a required avatar part and an optional coverImage part.
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Register")

	var req dto.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	avatarPath, err := stageUpload(c, &h.cfg.Upload, constants.FormFieldAvatar)
	if err != nil {
		logger.WarnWithContext(ctx, "Failed to stage avatar upload").Err(err).Log()
		respondError(c, apperrors.WrapError(apperrors.ErrMediaUploadFailed, err))
		return
	}

	coverImagePath, err := stageUpload(c, &h.cfg.Upload, constants.FormFieldCoverImage)
	if err != nil {
		logger.WarnWithContext(ctx, "Failed to stage cover image upload").Err(err).Log()
		if avatarPath != "" {
			_ = os.Remove(avatarPath)
		}
		respondError(c, apperrors.WrapError(apperrors.ErrMediaUploadFailed, err))
		return
	}

	user, err := h.svc.Register(ctx, &req, avatarPath, coverImagePath)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, constants.NewResponse(http.StatusCreated, user, "user registered successfully"))
}

// Login handles POST /api/v1/users/login. On success both tokens travel in
// the body and as httpOnly cookies.
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Login")

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	resp, err := h.svc.Login(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setSessionCookies(c, resp.AccessToken, resp.RefreshToken)
	c.JSON(http.StatusOK, constants.NewResponse(http.StatusOK, resp, "logged in successfully"))
}

// Refresh handles POST /api/v1/users/refresh-token. The refresh token comes
// from the cookie when present, else from the JSON body.
func (h *AuthHandler) Refresh(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Refresh")

	presented, err := c.Cookie(constants.CookieRefreshToken)
	if err != nil || presented == "" {
		var req dto.RefreshRequest
		if bindErr := c.ShouldBindJSON(&req); bindErr == nil {
			presented = req.RefreshToken
		}
	}
	if presented == "" {
		respondError(c, apperrors.ErrMissingToken)
		return
	}

	resp, err := h.svc.Refresh(ctx, presented)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setSessionCookies(c, resp.AccessToken, resp.RefreshToken)
	c.JSON(http.StatusOK, constants.NewResponse(http.StatusOK, resp, "session refreshed"))
}

// Logout handles POST /api/v1/users/logout. Requires an authenticated caller;
// clears the stored refresh token and both cookies.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Logout")

	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	if err := h.svc.Logout(ctx, userID); err != nil {
		respondError(c, err)
		return
	}

	h.clearSessionCookies(c)
	c.JSON(http.StatusOK, constants.NewResponse(http.StatusOK, nil, "logged out successfully"))
}

func (h *AuthHandler) setSessionCookies(c *gin.Context, accessToken, refreshToken string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(constants.CookieAccessToken, accessToken,
		int(h.cfg.Token.AccessTTL.Seconds()), "/", "", true, true)
	c.SetCookie(constants.CookieRefreshToken, refreshToken,
		int(h.cfg.Token.RefreshTTL.Seconds()), "/", "", true, true)
}

func (h *AuthHandler) clearSessionCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(constants.CookieAccessToken, "", -1, "/", "", true, true)
	c.SetCookie(constants.CookieRefreshToken, "", -1, "/", "", true, true)
}
