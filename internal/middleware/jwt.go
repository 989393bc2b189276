package middleware

import (
	"net/http"
	"strings"

	"github.com/Streamly-Media/accounts/internal/constants"
	apperrors "github.com/Streamly-Media/accounts/internal/errors"
	"github.com/Streamly-Media/accounts/internal/service"
	ctxutil "github.com/Streamly-Media/accounts/pkg/context"
	"github.com/Streamly-Media/accounts/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type JWTMiddleware struct {
	tokens *service.TokenService
}

func NewJWTMiddleware(tokens *service.TokenService) *JWTMiddleware {
	return &JWTMiddleware{tokens: tokens}
}

// RequireAuth validates the access token and sets the principal in both the
// gin context and the request context. The token comes from the accessToken
// cookie or an Authorization Bearer header; the cookie wins.
func (m *JWTMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := m.extractToken(c)
		if tokenString == "" {
			logger.GetLogger().Warn("Missing access token",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method))
			abortUnauthorized(c, apperrors.ErrMissingToken)
			return
		}

		userID, err := m.tokens.Verify(tokenString, service.AccessToken)
		if err != nil {
			logger.GetLogger().Warn("Access token rejected",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.Error(err))
			abortUnauthorized(c, err)
			return
		}

		c.Set(constants.GinKeyUserID, userID)
		c.Request = c.Request.WithContext(ctxutil.WithUserID(c.Request.Context(), userID))

		c.Next()
	}
}

func (m *JWTMiddleware) extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(constants.CookieAccessToken); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func abortUnauthorized(c *gin.Context, err error) {
	status := apperrors.ToHTTPStatus(err)
	if status != http.StatusUnauthorized {
		status = http.StatusUnauthorized
	}
	c.JSON(status, constants.NewErrorResponse(status, apperrors.GetErrorMessage(err)))
	c.Abort()
}
