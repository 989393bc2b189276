package handler

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/Streamly-Media/accounts/config"
	"github.com/Streamly-Media/accounts/internal/constants"
	"github.com/Streamly-Media/accounts/internal/dto"
	apperrors "github.com/Streamly-Media/accounts/internal/errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondError maps a domain error onto the HTTP envelope. Handlers are the
// only layer that knows about status codes.
func respondError(c *gin.Context, err error) {
	status := apperrors.ToHTTPStatus(err)
	c.JSON(status, constants.NewErrorResponse(status, apperrors.GetErrorMessage(err)))
}

func respondValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, constants.NewErrorResponse(
		http.StatusBadRequest,
		apperrors.ErrMissingFields.Message,
		dto.ValidationMessages(err)...,
	))
}

// currentUserID reads the principal set by the auth middleware.
func currentUserID(c *gin.Context) (uint, bool) {
	value, ok := c.Get(constants.GinKeyUserID)
	if !ok {
		return 0, false
	}
	userID, ok := value.(uint)
	return userID, ok
}

// stageUpload writes a multipart file part into the temp directory and returns
// its local path. A missing optional part yields an empty path with no error.
func stageUpload(c *gin.Context, cfg *config.UploadConfig, field string) (string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return "", nil
		}
		return "", err
	}

	if file.Size > cfg.MaxFileSize {
		return "", fmt.Errorf("file %s exceeds the %d byte limit", field, cfg.MaxFileSize)
	}

	path := filepath.Join(cfg.TempDir, stagedFileName(file))
	if err := c.SaveUploadedFile(file, path); err != nil {
		return "", err
	}
	return path, nil
}

func stagedFileName(file *multipart.FileHeader) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
}
