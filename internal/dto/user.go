package dto

import (
	"time"

	"github.com/Streamly-Media/accounts/internal/model"
)

// RegisterRequest carries the multipart form fields of a registration; the
// avatar and cover image files travel separately as multipart file parts.
type RegisterRequest struct {
	FullName string `form:"fullName" binding:"required,min=2,max=100"`
	Email    string `form:"email" binding:"required,email"`
	Username string `form:"username" binding:"required,min=3,max=30,alphanum"`
	Password string `form:"password" binding:"required,min=8,max=100,password"`
}

// LoginRequest accepts either identity key plus the password.
type LoginRequest struct {
	Username string `json:"username" binding:"omitempty"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest is the body fallback; the cookie wins when both are present.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"omitempty"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8,max=100,password"`
}

type UpdateAccountRequest struct {
	FullName string `json:"fullName" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
}

// UserResponse is the sanitized projection: password hash and refresh token
// never leave the service.
type UserResponse struct {
	ID            uint      `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	AvatarURL     string    `json:"avatar_url"`
	CoverImageURL string    `json:"cover_image_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type LoginResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// NewUserResponse strips the sensitive columns off a user record.
func NewUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		FullName:      user.FullName,
		AvatarURL:     user.AvatarURL,
		CoverImageURL: user.CoverImageURL,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}
