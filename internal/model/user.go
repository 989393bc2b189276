package model

import (
	"gorm.io/gorm"
)

// User is the account record. Username and Email are stored lowercased so the
// unique indexes enforce case-insensitive identity.
type User struct {
	gorm.Model
	Username      string `gorm:"column:username;unique;not null"`
	Email         string `gorm:"column:email;unique;not null"`
	FullName      string `gorm:"column:full_name;not null"`
	PasswordHash  string `gorm:"column:password_hash;not null"`
	AvatarURL     string `gorm:"column:avatar_url;not null"`
	CoverImageURL string `gorm:"column:cover_image_url"`
	// RefreshToken holds the single active session's refresh token, or empty
	// when logged out. Overwritten on every login/refresh.
	RefreshToken string `gorm:"column:refresh_token;default:null"`
}
