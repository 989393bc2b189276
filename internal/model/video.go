package model

import (
	"time"

	"gorm.io/gorm"
)

type Video struct {
	gorm.Model
	OwnerID      uint   `gorm:"column:owner_id;not null;index"`
	Title        string `gorm:"column:title;not null"`
	Description  string `gorm:"column:description"`
	VideoURL     string `gorm:"column:video_url;not null"`
	ThumbnailURL string `gorm:"column:thumbnail_url;not null"`
	Duration     int64  `gorm:"column:duration"`
	Views        int64  `gorm:"column:views;default:0"`
	Published    bool   `gorm:"column:published;default:true"`
}

// WatchHistory records that a user watched a video; newest entries win the
// ordering in the history query.
type WatchHistory struct {
	ID        uint      `gorm:"primarykey"`
	UserID    uint      `gorm:"column:user_id;not null;index"`
	VideoID   uint      `gorm:"column:video_id;not null"`
	WatchedAt time.Time `gorm:"column:watched_at;not null"`
}

// WatchHistoryEntry is the projected join row returned to clients: the video
// plus a trimmed owner.
type WatchHistoryEntry struct {
	VideoID       uint      `json:"video_id"`
	Title         string    `json:"title"`
	ThumbnailURL  string    `json:"thumbnail_url"`
	Duration      int64     `json:"duration"`
	WatchedAt     time.Time `json:"watched_at"`
	OwnerID       uint      `json:"owner_id"`
	OwnerUsername string    `json:"owner_username"`
	OwnerFullName string    `json:"owner_full_name"`
	OwnerAvatar   string    `json:"owner_avatar_url"`
}
