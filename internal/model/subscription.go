package model

import (
	"gorm.io/gorm"
)

// Subscription is the subscriber -> channel edge. The account core never
// mutates it; channel-profile aggregation reads it.
type Subscription struct {
	gorm.Model
	SubscriberID uint `gorm:"column:subscriber_id;not null;uniqueIndex:idx_subscriptions_edge"`
	ChannelID    uint `gorm:"column:channel_id;not null;uniqueIndex:idx_subscriptions_edge"`
}

// ChannelProfile is the aggregated public view of a user as a channel.
type ChannelProfile struct {
	ID                        uint   `json:"id"`
	Username                  string `json:"username"`
	FullName                  string `json:"full_name"`
	Email                     string `json:"email"`
	AvatarURL                 string `json:"avatar_url"`
	CoverImageURL             string `json:"cover_image_url"`
	SubscriberCount           int64  `json:"subscriber_count"`
	ChannelsSubscribedToCount int64  `json:"channels_subscribed_to_count"`
	IsSubscribed              bool   `json:"is_subscribed"`
}
