package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Streamly-Media/accounts/internal/model"
	"github.com/Streamly-Media/accounts/pkg/logger"
	"github.com/Streamly-Media/accounts/pkg/redis"
)

const (
	profileCachePrefix = "channel_profile"
	profileCacheTTL    = 60 * time.Second
)

// ProfileCache keeps channel-profile aggregations in Redis for a short TTL.
// Entries are keyed per channel and viewer because is_subscribed depends on
// who is asking. Cache failures are logged and swallowed; the store is the
// source of truth.
type ProfileCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewProfileCache(client *redis.Client) *ProfileCache {
	return &ProfileCache{
		redis: client,
		ttl:   profileCacheTTL,
	}
}

func (c *ProfileCache) key(username string, viewerID uint) string {
	return fmt.Sprintf("%s:%s:%d", profileCachePrefix, username, viewerID)
}

func (c *ProfileCache) Get(ctx context.Context, username string, viewerID uint) (*model.ChannelProfile, bool) {
	value, found, err := c.redis.Get(ctx, c.key(username, viewerID))
	if err != nil {
		logger.WarnWithContext(ctx, "Profile cache read failed").
			String("channel", username).
			Err(err).
			Log()
		return nil, false
	}
	if !found {
		return nil, false
	}

	var profile model.ChannelProfile
	if err := json.Unmarshal([]byte(value), &profile); err != nil {
		logger.WarnWithContext(ctx, "Profile cache entry corrupt, dropping").
			String("channel", username).
			Err(err).
			Log()
		_ = c.redis.Delete(ctx, c.key(username, viewerID))
		return nil, false
	}

	return &profile, true
}

func (c *ProfileCache) Set(ctx context.Context, username string, viewerID uint, profile *model.ChannelProfile) {
	data, err := json.Marshal(profile)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, c.key(username, viewerID), string(data), c.ttl); err != nil {
		logger.WarnWithContext(ctx, "Profile cache write failed").
			String("channel", username).
			Err(err).
			Log()
	}
}

// Invalidate drops every cached view of a channel, across all viewers.
func (c *ProfileCache) Invalidate(ctx context.Context, username string) {
	prefix := fmt.Sprintf("%s:%s:", profileCachePrefix, username)
	if err := c.redis.DeleteByPrefix(ctx, prefix); err != nil {
		logger.WarnWithContext(ctx, "Profile cache invalidation failed").
			String("channel", username).
			Err(err).
			Log()
	}
}
