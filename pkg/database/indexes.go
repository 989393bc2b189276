package database

import (
	"gorm.io/gorm"
)

// query-path indexes not expressed through model tags
var indexStatements = []string{
	// channel profile aggregation
	"CREATE INDEX IF NOT EXISTS idx_subscriptions_channel ON subscriptions (channel_id) WHERE deleted_at IS NULL",
	"CREATE INDEX IF NOT EXISTS idx_subscriptions_subscriber ON subscriptions (subscriber_id) WHERE deleted_at IS NULL",
	// watch history, newest first
	"CREATE INDEX IF NOT EXISTS idx_watch_histories_user_time ON watch_histories (user_id, watched_at DESC)",
}

// EnsureIndexes creates the supporting indexes after migration.
func EnsureIndexes(db *gorm.DB) error {
	for _, stmt := range indexStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
