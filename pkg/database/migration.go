package database

import (
	"github.com/Streamly-Media/accounts/internal/model"
	"gorm.io/gorm"
)

// AutoMigrate runs the schema migrations for all persisted models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Subscription{},
		&model.Video{},
		&model.WatchHistory{},
	)
}
