package config

import (
	"log"

	"github.com/jlin-dev/feedstream/global"
	"github.com/jlin-dev/feedstream/models"
)

// MigrateDB runs database migrations
func MigrateDB() {
	err := global.DB.AutoMigrate(
		&models.User{},
		&models.Feed{},
		&models.FeedItem{},
		&models.Subscription{},
		&models.ClickRecord{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")
}
