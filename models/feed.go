package models

import (
	"time"

	"gorm.io/gorm"
)

// Feed defines an RSS/Atom source to ingest. Feeds are shared: every user
// subscribed to the same URL reads the same Feed row and its items.
type Feed struct {
	gorm.Model
	Title         string     `json:"title"`
	URL           string     `gorm:"uniqueIndex" json:"url" binding:"required"`
	LastFetchedAt *time.Time `json:"lastFetchedAt"`
}

// FeedItem is one canonical article, deduplicated across fetches by GUID.
// An upsert on GUID replaces every content field (last write wins).
type FeedItem struct {
	gorm.Model
	FeedID      uint      `gorm:"not null;index" json:"feedId"`
	GUID        string    `gorm:"uniqueIndex;not null" json:"guid"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Description string    `gorm:"type:text" json:"description"`
	Content     string    `gorm:"type:text" json:"content,omitempty"`
	PubDate     time.Time `gorm:"not null;index" json:"pubDate"`
	ImageURL    *string   `json:"imageUrl"`
	Categories  []string  `gorm:"serializer:json" json:"categories"`

	Feed Feed `gorm:"foreignKey:FeedID" json:"-"`
}
