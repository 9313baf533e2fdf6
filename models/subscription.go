package models

import (
	"time"

	"gorm.io/gorm"
)

// Subscription links a user to a feed. The composite unique index gives the
// subscription set its set semantics: subscribing twice is a no-op.
type Subscription struct {
	gorm.Model
	UserID uint `gorm:"not null;uniqueIndex:idx_user_feed" json:"userId"`
	FeedID uint `gorm:"not null;uniqueIndex:idx_user_feed" json:"feedId"`

	Feed Feed `gorm:"foreignKey:FeedID" json:"-"`
}

// ClickRecord marks a feed item as read by a user. It references the item by
// id only, so it survives even if the item row is later pruned. Re-clicking
// the same item does not add a second row.
type ClickRecord struct {
	gorm.Model
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_item" json:"userId"`
	ItemID    uint      `gorm:"not null;uniqueIndex:idx_user_item" json:"itemId"`
	ClickedAt time.Time `gorm:"not null" json:"clickedAt"`
}
