package models

import (
	"gorm.io/gorm"
)

const (
	DefaultMaxItems = 30
	DefaultMaxDays  = 2

	MinMaxItems = 1
	MaxMaxItems = 1000
	MinMaxDays  = 1
	MaxMaxDays  = 365
)

// Preferences control how much of the timeline a user sees. Out-of-range
// values are clamped on update, never rejected.
type Preferences struct {
	MaxItems int `gorm:"default:30" json:"maxItems"`
	MaxDays  int `gorm:"default:2" json:"maxDays"`
}

// User is identified solely by an opaque 24-character hex id. Possession of
// the id is the whole access model; there are no credentials.
type User struct {
	gorm.Model
	UserID      string      `gorm:"type:varchar(24);uniqueIndex;not null" json:"userId"`
	Preferences Preferences `gorm:"embedded;embeddedPrefix:pref_" json:"preferences"`
}

// Clamp forces the preferences into their legal ranges.
func (p Preferences) Clamp() Preferences {
	return Preferences{
		MaxItems: clampInt(p.MaxItems, MinMaxItems, MaxMaxItems),
		MaxDays:  clampInt(p.MaxDays, MinMaxDays, MaxMaxDays),
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
