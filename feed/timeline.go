package feed

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/jlin-dev/feedstream/models"
)

// TimelineItem is a feed item annotated with the viewing user's read state.
type TimelineItem struct {
	models.FeedItem
	IsRead bool `json:"isRead"`
}

// BuildTimeline produces the list a client renders: items newer than
// now − MaxDays, sorted newest first, truncated to MaxItems, each annotated
// with whether its id appears in the clicked set. The function is pure:
// identical inputs always yield the identical ordered list, and items with
// equal publication dates keep their incoming relative order.
func BuildTimeline(items []models.FeedItem, clicked map[uint]struct{}, prefs models.Preferences, now time.Time) []TimelineItem {
	threshold := now.AddDate(0, 0, -prefs.MaxDays)

	recent := lo.Filter(items, func(item models.FeedItem, _ int) bool {
		return !item.PubDate.Before(threshold)
	})

	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].PubDate.After(recent[j].PubDate)
	})

	if prefs.MaxItems > 0 && len(recent) > prefs.MaxItems {
		recent = recent[:prefs.MaxItems]
	}

	return lo.Map(recent, func(item models.FeedItem, _ int) TimelineItem {
		_, read := clicked[item.ID]
		return TimelineItem{FeedItem: item, IsRead: read}
	})
}
