package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jlin-dev/feedstream/config"
	"github.com/jlin-dev/feedstream/feed"
	"github.com/jlin-dev/feedstream/global"
	"github.com/jlin-dev/feedstream/models"
)

const timelineCacheTTL = 5 * time.Minute

// currentUser returns the user resolved by middlewares.ResolveUser.
func currentUser(c *gin.Context) models.User {
	return c.MustGet("user").(models.User)
}

func timelineCacheKey(userID string) string {
	return "timeline:" + userID
}

// invalidateTimelineCache drops the cached timeline for a user. Runs off the
// request path: losing the invalidation only means a stale read until the
// TTL expires.
func invalidateTimelineCache(userID string) {
	if global.RedisDB == nil {
		return
	}
	go func() {
		_ = global.RedisDB.Del(context.Background(), timelineCacheKey(userID)).Err()
	}()
}

func refreshOptions() feed.Options {
	if config.AppConfig == nil {
		return feed.Options{}
	}
	return feed.Options{
		Timeout:      config.AppConfig.FetchTimeout(),
		Concurrency:  config.AppConfig.FetchConcurrency(),
		MaxFeedBytes: config.AppConfig.FetchMaxFeedBytes(),
	}
}

// subscribedFeeds loads the user's subscription set.
func subscribedFeeds(db *gorm.DB, userID uint) ([]models.Feed, error) {
	var feeds []models.Feed
	err := db.
		Joins("JOIN subscriptions ON subscriptions.feed_id = feeds.id").
		Where("subscriptions.user_id = ? AND subscriptions.deleted_at IS NULL", userID).
		Find(&feeds).Error
	return feeds, err
}

// Subscribe adds a feed to a user's subscription set, creating the Feed row
// on first subscription to a new URL. Subscribing twice is a no-op.
func Subscribe(c *gin.Context) {
	var input struct {
		UserID    string `json:"userId" binding:"required"`
		FeedURL   string `json:"feedUrl" binding:"required"`
		FeedTitle string `json:"feedTitle"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := feed.LookupUser(global.DB, input.UserID)
	if err != nil {
		if errors.Is(err, feed.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	title := input.FeedTitle
	if title == "" {
		title = input.FeedURL
	}

	var f models.Feed
	err = global.DB.Where("url = ?", input.FeedURL).
		Attrs(models.Feed{URL: input.FeedURL, Title: title}).
		FirstOrCreate(&f).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var sub models.Subscription
	err = global.DB.Where("user_id = ? AND feed_id = ?", user.ID, f.ID).
		Attrs(models.Subscription{UserID: user.ID, FeedID: f.ID}).
		FirstOrCreate(&sub).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	invalidateTimelineCache(user.UserID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"feed": gin.H{
			"id":    f.ID,
			"title": f.Title,
			"url":   f.URL,
		},
	})
}

// Unsubscribe removes a feed from the user's subscription set. The Feed row
// and its items stay: other users may share them.
func Unsubscribe(c *gin.Context) {
	user := currentUser(c)

	var input struct {
		FeedID uint `json:"feedId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := global.DB.Unscoped().
		Where("user_id = ? AND feed_id = ?", user.ID, input.FeedID).
		Delete(&models.Subscription{}).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	invalidateTimelineCache(user.UserID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Successfully unsubscribed from feed",
	})
}

// RefreshFeeds fetches every feed the user is subscribed to and upserts the
// results. Feeds that fail to fetch or parse are reported in perFeedErrors;
// the refresh itself still succeeds with whatever the healthy feeds produced.
func RefreshFeeds(c *gin.Context) {
	user := currentUser(c)

	feeds, err := subscribedFeeds(global.DB, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	items := []models.FeedItem{}
	perFeedErrors := []feed.FeedError{}

	if len(feeds) > 0 {
		refreshed, feedErrors, err := feed.Refresh(c.Request.Context(), global.DB, feeds, refreshOptions())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if refreshed != nil {
			items = refreshed
		}
		if feedErrors != nil {
			perFeedErrors = feedErrors
		}
		invalidateTimelineCache(user.UserID)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"items":         items,
			"perFeedErrors": perFeedErrors,
		},
	})
}

type timelineData struct {
	Items       []feed.TimelineItem `json:"items"`
	Preferences models.Preferences  `json:"preferences"`
}

// GetTimeline returns the user's filtered, sorted, read-annotated item list.
// It reads only what previous refreshes stored; it never touches the network.
func GetTimeline(c *gin.Context) {
	user := currentUser(c)
	ctx := c.Request.Context()
	cacheKey := timelineCacheKey(user.UserID)

	// A cache miss or the cache being down both fall through to the store.
	if global.RedisDB != nil {
		if cached, err := global.RedisDB.Get(ctx, cacheKey).Result(); err == nil {
			var data timelineData
			if err := json.Unmarshal([]byte(cached), &data); err == nil {
				c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
				return
			}
		}
	}

	feeds, err := subscribedFeeds(global.DB, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var items []models.FeedItem
	if len(feeds) > 0 {
		feedIDs := make([]uint, 0, len(feeds))
		for _, f := range feeds {
			feedIDs = append(feedIDs, f.ID)
		}
		if err := global.DB.Where("feed_id IN ?", feedIDs).Find(&items).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	var clicks []models.ClickRecord
	if err := global.DB.Where("user_id = ?", user.ID).Find(&clicks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	clicked := make(map[uint]struct{}, len(clicks))
	for _, click := range clicks {
		clicked[click.ItemID] = struct{}{}
	}

	timeline := feed.BuildTimeline(items, clicked, user.Preferences, time.Now().UTC())
	if timeline == nil {
		timeline = []feed.TimelineItem{}
	}
	data := timelineData{Items: timeline, Preferences: user.Preferences}

	if global.RedisDB != nil {
		if payload, err := json.Marshal(data); err == nil {
			_ = global.RedisDB.Set(ctx, cacheKey, payload, timelineCacheTTL).Err()
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// ClickItem records that the user opened an item. Clicking the same item
// again does not add a second record.
func ClickItem(c *gin.Context) {
	user := currentUser(c)

	var input struct {
		ItemID uint `json:"itemId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var click models.ClickRecord
	err := global.DB.Where("user_id = ? AND item_id = ?", user.ID, input.ItemID).
		Attrs(models.ClickRecord{
			UserID:    user.ID,
			ItemID:    input.ItemID,
			ClickedAt: time.Now().UTC(),
		}).
		FirstOrCreate(&click).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	invalidateTimelineCache(user.UserID)

	c.JSON(http.StatusOK, gin.H{"success": true})
}
