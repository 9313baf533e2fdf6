package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jlin-dev/feedstream/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Feed{},
		&models.FeedItem{},
		&models.Subscription{},
		&models.ClickRecord{},
	))
	return db
}

func rssDocument(items string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
  <channel>
    <title>Example</title>
    <link>http://example.com</link>
    <description>example feed</description>
    %s
  </channel>
</rss>`, items)
}

const twoItemsXML = `
    <item>
      <title>First</title>
      <link>http://example.com/1</link>
      <guid>guid-1</guid>
      <pubDate>Mon, 27 Jul 2026 10:00:00 GMT</pubDate>
      <category>tech</category>
    </item>
    <item>
      <title>Second</title>
      <link>http://example.com/2</link>
      <guid>guid-2</guid>
      <pubDate>Tue, 28 Jul 2026 10:00:00 GMT</pubDate>
    </item>`

func createFeed(t *testing.T, db *gorm.DB, url string) models.Feed {
	t.Helper()
	f := models.Feed{URL: url, Title: url}
	require.NoError(t, db.Create(&f).Error)
	return f
}

func TestRefreshUpsertsAndSortsNewestFirst(t *testing.T) {
	db := newTestDB(t)
	srv := serveXML(t, rssDocument(twoItemsXML))
	f := createFeed(t, db, srv.URL)

	items, feedErrors, err := Refresh(context.Background(), db, []models.Feed{f}, Options{})
	require.NoError(t, err)
	assert.Empty(t, feedErrors)
	require.Len(t, items, 2)

	assert.Equal(t, "guid-2", items[0].GUID)
	assert.Equal(t, "guid-1", items[1].GUID)
	assert.Equal(t, []string{"tech"}, items[1].Categories)

	var stored models.Feed
	require.NoError(t, db.First(&stored, f.ID).Error)
	assert.NotNil(t, stored.LastFetchedAt)
}

func TestRefreshIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	srv := serveXML(t, rssDocument(twoItemsXML))
	f := createFeed(t, db, srv.URL)

	_, _, err := Refresh(context.Background(), db, []models.Feed{f}, Options{})
	require.NoError(t, err)

	var afterFirst []models.FeedItem
	require.NoError(t, db.Order("guid").Find(&afterFirst).Error)

	_, _, err = Refresh(context.Background(), db, []models.Feed{f}, Options{})
	require.NoError(t, err)

	var afterSecond []models.FeedItem
	require.NoError(t, db.Order("guid").Find(&afterSecond).Error)

	require.Len(t, afterSecond, len(afterFirst))
	for i := range afterFirst {
		assert.Equal(t, afterFirst[i].ID, afterSecond[i].ID)
		assert.Equal(t, afterFirst[i].GUID, afterSecond[i].GUID)
		assert.Equal(t, afterFirst[i].Title, afterSecond[i].Title)
		assert.Equal(t, afterFirst[i].PubDate.UTC(), afterSecond[i].PubDate.UTC())
	}
}

func TestRefreshDedupLastWriteWins(t *testing.T) {
	db := newTestDB(t)
	srv := serveXML(t, rssDocument(`
    <item>
      <title>Old title</title>
      <link>http://example.com/1</link>
      <guid>guid-1</guid>
      <pubDate>Mon, 27 Jul 2026 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>New title</title>
      <link>http://example.com/1-updated</link>
      <guid>guid-1</guid>
      <pubDate>Tue, 28 Jul 2026 10:00:00 GMT</pubDate>
    </item>`))
	f := createFeed(t, db, srv.URL)

	_, _, err := Refresh(context.Background(), db, []models.Feed{f}, Options{})
	require.NoError(t, err)

	var stored []models.FeedItem
	require.NoError(t, db.Find(&stored).Error)
	require.Len(t, stored, 1)
	assert.Equal(t, "New title", stored[0].Title)
	assert.Equal(t, "http://example.com/1-updated", stored[0].Link)
}

func TestRefreshSkipsEntriesWithoutIdentity(t *testing.T) {
	db := newTestDB(t)
	srv := serveXML(t, rssDocument(`
    <item>
      <title>No identity at all</title>
    </item>
    <item>
      <title>Fine</title>
      <link>http://example.com/2</link>
      <guid>guid-2</guid>
    </item>`))
	f := createFeed(t, db, srv.URL)

	items, feedErrors, err := Refresh(context.Background(), db, []models.Feed{f}, Options{})
	require.NoError(t, err)
	assert.Empty(t, feedErrors)
	require.Len(t, items, 1)
	assert.Equal(t, "guid-2", items[0].GUID)
}

func TestRefreshIsolatesFailingFeeds(t *testing.T) {
	db := newTestDB(t)

	good1 := serveXML(t, rssDocument(`
    <item><title>A</title><guid>feed1-a</guid><pubDate>Mon, 27 Jul 2026 10:00:00 GMT</pubDate></item>`))
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	t.Cleanup(slow.Close)
	good2 := serveXML(t, rssDocument(`
    <item><title>C</title><guid>feed3-c</guid><pubDate>Tue, 28 Jul 2026 10:00:00 GMT</pubDate></item>`))

	f1 := createFeed(t, db, good1.URL)
	f2 := createFeed(t, db, slow.URL)
	f3 := createFeed(t, db, good2.URL)

	items, feedErrors, err := Refresh(context.Background(), db,
		[]models.Feed{f1, f2, f3},
		Options{Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	guids := make([]string, 0, len(items))
	for _, item := range items {
		guids = append(guids, item.GUID)
	}
	assert.ElementsMatch(t, []string{"feed1-a", "feed3-c"}, guids)

	require.Len(t, feedErrors, 1)
	assert.Equal(t, f2.ID, feedErrors[0].FeedID)
	assert.Equal(t, KindFetchFailed, feedErrors[0].Kind)

	var stored models.Feed
	require.NoError(t, db.First(&stored, f2.ID).Error)
	assert.Nil(t, stored.LastFetchedAt, "failed feed's lastFetchedAt must be unchanged")

	var stored1 models.Feed
	require.NoError(t, db.First(&stored1, f1.ID).Error)
	assert.NotNil(t, stored1.LastFetchedAt)
}

func TestRefreshReportsParseFailures(t *testing.T) {
	db := newTestDB(t)
	srv := serveXML(t, "definitely not xml")
	f := createFeed(t, db, srv.URL)

	items, feedErrors, err := Refresh(context.Background(), db, []models.Feed{f}, Options{})
	require.NoError(t, err)
	assert.Empty(t, items)
	require.Len(t, feedErrors, 1)
	assert.Equal(t, KindParseFailed, feedErrors[0].Kind)
}

func TestUpsertItemFullReplace(t *testing.T) {
	db := newTestDB(t)
	f := createFeed(t, db, "http://example.com/feed")

	img := "http://x/a.jpg"
	first := models.FeedItem{
		FeedID:     f.ID,
		GUID:       "guid-1",
		Title:      "v1",
		ImageURL:   &img,
		PubDate:    time.Date(2026, 7, 27, 10, 0, 0, 0, time.UTC),
		Categories: []string{"tech"},
	}
	stored, err := UpsertItem(db, first)
	require.NoError(t, err)

	second := models.FeedItem{
		FeedID:     f.ID,
		GUID:       "guid-1",
		Title:      "v2",
		PubDate:    time.Date(2026, 7, 28, 10, 0, 0, 0, time.UTC),
		Categories: []string{},
	}
	replaced, err := UpsertItem(db, second)
	require.NoError(t, err)

	assert.Equal(t, stored.ID, replaced.ID, "same guid keeps the same row")
	assert.Equal(t, "v2", replaced.Title)
	assert.Nil(t, replaced.ImageURL, "replace is full-field, not a merge")
	assert.Empty(t, replaced.Categories)
}
