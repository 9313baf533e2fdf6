package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jlin-dev/feedstream/models"
)

// Options tune one refresh run.
type Options struct {
	Timeout      time.Duration // per-feed fetch budget
	Concurrency  int           // max feeds in flight
	MaxFeedBytes int64         // response body cap per feed
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 8
	}
	if o.MaxFeedBytes <= 0 {
		o.MaxFeedBytes = 5 << 20
	}
	return o
}

type feedResult struct {
	items    []models.FeedItem
	feedErr  *FeedError
	storeErr error
}

// Refresh fetches every given feed concurrently, normalizes the entries and
// upserts them into the item store keyed by guid. Each feed runs under its
// own timeout; one feed failing to fetch or parse never aborts, delays or
// corrupts the others — its failure is logged, reported in the returned
// FeedError slice and its LastFetchedAt is left unchanged. Refresh returns
// the items touched in this run sorted newest first (ties keep insertion
// order).
//
// A store write failure is different: the persistence layer being unavailable
// is unrecoverable, so it fails the whole refresh.
func Refresh(ctx context.Context, db *gorm.DB, feeds []models.Feed, opts Options) ([]models.FeedItem, []FeedError, error) {
	opts = opts.withDefaults()

	results := make(chan feedResult, len(feeds))
	sem := make(chan struct{}, opts.Concurrency)
	var wg sync.WaitGroup

	for _, f := range feeds {
		wg.Add(1)
		sem <- struct{}{}
		go func(f models.Feed) {
			defer wg.Done()
			defer func() { <-sem }()
			results <- refreshOne(ctx, db, f, opts)
		}(f)
	}

	// Barrier: every feed is attempted before the refresh reports anything.
	go func() {
		wg.Wait()
		close(results)
	}()

	var items []models.FeedItem
	var feedErrors []FeedError
	var storeErr error

	for res := range results {
		items = append(items, res.items...)
		if res.feedErr != nil {
			feedErrors = append(feedErrors, *res.feedErr)
		}
		if res.storeErr != nil && storeErr == nil {
			storeErr = res.storeErr
		}
	}

	if storeErr != nil {
		return nil, nil, storeErr
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PubDate.After(items[j].PubDate)
	})

	return items, feedErrors, nil
}

func refreshOne(ctx context.Context, db *gorm.DB, f models.Feed, opts Options) feedResult {
	fctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	parsed, err := Fetch(fctx, f.URL, opts.MaxFeedBytes)
	if err != nil {
		kind := KindFetchFailed
		if errors.Is(err, ErrFeedParseFailed) {
			kind = KindParseFailed
		}
		log.Printf("Error refreshing feed %s: %v", f.URL, err)
		return feedResult{feedErr: &FeedError{FeedID: f.ID, Kind: kind}}
	}

	now := time.Now().UTC()
	items := make([]models.FeedItem, 0, len(parsed.Items))

	// Entries are normalized and upserted in document order.
	for _, entry := range parsed.Items {
		item, ok := Normalize(f.ID, entry, now)
		if !ok {
			continue
		}
		stored, err := UpsertItem(db, item)
		if err != nil {
			return feedResult{storeErr: err}
		}
		items = append(items, stored)
	}

	fetchedAt := time.Now().UTC()
	if err := db.Model(&models.Feed{}).Where("id = ?", f.ID).
		Update("last_fetched_at", &fetchedAt).Error; err != nil {
		return feedResult{storeErr: fmt.Errorf("%w: update last_fetched_at: %v", ErrStoreWriteFailed, err)}
	}

	log.Printf("Refreshed feed %s: %d entries", f.URL, len(items))
	return feedResult{items: items}
}

// UpsertItem writes one item keyed by its guid: insert when absent, full
// field replace when present. Last write wins; the write is idempotent, so
// overlapping refreshes converge to the same stored state.
func UpsertItem(db *gorm.DB, item models.FeedItem) (models.FeedItem, error) {
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "guid"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"feed_id", "title", "link", "description", "content",
			"pub_date", "image_url", "categories", "updated_at",
		}),
	}).Create(&item).Error
	if err != nil {
		return models.FeedItem{}, fmt.Errorf("%w: upsert item %s: %v", ErrStoreWriteFailed, item.GUID, err)
	}

	var stored models.FeedItem
	if err := db.Where("guid = ?", item.GUID).First(&stored).Error; err != nil {
		return models.FeedItem{}, fmt.Errorf("%w: reload item %s: %v", ErrStoreWriteFailed, item.GUID, err)
	}
	return stored, nil
}
