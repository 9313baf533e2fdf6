package feed

import "errors"

// Sentinel errors for the ingestion pipeline. Fetch and parse failures are
// scoped to a single feed and recovered by the refresh orchestrator; a store
// write failure aborts the whole refresh.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrFeedFetchFailed  = errors.New("feed fetch failed")
	ErrFeedParseFailed  = errors.New("feed parse failed")
	ErrStoreWriteFailed = errors.New("store write failed")
)

const (
	KindFetchFailed = "fetch_failed"
	KindParseFailed = "parse_failed"
)

// FeedError reports one feed's failure during a refresh without failing the
// refresh itself.
type FeedError struct {
	FeedID uint   `json:"feedId"`
	Kind   string `json:"errorKind"`
}
