package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

var parser = gofeed.NewParser()

// Fetch retrieves one remote feed document and parses it into gofeed's
// normalized form. The caller bounds the request with ctx; maxBytes caps how
// much of the response body is read.
//
// A network error, non-success status or read error wraps ErrFeedFetchFailed;
// a malformed document wraps ErrFeedParseFailed. Failures are always for the
// whole feed — entries inside a successfully parsed document never fail
// individually.
func Fetch(ctx context.Context, url string, maxBytes int64) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFeedFetchFailed, url, err)
	}
	req.Header.Set("User-Agent", "feedstream/1.0")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFeedFetchFailed, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: %s: unexpected status %d", ErrFeedFetchFailed, url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFeedFetchFailed, url, err)
	}

	parsed, err := parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFeedParseFailed, url, err)
	}

	return parsed, nil
}
