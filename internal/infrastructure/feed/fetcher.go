package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"SecurityBriefing/internal/ports"
)

const (
	// Browser-like headers reduce source-side rejection of the fetcher.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	acceptHeader = "application/rss+xml, application/xml;q=0.9, */*;q=0.8"
)

// Options configures timeouts and the retry policy of a Fetcher.
type Options struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	Retries        int
	RetryBackoff   time.Duration
}

// Fetcher retrieves and parses one RSS/Atom feed with bounded retry.
type Fetcher struct {
	client  *http.Client
	retries int
	backoff time.Duration
	logger  *slog.Logger
}

var _ ports.FeedFetcher = (*Fetcher)(nil)

// NewFetcher builds a fetcher with a dedicated HTTP client enforcing the
// connect and read timeouts.
func NewFetcher(opts Options, logger *slog.Logger) *Fetcher {
	dialer := &net.Dialer{Timeout: opts.ConnectTimeout}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: opts.ConnectTimeout,
	}
	return &Fetcher{
		client: &http.Client{
			Timeout:   opts.ReadTimeout,
			Transport: transport,
		},
		retries: opts.Retries,
		backoff: opts.RetryBackoff,
		logger:  logger,
	}
}

// Fetch downloads and parses the feed, retrying failed attempts with linear
// backoff before giving up. Backoff sleeps are blocking, matching the
// sequential retry contract.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	var last error
	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * f.backoff)
			if f.logger != nil {
				f.logger.Debug("retrying feed fetch", "attempt", attempt, "url", url)
			}
		}

		feed, err := f.fetchOnce(ctx, url)
		if err == nil {
			return feed, nil
		}
		last = err
	}
	return nil, last
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	return feed, nil
}
