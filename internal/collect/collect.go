package collect

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"SecurityBriefing/internal/domain"
	"SecurityBriefing/internal/ports"
)

// Options bound resource use during one collection run.
type Options struct {
	Lookback        time.Duration
	MinContentChars int
	MaxItemsPerFeed int
	MaxTotalItems   int
	Concurrency     int
}

// Collector fetches all registered sources, normalizes their entries, and
// applies the recency, quality, and dedup filters.
type Collector struct {
	fetcher ports.FeedFetcher
	opts    Options
	logger  *slog.Logger
	now     func() time.Time
}

var _ ports.ItemCollector = (*Collector)(nil)

// NewCollector wires a feed fetcher with run bounds.
func NewCollector(fetcher ports.FeedFetcher, opts Options, logger *slog.Logger) *Collector {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Collector{fetcher: fetcher, opts: opts, logger: logger, now: time.Now}
}

type fetchResult struct {
	feed    *gofeed.Feed
	err     error
	elapsed time.Duration
}

// Collect runs the fetch and filter stages for the whole registry and returns
// the surviving items sorted by publish time, newest first.
//
// Sources are fetched concurrently under a bounded group, but filtering and
// dedup happen afterwards in registry order so the result is deterministic.
func (c *Collector) Collect(ctx context.Context, sources []domain.FeedSource) ([]domain.Item, domain.CollectStats) {
	start := c.now()
	cutoff := start.Add(-c.opts.Lookback)

	results := c.fetchAll(ctx, sources)

	var stats domain.CollectStats
	items := make([]domain.Item, 0)
	seenLinks := make(map[string]struct{})

	for i, src := range sources {
		res := results[i]
		if res.err != nil {
			stats.FeedsFailed++
			c.warn("feed fetch failed", "url", src.URL, "elapsed_ms", res.elapsed.Milliseconds(), "error", res.err)
			continue
		}
		stats.FeedsOK++

		source := strings.TrimSpace(res.feed.Title)
		if source == "" {
			source = src.URL
		}

		scanned := 0
		added := 0
		for _, entry := range res.feed.Items {
			scanned++

			norm := Normalize(source, entry)
			if norm == nil {
				stats.SkippedEmpty++
				continue
			}

			if norm.PublishedAt == nil {
				stats.SkippedNoDate++
				continue
			}
			if norm.PublishedAt.Before(cutoff) {
				stats.SkippedOld++
				continue
			}

			if utf8.RuneCountInString(norm.Content) < c.opts.MinContentChars {
				stats.SkippedEmpty++
				continue
			}

			if norm.Link != "" {
				if _, dup := seenLinks[norm.Link]; dup {
					stats.SkippedDup++
					continue
				}
				seenLinks[norm.Link] = struct{}{}
			}

			items = append(items, *norm)
			added++

			if added >= c.opts.MaxItemsPerFeed {
				break
			}
			if len(items) >= c.opts.MaxTotalItems {
				break
			}
		}

		c.info("feed processed", "source", source, "url", src.URL,
			"scanned", scanned, "added", added, "elapsed_ms", res.elapsed.Milliseconds())

		if len(items) >= c.opts.MaxTotalItems {
			c.warn("reached global item cap, stop collecting", "cap", c.opts.MaxTotalItems)
			break
		}
	}

	sortItems(items)

	if len(items) > c.opts.MaxTotalItems {
		items = items[:c.opts.MaxTotalItems]
	}
	stats.Accepted = len(items)

	c.info("collection done",
		"feeds_ok", stats.FeedsOK, "feeds_failed", stats.FeedsFailed, "total", stats.Accepted,
		"skipped_old", stats.SkippedOld, "skipped_dup", stats.SkippedDup,
		"skipped_no_date", stats.SkippedNoDate, "skipped_empty", stats.SkippedEmpty,
		"elapsed_ms", c.now().Sub(start).Milliseconds())

	return items, stats
}

// fetchAll retrieves every source under a bounded concurrency limit. Each
// source fails independently; errors are joined into the result slice.
func (c *Collector) fetchAll(ctx context.Context, sources []domain.FeedSource) []fetchResult {
	results := make([]fetchResult, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for i, src := range sources {
		g.Go(func() error {
			t0 := time.Now()
			feed, err := c.fetcher.Fetch(gctx, src.URL)
			results[i] = fetchResult{feed: feed, err: err, elapsed: time.Since(t0)}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// sortItems orders by publish time descending; undated items sort last.
// Insertion order is preserved for equal timestamps.
func sortItems(items []domain.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].PublishedAt, items[j].PublishedAt
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})
}

func (c *Collector) info(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Collector) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
