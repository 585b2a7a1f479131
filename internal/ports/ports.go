package ports

import (
	"context"
	"time"

	"github.com/mmcdole/gofeed"

	"SecurityBriefing/internal/domain"
)

// FeedFetcher retrieves and parses a single feed endpoint.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (*gofeed.Feed, error)
}

// ItemCollector runs the fetch/normalize/filter stages for the whole registry.
type ItemCollector interface {
	Collect(ctx context.Context, sources []domain.FeedSource) ([]domain.Item, domain.CollectStats)
}

// TextGenerator sends a prompt to the generative backend and returns raw text.
type TextGenerator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// BriefingRepository persists briefing documents keyed by calendar date.
type BriefingRepository interface {
	Upsert(ctx context.Context, date time.Time, html string) (domain.Briefing, error)
	GetByDate(ctx context.Context, date time.Time) (domain.Briefing, error)
	List(ctx context.Context, filter domain.ListFilter) ([]domain.Briefing, error)
	CountLikes(ctx context.Context, briefingID int64) (int, error)
}

// Scheduler controls when the daily briefing run executes.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
