package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned by repositories when no row matches the lookup key.
var ErrNotFound = errors.New("not found")

// FeedSource is one external RSS/Atom endpoint. Registry order is iteration order.
type FeedSource struct {
	URL string
}

// Item is the canonical, cleaned representation of one feed entry.
// Content is always plain text (tags stripped, whitespace collapsed).
type Item struct {
	Source      string
	Title       string
	Link        string
	PublishedAt *time.Time
	Content     string
}

// Briefing is the persisted document: one row per calendar date.
type Briefing struct {
	ID           int64
	BriefingDate time.Time
	ContentHTML  string
	CreatedAt    time.Time
}

// BriefingView is the outward representation, enriched with the like count.
type BriefingView struct {
	ID           int64     `json:"id"`
	BriefingDate string    `json:"briefingDate"`
	ContentHTML  string    `json:"contentHtml"`
	CreatedAt    time.Time `json:"createdAt"`
	LikeCount    int       `json:"likeCount"`
}

// View serializes a briefing for API responses.
func (b Briefing) View(likeCount int) BriefingView {
	return BriefingView{
		ID:           b.ID,
		BriefingDate: b.BriefingDate.Format("2006-01-02"),
		ContentHTML:  b.ContentHTML,
		CreatedAt:    b.CreatedAt,
		LikeCount:    likeCount,
	}
}

// ListFilter narrows the briefing list query. Zero values mean "no bound".
type ListFilter struct {
	From  *time.Time
	To    *time.Time
	Query string
}

// CollectStats carries the per-run aggregation counters for logging and tests.
type CollectStats struct {
	FeedsOK       int
	FeedsFailed   int
	Accepted      int
	SkippedOld    int
	SkippedDup    int
	SkippedNoDate int
	SkippedEmpty  int
}
