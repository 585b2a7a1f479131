package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"SecurityBriefing/internal/domain"
	"SecurityBriefing/internal/ports"
	"SecurityBriefing/internal/prompt"
)

// BriefingDeps wires all driven adapters into the generation pipeline.
type BriefingDeps struct {
	Collector  ports.ItemCollector
	Generator  ports.TextGenerator
	Repository ports.BriefingRepository
	Sources    []domain.FeedSource
	Model      string
	// MaxContentChars bounds each item's content inside the prompt.
	MaxContentChars int
	Location        *time.Location
	Logger          *slog.Logger
}

// Briefing implements the daily briefing workflow: collect, prompt, generate,
// persist. Both the scheduled and the manual trigger go through it.
type Briefing struct {
	collector       ports.ItemCollector
	generator       ports.TextGenerator
	repository      ports.BriefingRepository
	sources         []domain.FeedSource
	model           string
	maxContentChars int
	location        *time.Location
	logger          *slog.Logger
	now             func() time.Time

	mu       sync.Mutex
	runLocks map[string]*sync.Mutex
}

// NewBriefing constructs the orchestration component.
func NewBriefing(deps BriefingDeps) *Briefing {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Briefing{
		collector:       deps.Collector,
		generator:       deps.Generator,
		repository:      deps.Repository,
		sources:         deps.Sources,
		model:           deps.Model,
		maxContentChars: deps.MaxContentChars,
		location:        loc,
		logger:          deps.Logger,
		now:             time.Now,
		runLocks:        map[string]*sync.Mutex{},
	}
}

// GenerateToday runs the pipeline for the current calendar date in the
// configured timezone and upserts the resulting document.
func (b *Briefing) GenerateToday(ctx context.Context) (domain.BriefingView, error) {
	now := b.now().In(b.location)
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return b.GenerateForDate(ctx, date)
}

// GenerateForDate runs the full pipeline for one calendar date. Concurrent
// runs for the same date are serialized; the date-keyed upsert keeps the
// one-row-per-date invariant even across processes.
func (b *Briefing) GenerateForDate(ctx context.Context, date time.Time) (domain.BriefingView, error) {
	lock := b.lockFor(date)
	lock.Lock()
	defer lock.Unlock()

	start := b.now()
	b.info("briefing run start", "date", date.Format("2006-01-02"), "model", b.model, "sources", len(b.sources))

	html, err := b.generateHTML(ctx)
	if err != nil {
		return domain.BriefingView{}, err
	}

	saved, err := b.repository.Upsert(ctx, date, html)
	if err != nil {
		return domain.BriefingView{}, fmt.Errorf("persist briefing: %w", err)
	}

	b.info("briefing run done", "id", saved.ID, "date", saved.BriefingDate.Format("2006-01-02"),
		"html_chars", len(saved.ContentHTML), "sentinel", prompt.IsSentinel(saved.ContentHTML),
		"elapsed_ms", b.now().Sub(start).Milliseconds())

	return b.view(ctx, saved)
}

// generateHTML produces the document body. Only a generator failure aborts
// the run; empty aggregation and a blank response both degrade to a sentinel.
func (b *Briefing) generateHTML(ctx context.Context) (string, error) {
	items, stats := b.collector.Collect(ctx, b.sources)
	if len(items) == 0 {
		b.warn("no items collected, skipping generation", "feeds_failed", stats.FeedsFailed)
		return prompt.SentinelNoItems, nil
	}

	p := prompt.Build(items, b.maxContentChars)
	b.info("prompt built", "items", len(items), "prompt_chars", len(p))

	text, err := b.generator.Generate(ctx, b.model, p)
	if err != nil {
		return "", fmt.Errorf("generate briefing: %w", err)
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		b.warn("generator returned empty text, using sentinel")
		return prompt.SentinelEmptyResponse, nil
	}
	return trimmed, nil
}

// List returns briefings matching the filter, newest date first.
func (b *Briefing) List(ctx context.Context, filter domain.ListFilter) ([]domain.BriefingView, error) {
	found, err := b.repository.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list briefings: %w", err)
	}

	views := make([]domain.BriefingView, 0, len(found))
	for _, briefing := range found {
		view, err := b.view(ctx, briefing)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// GetByDate returns the briefing for one exact calendar date.
func (b *Briefing) GetByDate(ctx context.Context, date time.Time) (domain.BriefingView, error) {
	found, err := b.repository.GetByDate(ctx, date)
	if err != nil {
		return domain.BriefingView{}, err
	}
	return b.view(ctx, found)
}

func (b *Briefing) view(ctx context.Context, briefing domain.Briefing) (domain.BriefingView, error) {
	likes, err := b.repository.CountLikes(ctx, briefing.ID)
	if err != nil {
		return domain.BriefingView{}, fmt.Errorf("count likes: %w", err)
	}
	return briefing.View(likes), nil
}

func (b *Briefing) lockFor(date time.Time) *sync.Mutex {
	key := date.Format("2006-01-02")

	b.mu.Lock()
	defer b.mu.Unlock()
	lock, ok := b.runLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		b.runLocks[key] = lock
	}
	return lock
}

func (b *Briefing) info(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Info(msg, args...)
	}
}

func (b *Briefing) warn(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, args...)
	}
}
