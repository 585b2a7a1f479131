package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"SecurityBriefing/internal/domain"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestUpsertReturnsPersistedRow(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewPostgresRepository(mock)

	date := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)
	created := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO news_briefings (briefing_date, content_html)")).
		WithArgs(date, "<article>x</article>").
		WillReturnRows(pgxmock.NewRows([]string{"id", "briefing_date", "content_html", "created_at"}).
			AddRow(int64(7), date, "<article>x</article>", created))

	briefing, err := repo.Upsert(context.Background(), date, "<article>x</article>")
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if briefing.ID != 7 || briefing.ContentHTML != "<article>x</article>" {
		t.Fatalf("unexpected briefing: %+v", briefing)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetByDateNotFound(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewPostgresRepository(mock)

	date := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, briefing_date, content_html, created_at").
		WithArgs(date).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByDate(context.Background(), date)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListAppliesSubstringFilter(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewPostgresRepository(mock)

	date := time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC)
	created := time.Now()

	mock.ExpectQuery("SELECT id, briefing_date, content_html, created_at FROM news_briefings WHERE content_html ILIKE .+ ORDER BY briefing_date DESC").
		WithArgs("%ransomware%").
		WillReturnRows(pgxmock.NewRows([]string{"id", "briefing_date", "content_html", "created_at"}).
			AddRow(int64(3), date, "<article>ransomware</article>", created))

	found, err := repo.List(context.Background(), domain.ListFilter{Query: "ransomware"})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(found) != 1 || found[0].ID != 3 {
		t.Fatalf("unexpected result: %+v", found)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListAppliesDateBounds(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewPostgresRepository(mock)

	from := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, briefing_date, content_html, created_at FROM news_briefings WHERE briefing_date >= .+ AND briefing_date <= .+ ORDER BY briefing_date DESC").
		WithArgs(from, to).
		WillReturnRows(pgxmock.NewRows([]string{"id", "briefing_date", "content_html", "created_at"}))

	found, err := repo.List(context.Background(), domain.ListFilter{From: &from, To: &to})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(found) != 0 {
		t.Fatalf("expected empty result, got %+v", found)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCountLikes(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewPostgresRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM news_likes WHERE briefing_id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountLikes(context.Background(), 7)
	if err != nil {
		t.Fatalf("CountLikes error: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4 likes, got %d", count)
	}
}
