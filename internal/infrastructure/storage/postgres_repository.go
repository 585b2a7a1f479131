package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"SecurityBriefing/internal/domain"
	"SecurityBriefing/internal/ports"
)

// Querier is the subset of pgxpool.Pool the repository needs. It is also
// satisfied by pgxmock pools in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository persists briefing documents, one row per calendar date.
type PostgresRepository struct {
	db Querier
}

var _ ports.BriefingRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a pgx pool (or a compatible mock).
func NewPostgresRepository(db Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const upsertQuery = `INSERT INTO news_briefings (briefing_date, content_html)
VALUES ($1, $2)
ON CONFLICT (briefing_date) DO UPDATE
SET content_html = EXCLUDED.content_html
RETURNING id, briefing_date, content_html, created_at`

// Upsert writes the document for one date in a single atomic statement.
// The unique index on briefing_date makes concurrent runs safe: the second
// writer updates in place instead of inserting a duplicate.
func (r *PostgresRepository) Upsert(ctx context.Context, date time.Time, html string) (domain.Briefing, error) {
	if r == nil || r.db == nil {
		return domain.Briefing{}, errors.New("database connection not available")
	}

	var briefing domain.Briefing
	err := r.db.QueryRow(ctx, upsertQuery, date, html).Scan(
		&briefing.ID,
		&briefing.BriefingDate,
		&briefing.ContentHTML,
		&briefing.CreatedAt,
	)
	if err != nil {
		return domain.Briefing{}, fmt.Errorf("upsert briefing: %w", err)
	}

	return briefing, nil
}

// GetByDate fetches the document for one exact calendar date.
func (r *PostgresRepository) GetByDate(ctx context.Context, date time.Time) (domain.Briefing, error) {
	if r == nil || r.db == nil {
		return domain.Briefing{}, errors.New("database connection not available")
	}

	query := `SELECT id, briefing_date, content_html, created_at
FROM news_briefings
WHERE briefing_date = $1`

	var briefing domain.Briefing
	err := r.db.QueryRow(ctx, query, date).Scan(
		&briefing.ID,
		&briefing.BriefingDate,
		&briefing.ContentHTML,
		&briefing.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Briefing{}, domain.ErrNotFound
		}
		return domain.Briefing{}, fmt.Errorf("fetch briefing by date: %w", err)
	}

	return briefing, nil
}

// List returns briefings matching the filter, newest date first. The filter
// is assembled dynamically: optional date bounds and a case-insensitive
// substring match against the stored HTML.
func (r *PostgresRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Briefing, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("database connection not available")
	}

	builder := sq.Select("id", "briefing_date", "content_html", "created_at").
		From("news_briefings").
		OrderBy("briefing_date DESC").
		PlaceholderFormat(sq.Dollar)

	if filter.From != nil {
		builder = builder.Where(sq.GtOrEq{"briefing_date": *filter.From})
	}
	if filter.To != nil {
		builder = builder.Where(sq.LtOrEq{"briefing_date": *filter.To})
	}
	if q := filter.Query; q != "" {
		builder = builder.Where(sq.ILike{"content_html": "%" + q + "%"})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list briefings: %w", err)
	}
	defer rows.Close()

	var briefings []domain.Briefing
	for rows.Next() {
		var briefing domain.Briefing
		if err := rows.Scan(&briefing.ID, &briefing.BriefingDate, &briefing.ContentHTML, &briefing.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan briefing: %w", err)
		}
		briefings = append(briefings, briefing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return briefings, nil
}

// CountLikes returns the engagement count for one briefing.
func (r *PostgresRepository) CountLikes(ctx context.Context, briefingID int64) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("database connection not available")
	}

	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM news_likes WHERE briefing_id = $1`, briefingID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}

	return count, nil
}
