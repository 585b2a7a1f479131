package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SecurityBriefing/internal/domain"
	"SecurityBriefing/internal/infrastructure/server"
	"SecurityBriefing/internal/usecase"
)

const testSecret = "test-secret"

type fakeCollector struct {
	items []domain.Item
}

func (f *fakeCollector) Collect(context.Context, []domain.FeedSource) ([]domain.Item, domain.CollectStats) {
	return f.items, domain.CollectStats{Accepted: len(f.items)}
}

type fakeGenerator struct {
	text  string
	calls int
}

func (f *fakeGenerator) Generate(context.Context, string, string) (string, error) {
	f.calls++
	return f.text, nil
}

type fakeRepository struct {
	docs map[string]domain.Briefing
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{docs: map[string]domain.Briefing{}}
}

func (f *fakeRepository) Upsert(_ context.Context, date time.Time, html string) (domain.Briefing, error) {
	key := date.Format("2006-01-02")
	stored := domain.Briefing{ID: int64(len(f.docs) + 1), BriefingDate: date, ContentHTML: html, CreatedAt: time.Now()}
	if existing, ok := f.docs[key]; ok {
		existing.ContentHTML = html
		stored = existing
	}
	f.docs[key] = stored
	return stored, nil
}

func (f *fakeRepository) GetByDate(_ context.Context, date time.Time) (domain.Briefing, error) {
	if found, ok := f.docs[date.Format("2006-01-02")]; ok {
		return found, nil
	}
	return domain.Briefing{}, domain.ErrNotFound
}

func (f *fakeRepository) List(context.Context, domain.ListFilter) ([]domain.Briefing, error) {
	var all []domain.Briefing
	for _, briefing := range f.docs {
		all = append(all, briefing)
	}
	return all, nil
}

func (f *fakeRepository) CountLikes(context.Context, int64) (int, error) {
	return 2, nil
}

func newTestServer(t *testing.T, generator *fakeGenerator, repo *fakeRepository) http.Handler {
	t.Helper()

	ts := time.Now().Add(-time.Hour)
	collector := &fakeCollector{items: []domain.Item{{
		Source:      "s",
		Title:       "t",
		Link:        "https://example.org/a",
		PublishedAt: &ts,
		Content:     strings.Repeat("a", 100),
	}}}

	briefing := usecase.NewBriefing(usecase.BriefingDeps{
		Collector:       collector,
		Generator:       generator,
		Repository:      repo,
		Sources:         []domain.FeedSource{{URL: "https://feed"}},
		Model:           "test-model",
		MaxContentChars: 4000,
		Location:        time.UTC,
	})

	auth := server.NewAuthMiddleware(testSecret, nil)
	return server.New(briefing, auth, nil).Handler()
}

func signToken(t *testing.T, role string) string {
	t.Helper()

	claims := server.UserClaims{
		Email: "ops@example.org",
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestRunBriefingRequiresToken(t *testing.T) {
	t.Parallel()

	generator := &fakeGenerator{text: "<article>ok</article>"}
	handler := newTestServer(t, generator, newFakeRepository())

	req := httptest.NewRequest(http.MethodPost, "/internal/briefing/run", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, generator.calls)
}

func TestRunBriefingRejectsNonAdmin(t *testing.T) {
	t.Parallel()

	generator := &fakeGenerator{text: "<article>ok</article>"}
	handler := newTestServer(t, generator, newFakeRepository())

	req := httptest.NewRequest(http.MethodPost, "/internal/briefing/run", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, generator.calls)
}

func TestRunBriefingAsAdmin(t *testing.T) {
	t.Parallel()

	generator := &fakeGenerator{text: "<article>briefing</article>"}
	repo := newFakeRepository()
	handler := newTestServer(t, generator, repo)

	req := httptest.NewRequest(http.MethodPost, "/internal/briefing/run", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "admin"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var view domain.BriefingView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "<article>briefing</article>", view.ContentHTML)
	assert.Equal(t, 2, view.LikeCount)
	assert.Len(t, repo.docs, 1)
}

func TestRunBriefingRejectsForgedToken(t *testing.T) {
	t.Parallel()

	generator := &fakeGenerator{text: "<article>ok</article>"}
	handler := newTestServer(t, generator, newFakeRepository())

	claims := server.UserClaims{Role: "admin"}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/internal/briefing/run", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, generator.calls)
}

func TestGetBriefingByDate(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	day := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)
	_, err := repo.Upsert(context.Background(), day, "<article>stored</article>")
	require.NoError(t, err)

	handler := newTestServer(t, &fakeGenerator{}, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/news/2026-08-31", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var view domain.BriefingView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "2026-08-31", view.BriefingDate)
	assert.Equal(t, "<article>stored</article>", view.ContentHTML)
}

func TestGetBriefingUnknownDateIs404(t *testing.T) {
	t.Parallel()

	handler := newTestServer(t, &fakeGenerator{}, newFakeRepository())

	req := httptest.NewRequest(http.MethodGet, "/api/news/2026-01-01", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetBriefingRejectsMalformedDate(t *testing.T) {
	t.Parallel()

	handler := newTestServer(t, &fakeGenerator{}, newFakeRepository())

	req := httptest.NewRequest(http.MethodGet, "/api/news/yesterday", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListBriefingsRejectsBadRange(t *testing.T) {
	t.Parallel()

	handler := newTestServer(t, &fakeGenerator{}, newFakeRepository())

	req := httptest.NewRequest(http.MethodGet, "/api/news?from=not-a-date", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListBriefings(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	day := time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC)
	_, err := repo.Upsert(context.Background(), day, "<article>old</article>")
	require.NoError(t, err)

	handler := newTestServer(t, &fakeGenerator{}, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/news", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var views []domain.BriefingView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "2026-08-30", views[0].BriefingDate)
}
