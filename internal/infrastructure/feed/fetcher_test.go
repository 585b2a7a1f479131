package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Sample Feed</title>
    <item>
      <title>Entry</title>
      <link>https://example.org/entry</link>
      <pubDate>Sun, 30 Aug 2026 10:00:00 GMT</pubDate>
      <description>body</description>
    </item>
  </channel>
</rss>`

func testOptions() Options {
	return Options{
		ConnectTimeout: 2 * time.Second,
		ReadTimeout:    5 * time.Second,
		Retries:        2,
		RetryBackoff:   time.Millisecond,
	}
}

func TestFetchSendsBrowserHeaders(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Mozilla/5.0") {
			t.Errorf("unexpected user agent: %q", ua)
		}
		if accept := r.Header.Get("Accept"); !strings.Contains(accept, "application/rss+xml") {
			t.Errorf("unexpected accept header: %q", accept)
		}
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer server.Close()

	f := NewFetcher(testOptions(), nil)
	feed, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if feed.Title != "Sample Feed" {
		t.Fatalf("unexpected feed title: %q", feed.Title)
	}
	if len(feed.Items) != 1 || feed.Items[0].Link != "https://example.org/entry" {
		t.Fatalf("unexpected items: %+v", feed.Items)
	}
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer server.Close()

	f := NewFetcher(testOptions(), nil)
	feed, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected recovery after retries, got %v", err)
	}
	if feed.Title != "Sample Feed" {
		t.Fatalf("unexpected feed title: %q", feed.Title)
	}
	if got := hits.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestFetchGivesUpAfterRetries(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	f := NewFetcher(testOptions(), nil)
	if _, err := f.Fetch(context.Background(), server.URL); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if got := hits.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestFetchRejectsUnparsableBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not a feed"))
	}))
	defer server.Close()

	f := NewFetcher(testOptions(), nil)
	if _, err := f.Fetch(context.Background(), server.URL); err == nil {
		t.Fatal("expected parse error")
	}
}
