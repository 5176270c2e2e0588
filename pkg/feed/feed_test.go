package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func rssDoc(now time.Time) string {
	fresh := now.Add(-2 * time.Hour).Format(time.RFC1123Z)
	stale := now.Add(-48 * time.Hour).Format(time.RFC1123Z)
	items := fmt.Sprintf(`
		<item><title>Frisch</title><link>https://example.org/a</link><pubDate>%s</pubDate></item>
		<item><title>Alt</title><link>https://example.org/b</link><pubDate>%s</pubDate></item>`, fresh, stale)
	for i := 0; i < 15; i++ {
		ts := now.Add(-time.Duration(i+3) * time.Hour).Format(time.RFC1123Z)
		items += fmt.Sprintf(`
		<item><title>Nr %d</title><link>https://example.org/%d</link><pubDate>%s</pubDate></item>`, i, i, ts)
	}
	return `<?xml version="1.0"?><rss version="2.0"><channel><title>Test</title>` + items + `</channel></rss>`
}

func TestFetcher_LatestFiltersAndCaps(t *testing.T) {
	now := time.Now()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssDoc(now))
	}))
	defer srv.Close()

	f := NewFetcher()
	f.now = func() time.Time { return now }

	items, err := f.Latest(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != maxItems {
		t.Fatalf("expected %d items, got %d", maxItems, len(items))
	}
	if items[0].Title != "Frisch" {
		t.Fatalf("expected newest item first, got %q", items[0].Title)
	}
	for _, it := range items {
		if it.Title == "Alt" {
			t.Fatal("items older than a day must be filtered out")
		}
	}
}

func TestFetcher_LatestUnreachableFeed(t *testing.T) {
	f := NewFetcher()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := f.Latest(ctx, "http://127.0.0.1:1/feed.xml"); err == nil {
		t.Fatal("expected error for unreachable feed")
	}
}
