// Package feed pulls news headlines from RSS and Atom sources.
package feed

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const (
	maxItems = 10
	maxAge   = 24 * time.Hour
)

// Item is one headline ready for a chat message.
type Item struct {
	Title     string
	Link      string
	Published time.Time
}

type Fetcher struct {
	parser *gofeed.Parser
	now    func() time.Time
}

func NewFetcher() *Fetcher {
	return &Fetcher{parser: gofeed.NewParser(), now: time.Now}
}

// Latest returns the feed's items from the last day, newest first, capped so
// a single reply stays readable.
func (f *Fetcher) Latest(ctx context.Context, url string) ([]Item, error) {
	parsed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", url, err)
	}

	cutoff := f.now().Add(-maxAge)
	var items []Item
	for _, it := range parsed.Items {
		published := it.PublishedParsed
		if published == nil {
			published = it.UpdatedParsed
		}
		if published == nil || published.Before(cutoff) {
			continue
		}
		items = append(items, Item{
			Title:     strings.TrimSpace(it.Title),
			Link:      it.Link,
			Published: *published,
		})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Published.After(items[j].Published) })
	if len(items) > maxItems {
		items = items[:maxItems]
	}
	return items, nil
}
