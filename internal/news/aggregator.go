package news

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"beegate/internal/observability/logging"
	"beegate/internal/observability/metrics"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"
)

const (
	maxConcurrentFetches = 4
	maxFeedBody          = 8 << 20
	userAgent            = "beegate-news/1.0"
)

// Filter narrows the aggregated list. Zero values do not filter.
type Filter struct {
	Query string
	Topic Topic
	Type  Type
	Limit int
}

// Aggregator fetches enabled sources concurrently and caches the merged list
type Aggregator struct {
	sources []Source
	cache   Cache
	client  *http.Client
	logger  *logging.Logger
	metrics *metrics.Collector
	now     func() time.Time
}

// NewAggregator creates an aggregator over the enabled subset of sources
func NewAggregator(sources []Source, cache Cache, transport http.RoundTripper, logger *logging.Logger, metricsCollector *metrics.Collector) *Aggregator {
	return &Aggregator{
		sources: Enabled(sources),
		cache:   cache,
		client:  &http.Client{Transport: transport, Timeout: 30 * time.Second},
		logger:  logger.WithModule("news"),
		metrics: metricsCollector,
		now:     time.Now,
	}
}

// Sources returns the enabled sources
func (a *Aggregator) Sources() []Source {
	return a.sources
}

// All returns the merged item list, newest first, from cache when fresh
func (a *Aggregator) All(ctx context.Context) ([]Item, error) {
	logger := logging.FromContextOr(ctx, a.logger)

	entry, ok, err := a.cache.Get(ctx, AllKey)
	if err != nil {
		logger.Warn("News cache unavailable, fetching directly", logging.Err(err))
	}
	a.metrics.RecordNewsCache(ok)
	if ok {
		logger.Debug("Returning cached news", "items", len(entry.Items))
		return entry.Items, nil
	}

	if len(a.sources) == 0 {
		logger.Warn("No enabled news sources")
		return []Item{}, nil
	}

	items, err := a.fetchAll(ctx)
	if err != nil {
		return nil, err
	}

	if err := a.cache.Set(ctx, AllKey, items); err != nil {
		logger.Warn("Failed to cache news", logging.Err(err))
	}
	a.metrics.RecordNewsItems(len(items))
	logger.Info("Fetched news", "items", len(items), "sources", len(a.sources))
	return items, nil
}

// Refresh drops cached news and fetches again
func (a *Aggregator) Refresh(ctx context.Context) ([]Item, error) {
	if err := a.cache.Clear(ctx); err != nil {
		return nil, fmt.Errorf("clear news cache: %w", err)
	}
	return a.All(ctx)
}

// Search returns the items matching f
func (a *Aggregator) Search(ctx context.Context, f Filter) ([]Item, error) {
	items, err := a.All(ctx)
	if err != nil {
		return nil, err
	}
	return f.Apply(items), nil
}

// ByID returns the item with id, or nil
func (a *Aggregator) ByID(ctx context.Context, id string) (*Item, error) {
	items, err := a.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			item := items[i]
			return &item, nil
		}
	}
	return nil, nil
}

// Apply filters items. Query matches title, summary or source case-insensitively.
func (f Filter) Apply(items []Item) []Item {
	query := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]Item, 0, len(items))
	for _, item := range items {
		if query != "" &&
			!strings.Contains(strings.ToLower(item.Title), query) &&
			!strings.Contains(strings.ToLower(item.Summary), query) &&
			!strings.Contains(strings.ToLower(item.Source), query) {
			continue
		}
		if f.Topic != "" && item.Topic != f.Topic {
			continue
		}
		if f.Type != "" && item.Type != f.Type {
			continue
		}
		out = append(out, item)
	}

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

// fetchAll fetches every source; a failed source contributes no items
func (a *Aggregator) fetchAll(ctx context.Context) ([]Item, error) {
	results := make([][]Item, len(a.sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, source := range a.sources {
		g.Go(func() error {
			items, err := a.fetchSource(gctx, source)
			a.metrics.RecordNewsFetch(source.Name, err == nil)
			if err != nil {
				logging.FromContextOr(ctx, a.logger).Warn("Failed to fetch news source",
					"source", source.Name,
					"url", logging.RedactStringURL(source.URL),
					logging.Err(err),
				)
				return nil
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []Item
	for _, items := range results {
		all = append(all, items...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].UpdatedAt.After(all[j].UpdatedAt)
	})
	if all == nil {
		all = []Item{}
	}
	return all, nil
}

func (a *Aggregator) fetchSource(ctx context.Context, source Source) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	if source.Format == FormatJSON {
		req.Header.Set("Accept", "application/json")
	} else {
		req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, maxFeedBody)
	if source.Format == FormatJSON {
		return a.decodeJSONSource(body, source)
	}
	return a.decodeFeed(body, source)
}

func (a *Aggregator) decodeFeed(body io.Reader, source Source) ([]Item, error) {
	feed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	now := a.now()
	items := make([]Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		item, ok := FromFeedItem(entry, source, now)
		if !ok {
			a.logger.Debug("Skipping untitled feed item", "source", source.Name)
			continue
		}
		if !MatchesKeywords(item, source.Keywords) {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (a *Aggregator) decodeJSONSource(body io.Reader, source Source) ([]Item, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	decoded, shape, err := DecodeEnvelope(data)
	if err != nil {
		return nil, err
	}
	if shape == ShapeUnknown {
		a.logger.Warn("Unrecognized news payload", "source", source.Name)
	}

	items := make([]Item, 0, len(decoded))
	for _, item := range decoded {
		if strings.TrimSpace(item.Title) == "" {
			continue
		}
		if item.Source == "" {
			item.Source = source.Name
		}
		if item.Topic == "" {
			item.Topic = source.Category
		}
		if item.Type == "" {
			item.Type = TypeArticle
		}
		if item.ID == "" {
			item.ID = ItemID("", item.Link, source.Name, item.Title, item.UpdatedAt.Format(time.RFC3339))
		}
		if !MatchesKeywords(item, source.Keywords) {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}
