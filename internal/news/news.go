// Package news fetches financial headlines over RSS to enrich the
// chat surface. Feeds are parsed with gofeed; HTML in summaries is
// stripped before the articles reach clients.
package news

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/finchat/internal/config"
	"github.com/seenimoa/finchat/internal/infra"
	"github.com/seenimoa/finchat/pkg/models"
)

// Service fetches market and per-symbol news feeds.
type Service struct {
	cfg     config.NewsConfig
	cache   *infra.Cache
	limiter *infra.RateLimiter
	parser  *gofeed.Parser
}

// NewService creates a news service with the configured feeds.
func NewService(cfg config.NewsConfig) *Service {
	return &Service{
		cfg:     cfg,
		cache:   infra.NewCache(10 * time.Minute),
		limiter: infra.NewRateLimiter(2, time.Second), // conservative: 2 req/s
		parser:  gofeed.NewParser(),
	}
}

// MarketNews returns recent market-wide headlines, newest first.
func (s *Service) MarketNews(ctx context.Context, limit int) ([]models.NewsArticle, error) {
	cacheKey := fmt.Sprintf("news:market:%d", limit)
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.([]models.NewsArticle), nil
	}

	articles, err := s.fetchFeed(ctx, s.cfg.MarketFeedURL, "Yahoo Finance")
	if err != nil {
		return nil, err
	}

	sortByDate(articles)
	articles = clip(articles, limit)

	s.cache.Set(cacheKey, articles)
	return articles, nil
}

// SymbolNews returns headlines for one ticker symbol, newest first.
func (s *Service) SymbolNews(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error) {
	cacheKey := fmt.Sprintf("news:symbol:%s:%d", symbol, limit)
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.([]models.NewsArticle), nil
	}

	url := fmt.Sprintf(s.cfg.SymbolFeedURL, symbol)
	articles, err := s.fetchFeed(ctx, url, "Yahoo Finance")
	if err != nil {
		return nil, err
	}

	sortByDate(articles)
	articles = clip(articles, limit)

	s.cache.Set(cacheKey, articles)
	return articles, nil
}

func (s *Service) fetchFeed(ctx context.Context, url, source string) ([]models.NewsArticle, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feed, err := s.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", url, err)
	}

	articles := make([]models.NewsArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		published := time.Time{}
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		}
		articles = append(articles, models.NewsArticle{
			Title:       strings.TrimSpace(item.Title),
			Link:        item.Link,
			Source:      source,
			Summary:     stripHTML(item.Description),
			PublishedAt: published,
		})
	}
	return articles, nil
}

// stripHTML flattens an HTML fragment to plain text. Summaries in
// finance feeds routinely embed markup and image tags.
func stripHTML(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.TrimSpace(doc.Text())
}

func sortByDate(articles []models.NewsArticle) {
	sort.Slice(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
}

func clip(articles []models.NewsArticle, limit int) []models.NewsArticle {
	if limit > 0 && len(articles) > limit {
		return articles[:limit]
	}
	return articles
}
