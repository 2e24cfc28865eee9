package yimby

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed"

	"nycdev-scraper/config"
	"nycdev-scraper/models"
	"nycdev-scraper/services"
	"nycdev-scraper/utils"
)

const (
	feedURL = "https://newyorkyimby.com/feed"
	source  = "YIMBY"
)

// Scraper pulls recent posts from the New York YIMBY feed and enriches
// each one from its article page.
type Scraper struct {
	cfg    *config.Config
	logger *utils.Logger
	client *resty.Client
	pool   *utils.WorkerPool
	parser *gofeed.Parser
}

// New creates a ready-to-use YIMBY Scraper.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	client := resty.New().
		SetTimeout(time.Duration(cfg.HTTPTimeoutSec) * time.Second).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	return &Scraper{
		cfg:    cfg,
		logger: logger,
		client: client,
		pool:   utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs),
		parser: gofeed.NewParser(),
	}
}

// Fetch returns one record per feed entry published within the lookback
// window. A single fetch attempt is made; entries whose article page
// cannot be parsed are logged and dropped.
func (s *Scraper) Fetch() ([]*models.Record, error) {
	res, err := s.client.R().Get(feedURL)
	if err != nil {
		return nil, fmt.Errorf("yimby: fetch feed: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("yimby: feed returned %s", res.Status())
	}

	feed, err := s.parser.ParseString(res.String())
	if err != nil {
		return nil, fmt.Errorf("yimby: parse feed: %w", err)
	}

	since := time.Now().In(utils.NewYork).Add(-time.Duration(s.cfg.LookbackHours) * time.Hour)

	type job struct {
		item      *gofeed.Item
		published time.Time
	}
	var jobs []job
	for _, item := range feed.Items {
		published := publishedAt(item)
		if published.Before(since) {
			continue
		}
		jobs = append(jobs, job{item, published})
	}

	s.logger.Info("[yimby] %d of %d feed entries within lookback window",
		len(jobs), len(feed.Items))

	// Indexed slots keep feed order despite concurrent article fetches.
	results := make([]*models.Record, len(jobs))
	for i, j := range jobs {
		i, j := i, j
		s.pool.Submit(func() {
			rec, err := s.scrapeArticle(j.item, j.published)
			if err != nil {
				s.logger.Warn("[yimby] Article parse failed: %s — %v", j.item.Link, err)
				return
			}
			results[i] = rec
		})
	}
	s.pool.Wait()

	records := make([]*models.Record, 0, len(results))
	for _, rec := range results {
		if rec != nil {
			records = append(records, rec)
		}
	}
	return records, nil
}

func publishedAt(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.In(utils.NewYork)
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.In(utils.NewYork)
	}
	if t, ok := utils.ParseTimestamp(item.Published); ok {
		return t.In(utils.NewYork)
	}
	return time.Now().In(utils.NewYork)
}

func (s *Scraper) scrapeArticle(item *gofeed.Item, published time.Time) (*models.Record, error) {
	res, err := s.client.R().Get(item.Link)
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("status %s", res.Status())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, err
	}

	text := articleText(doc)
	title := html.UnescapeString(item.Title)

	return &models.Record{
		Date:       published.Format("2006-01-02"),
		Source:     source,
		Title:      title,
		Address:    addressFromTitle(title),
		Borough:    services.GuessBorough(title + " " + text),
		Developers: services.ExtractDevelopers(text),
		URL:        item.Link,
	}, nil
}

func articleText(doc *goquery.Document) string {
	scope := doc.Find("article")
	if scope.Length() == 0 {
		scope = doc.Selection
	}
	var parts []string
	scope.Find("p").Each(func(_ int, p *goquery.Selection) {
		if t := strings.TrimSpace(p.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, " ")
}

// addressFromTitle recovers the project address from headlines shaped like
// "Permits Filed for 123 Main Street in Borough Park, Brooklyn".
func addressFromTitle(title string) string {
	head, _, _ := strings.Cut(title, " in ")
	head = strings.ReplaceAll(head, "Permits Filed for", "")
	return strings.TrimSpace(head)
}
