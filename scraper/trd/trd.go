package trd

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"nycdev-scraper/config"
	"nycdev-scraper/models"
	"nycdev-scraper/services"
	"nycdev-scraper/utils"
)

const (
	source     = "The Real Deal"
	sitePrefix = "https://therealdeal.com/"
)

var listPages = []string{
	"https://therealdeal.com/new-york/",
	"https://therealdeal.com/tag/new-development/",
}

// skipPathParts marks non-article links on the listing pages.
var skipPathParts = []string{"/tag/", "/category/", "/author/", "/video", "/shop", "/events"}

// Scraper collects recent article links from The Real Deal listing pages
// and parses each article for development records.
type Scraper struct {
	cfg    *config.Config
	logger *utils.Logger
	client *resty.Client
	pool   *utils.WorkerPool
	seen   *utils.LinkSet
}

// New creates a ready-to-use The Real Deal Scraper.
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
		seen:   utils.NewLinkSet(),
	}
}

// Fetch walks the listing pages, then parses each collected article.
// Articles published before the lookback window are dropped.
func (s *Scraper) Fetch() ([]*models.Record, error) {
	links := s.collectLinks()
	if len(links) == 0 {
		return nil, fmt.Errorf("trd: no article links collected")
	}

	s.logger.Info("[trd] Collected %d article links", len(links))

	since := time.Now().In(utils.NewYork).Add(-time.Duration(s.cfg.LookbackHours) * time.Hour)

	results := make([]*models.Record, len(links))
	for i, link := range links {
		i, link := i, link
		s.pool.Submit(func() {
			rec, err := s.scrapeArticle(link, since)
			if err != nil {
				s.logger.Warn("[trd] Article parse failed: %s — %v", link, err)
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

func (s *Scraper) collectLinks() []string {
	var links []string
	for _, page := range listPages {
		res, err := s.client.R().Get(page)
		if err != nil {
			s.logger.Warn("[trd] List fetch failed: %s — %v", page, err)
			continue
		}
		if res.IsError() {
			s.logger.Warn("[trd] List fetch failed: %s — status %s", page, res.Status())
			continue
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
		if err != nil {
			s.logger.Warn("[trd] List parse failed: %s — %v", page, err)
			continue
		}

		doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href := a.AttrOr("href", "")
			if !keepLink(href) {
				return true
			}
			if !s.seen.Add(href) {
				return true
			}
			links = append(links, href)
			return len(links) < s.cfg.TRDMaxLinks
		})

		if len(links) >= s.cfg.TRDMaxLinks {
			break
		}
	}
	return links
}

// keepLink accepts site-internal article links only.
func keepLink(href string) bool {
	if !strings.HasPrefix(href, sitePrefix) {
		return false
	}
	for _, part := range skipPathParts {
		if strings.Contains(href, part) {
			return false
		}
	}
	return true
}

// scrapeArticle returns (nil, nil) when the article falls outside the
// lookback window.
func (s *Scraper) scrapeArticle(link string, since time.Time) (*models.Record, error) {
	res, err := s.client.R().Get(link)
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

	published := time.Now().In(utils.NewYork)
	if attr, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		if t, parsed := utils.ParseTimestamp(attr); parsed {
			published = t.In(utils.NewYork)
		}
	}
	if published.Before(since) {
		return nil, nil
	}

	scope := doc.Find("article")
	if scope.Length() == 0 {
		scope = doc.Selection
	}

	title := strings.TrimSpace(scope.Find("h1").First().Text())
	if title == "" {
		title = link
	}

	var parts []string
	scope.Find("p").Each(func(_ int, p *goquery.Selection) {
		if t := strings.TrimSpace(p.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	text := strings.Join(parts, " ")

	return &models.Record{
		Date:       published.Format("2006-01-02"),
		Source:     source,
		Title:      title,
		Address:    services.ExtractStreetAddress(title + " " + text),
		Borough:    services.GuessBorough(title + " " + text),
		Developers: services.ExtractDevelopers(text),
		URL:        link,
	}, nil
}
