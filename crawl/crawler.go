// Package crawl drives the pagination walk across the catalogue.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/pbaptista/bookdash/config"
	"github.com/pbaptista/bookdash/extract"
	"github.com/pbaptista/bookdash/models"
	"github.com/pbaptista/bookdash/pipeline"
)

// Crawler fetches catalogue pages one at a time and feeds the extracted
// records into a pipeline. The collector runs synchronously: page N is fully
// extracted before page N+1 is requested, so a single in-flight fetch result
// can live on the struct.
type Crawler struct {
	cfg       *config.Config
	collector *colly.Collector
	extractor *extract.Extractor
	Metrics   *Metrics

	page       *fetchedPage
	lastStatus int
}

type fetchedPage struct {
	body []byte
	url  *url.URL
}

// New builds a crawler configured from cfg.
func New(cfg *config.Config) (*Crawler, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(cfg.UserAgent),
	)
	collector.SetRequestTimeout(cfg.Timeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	c := &Crawler{
		cfg:       cfg,
		collector: collector,
		extractor: extract.New(),
		Metrics:   NewMetrics(),
	}

	collector.OnResponse(func(r *colly.Response) {
		body := make([]byte, len(r.Body))
		copy(body, r.Body)
		c.page = &fetchedPage{body: body, url: r.Request.URL}
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			c.lastStatus = r.StatusCode
		}
	})

	return c, nil
}

// Run walks the catalogue from the configured start URL, streaming every
// extracted record into p as it is produced. A fetch or page-structure
// failure is fatal for the remainder of the crawl; everything written so far
// remains in the sink. The returned CrawlResult reports what was processed
// either way.
func (c *Crawler) Run(ctx context.Context, p *pipeline.Pipeline) (*models.CrawlResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	result := &models.CrawlResult{
		StartTime:    time.Now(),
		ErrorsByType: make(map[string]int),
	}
	walk := NewWalk(c.cfg.BaseURL, c.cfg.MaxPages)

	for walk.Running() {
		if err := ctx.Err(); err != nil {
			return c.finish(result, walk), err
		}

		current := walk.Current()
		page, ferr := c.visit(current)
		if ferr != nil {
			result.ErrorCount++
			result.ErrorsByType[string(ferr.Kind)]++
			c.Metrics.IncError(ferr.Kind)
			slog.Error("page fetch failed",
				slog.String("url", current),
				slog.String("kind", string(ferr.Kind)),
				slog.Any("error", ferr.Err),
			)
			return c.finish(result, walk), ferr
		}

		pageResult, err := c.extractor.Extract(page.body, page.url)
		if err != nil {
			result.ErrorCount++
			result.ErrorsByType[string(KindStructure)]++
			c.Metrics.IncError(KindStructure)
			slog.Error("page extraction failed",
				slog.String("url", current),
				slog.Any("error", err),
			)
			return c.finish(result, walk), fmt.Errorf("extract %s: %w", current, err)
		}

		for _, rec := range pageResult.Records {
			perr := p.Process(rec)
			if perr == nil || errors.Is(perr, pipeline.ErrPipelineClosed) {
				continue
			}
			// the sink is broken, fetching further pages would only
			// discard their records
			result.ErrorCount++
			result.ErrorsByType[string(KindOther)]++
			c.Metrics.IncError(KindOther)
			slog.Error("pipeline write failed",
				slog.String("url", current),
				slog.Any("error", perr),
			)
			return c.finish(result, walk), fmt.Errorf("pipeline: %w", perr)
		}

		result.PageCount++
		result.RecordCount += len(pageResult.Records)
		c.Metrics.IncPages()
		c.Metrics.AddRecords(len(pageResult.Records))

		next := ""
		if pageResult.Next != "" {
			next = extract.DefaultResolver(page.url, pageResult.Next)
		}
		slog.Debug("page extracted",
			slog.String("url", current),
			slog.Int("records", len(pageResult.Records)),
			slog.String("next", next),
		)
		walk.Advance(next)
	}

	return c.finish(result, walk), nil
}

func (c *Crawler) finish(result *models.CrawlResult, walk *Walk) *models.CrawlResult {
	result.EndTime = time.Now()
	result.FinalURL = walk.Current()
	return result
}

// visit fetches one page through the collector and returns its raw body and
// final URL. The collector delivers the body via OnResponse before Visit
// returns; errors come back classified.
func (c *Crawler) visit(rawURL string) (*fetchedPage, *FetchError) {
	c.page = nil
	c.lastStatus = 0

	start := time.Now()
	err := c.collector.Visit(rawURL)
	c.Metrics.ObserveFetch(time.Since(start))

	if err != nil {
		return nil, &FetchError{Kind: classify(err, c.lastStatus), URL: rawURL, Err: err}
	}
	if c.page == nil {
		return nil, &FetchError{
			Kind: KindOther,
			URL:  rawURL,
			Err:  fmt.Errorf("no response received"),
		}
	}
	return c.page, nil
}
