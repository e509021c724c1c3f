package crawl

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/pbaptista/bookdash/config"
	"github.com/pbaptista/bookdash/extract"
	"github.com/pbaptista/bookdash/models"
	"github.com/pbaptista/bookdash/pipeline"
)

type collectingWriter struct {
	mu      sync.Mutex
	records []*models.Record
}

func (cw *collectingWriter) Write(records []*models.Record) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.records = append(cw.records, records...)
	return nil
}

func (cw *collectingWriter) Close() error    { return nil }
func (cw *collectingWriter) Validate() error { return nil }

func (cw *collectingWriter) All() []*models.Record {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	out := make([]*models.Record, len(cw.records))
	copy(out, cw.records)
	return out
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.BaseURL = "http://example.test/catalogue/page-1.html"
	cfg.MaxPages = 10
	cfg.PipelineWorkers = 1
	cfg.BatchSize = 8
	return cfg
}

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(200, body)
	resp.Header.Set("Content-Type", "text/html")
	return httpmock.ResponderFromResponse(resp)
}

func buildCatalogPage(page, perPage int, hasNext bool) string {
	var builder strings.Builder
	builder.WriteString(`<html><body><section>`)

	for i := 1; i <= perPage; i++ {
		id := (page-1)*perPage + i
		fmt.Fprintf(&builder, `<article class="product_pod">`)
		fmt.Fprintf(&builder, `<h3><a href="book-%d/index.html" title="Book %d">Book %d</a></h3>`, id, id, id)
		fmt.Fprintf(&builder, `<p class="price_color">£%d.00</p>`, id)
		builder.WriteString(`<p class="star-rating Two"></p>`)
		builder.WriteString(`<p class="instock availability"><i class="icon-ok"></i> In stock </p>`)
		fmt.Fprintf(&builder, `<img src="../media/book-%d.jpg"/>`, id)
		builder.WriteString(`</article>`)
	}

	builder.WriteString(`<ul class="pager">`)
	if hasNext {
		fmt.Fprintf(&builder, `<li class="next"><a href="page-%d.html">next</a></li>`, page+1)
	}
	builder.WriteString(`</ul></section></body></html>`)
	return builder.String()
}

func newTestCrawler(t *testing.T, cfg *config.Config, transport *httpmock.MockTransport) *Crawler {
	t.Helper()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("new crawler: %v", err)
	}
	c.collector.WithTransport(transport)
	return c
}

func TestCrawlerThreePageWalk(t *testing.T) {
	cfg := testConfig()

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://example.test/catalogue/page-1.html",
		htmlResponder(buildCatalogPage(1, 3, true)))
	transport.RegisterResponder("GET", "http://example.test/catalogue/page-2.html",
		htmlResponder(buildCatalogPage(2, 3, true)))
	transport.RegisterResponder("GET", "http://example.test/catalogue/page-3.html",
		htmlResponder(buildCatalogPage(3, 3, false)))

	c := newTestCrawler(t, cfg, transport)

	writer := &collectingWriter{}
	p := pipeline.NewPipeline(context.Background(), writer, cfg)
	p.Start(1)

	result, err := c.Run(context.Background(), p)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close pipeline: %v", err)
	}

	if result.PageCount != 3 {
		t.Fatalf("pages=%d, want 3", result.PageCount)
	}
	if result.RecordCount != 9 {
		t.Fatalf("records=%d, want 9", result.RecordCount)
	}
	if result.FinalURL != "" {
		t.Fatalf("final url=%q, want empty after termination", result.FinalURL)
	}

	records := writer.All()
	if len(records) != 9 {
		t.Fatalf("written=%d, want 9", len(records))
	}
	// records arrive in document order across pages
	for i, rec := range records {
		want := fmt.Sprintf("Book %d", i+1)
		if rec.Title != want {
			t.Fatalf("record %d title=%q, want %q", i, rec.Title, want)
		}
	}
	if got := records[0].ImageURL; got != "http://example.test/media/book-1.jpg" {
		t.Fatalf("image=%q, want resolved against page URL", got)
	}
}

func TestCrawlerFetchFailureIsFatalButPartialSurvives(t *testing.T) {
	cfg := testConfig()

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://example.test/catalogue/page-1.html",
		htmlResponder(buildCatalogPage(1, 2, true)))
	transport.RegisterResponder("GET", "http://example.test/catalogue/page-2.html",
		httpmock.NewStringResponder(http.StatusNotFound, "gone"))

	c := newTestCrawler(t, cfg, transport)

	writer := &collectingWriter{}
	p := pipeline.NewPipeline(context.Background(), writer, cfg)
	p.Start(1)

	result, err := c.Run(context.Background(), p)
	if err == nil {
		t.Fatalf("expected fetch failure to stop the crawl")
	}
	var ferr *FetchError
	if !errors.As(err, &ferr) {
		t.Fatalf("err=%T, want *FetchError", err)
	}
	if ferr.Kind != KindNotFound {
		t.Fatalf("kind=%q, want %q", ferr.Kind, KindNotFound)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close pipeline: %v", err)
	}

	if result.PageCount != 1 {
		t.Fatalf("pages=%d, want the one page before the failure", result.PageCount)
	}
	if got := len(writer.All()); got != 2 {
		t.Fatalf("written=%d, want partial output of 2 records", got)
	}
	if result.ErrorsByType[string(KindNotFound)] != 1 {
		t.Fatalf("errors by type = %v", result.ErrorsByType)
	}
}

func TestCrawlerStructureFailureIsFatal(t *testing.T) {
	cfg := testConfig()

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://example.test/catalogue/page-1.html",
		htmlResponder(`<html><body><h1>site redesigned</h1></body></html>`))

	c := newTestCrawler(t, cfg, transport)

	writer := &collectingWriter{}
	p := pipeline.NewPipeline(context.Background(), writer, cfg)
	p.Start(1)

	_, err := c.Run(context.Background(), p)
	if !errors.Is(err, extract.ErrPageStructure) {
		t.Fatalf("err=%v, want ErrPageStructure", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close pipeline: %v", err)
	}
	if got := len(writer.All()); got != 0 {
		t.Fatalf("written=%d, want 0", got)
	}
}

type failingWriter struct {
	err error
}

func (fw *failingWriter) Write([]*models.Record) error { return fw.err }
func (fw *failingWriter) Close() error                 { return nil }
func (fw *failingWriter) Validate() error              { return nil }

func TestCrawlerStopsWhenSinkFails(t *testing.T) {
	cfg := testConfig()
	cfg.PipelineBufferSize = 1
	cfg.BatchSize = 1

	transport := httpmock.NewMockTransport()
	for page := 1; page <= 3; page++ {
		transport.RegisterResponder("GET",
			fmt.Sprintf("http://example.test/catalogue/page-%d.html", page),
			htmlResponder(buildCatalogPage(page, 3, page < 3)))
	}

	c := newTestCrawler(t, cfg, transport)

	boom := errors.New("disk full")
	p := pipeline.NewPipeline(context.Background(), &failingWriter{err: boom}, cfg)
	p.Start(1)

	result, err := c.Run(context.Background(), p)
	if err == nil || !errors.Is(err, boom) {
		t.Fatalf("err=%v, want wrapped sink error", err)
	}
	_ = p.Close()

	if result.PageCount >= 3 {
		t.Fatalf("pages=%d, crawl must stop once the sink is broken", result.PageCount)
	}
	calls := transport.GetCallCountInfo()
	if calls["GET http://example.test/catalogue/page-3.html"] != 0 {
		t.Fatalf("page 3 fetched after the sink failed")
	}
}

func TestCrawlerHonorsPageBound(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPages = 2

	transport := httpmock.NewMockTransport()
	for page := 1; page <= 5; page++ {
		transport.RegisterResponder("GET",
			fmt.Sprintf("http://example.test/catalogue/page-%d.html", page),
			htmlResponder(buildCatalogPage(page, 2, true)))
	}

	c := newTestCrawler(t, cfg, transport)

	writer := &collectingWriter{}
	p := pipeline.NewPipeline(context.Background(), writer, cfg)
	p.Start(1)

	result, err := c.Run(context.Background(), p)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close pipeline: %v", err)
	}
	if result.PageCount != 2 {
		t.Fatalf("pages=%d, want bound of 2", result.PageCount)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		statusCode int
		expected   ErrorKind
	}{
		{name: "context timeout", err: context.DeadlineExceeded, expected: KindTimeout},
		{name: "forbidden", err: errors.New("Forbidden"), statusCode: http.StatusForbidden, expected: KindForbidden},
		{name: "not found", err: errors.New("Not Found"), statusCode: http.StatusNotFound, expected: KindNotFound},
		{name: "rate limited", err: errors.New("Too Many Requests"), statusCode: http.StatusTooManyRequests, expected: KindRateLimited},
		{name: "other", err: errors.New("boom"), expected: KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err, tt.statusCode); got != tt.expected {
				t.Fatalf("classify(%v, %d) = %q, want %q", tt.err, tt.statusCode, got, tt.expected)
			}
		})
	}
}
