// Package extract converts one fetched catalogue page into structured records.
// It is pure: input is the raw page body plus the URL it was fetched from, and
// no network access happens here.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pbaptista/bookdash/models"
)

// ErrPageStructure reports a page that does not resemble a catalogue page at
// all: no product containers and no pager. It lets the caller tell "the site
// changed its markup" apart from "end of catalogue".
var ErrPageStructure = errors.New("extract: content is not a recognizable catalogue page")

// Resolver joins a possibly relative href with the URL of the page it was
// found on. Injected so the extractor stays testable without a live site.
type Resolver func(base *url.URL, href string) string

// DefaultResolver resolves href against base using net/url reference
// resolution. Unparseable hrefs resolve to "".
func DefaultResolver(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

// Extractor applies the fixed catalogue selection rules to page content.
type Extractor struct {
	resolve Resolver
}

// Option customises an Extractor.
type Option func(*Extractor)

// WithResolver replaces the URL resolver.
func WithResolver(r Resolver) Option {
	return func(e *Extractor) {
		if r != nil {
			e.resolve = r
		}
	}
}

// New builds an Extractor with the default resolver.
func New(opts ...Option) *Extractor {
	e := &Extractor{resolve: DefaultResolver}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract parses body and returns every product record on the page in
// document order, plus the raw href of the forward-navigation link if one
// exists. Individual fields are best-effort: a rule that matches nothing
// yields an empty string, never an error. Only a page with no catalogue
// structure at all fails, with ErrPageStructure.
func (e *Extractor) Extract(body []byte, base *url.URL) (*models.PageResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	pods := doc.Find("article.product_pod")
	if pods.Length() == 0 && doc.Find("ul.pager").Length() == 0 {
		return nil, ErrPageStructure
	}

	result := &models.PageResult{
		Records: make([]*models.Record, 0, pods.Length()),
	}
	pods.Each(func(_ int, pod *goquery.Selection) {
		result.Records = append(result.Records, e.record(pod, base))
	})

	if href, ok := doc.Find("li.next a").First().Attr("href"); ok {
		result.Next = strings.TrimSpace(href)
	}
	return result, nil
}

func (e *Extractor) record(pod *goquery.Selection, base *url.URL) *models.Record {
	rec := &models.Record{
		Title:        strings.TrimSpace(pod.Find("h3 a").First().AttrOr("title", "")),
		Price:        cleanPrice(pod.Find("p.price_color").First().Text()),
		Availability: collapseText(pod.Find("p.instock.availability").First().Text()),
		Rating:       ratingWord(pod.Find("p.star-rating").First().AttrOr("class", "")),
	}
	if rec.Availability == "" {
		rec.Availability = collapseText(pod.Find("p.availability").First().Text())
	}
	if src := pod.Find("img").First().AttrOr("src", ""); src != "" {
		rec.ImageURL = e.resolve(base, src)
	}
	return rec
}

// cleanPrice keeps the raw currency-prefixed text but drops the mojibake
// artifact the site's latin-1 pound sign produces when read as UTF-8.
func cleanPrice(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "Â", ""))
}

// collapseText joins the text nodes of an element, squeezing runs of
// whitespace. The availability block mixes an icon, newlines, and indented
// text, so the raw Text() needs flattening.
func collapseText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// ratingWord pulls the ordinal word out of a "star-rating Three" class list.
func ratingWord(class string) string {
	for _, field := range strings.Fields(class) {
		if field != "star-rating" {
			return field
		}
	}
	return ""
}
