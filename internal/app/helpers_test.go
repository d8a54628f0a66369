package app

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"

	"quote_spider/internal/models"
)

var errConnRefused = errors.New("connection refused")

// quotePage renders a listing page shaped like quotes.toscrape.com.
func quotePage(next string, quotes ...models.Record) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><title>Quotes</title></head><body><div class=\"col-md-8\">\n")
	for _, q := range quotes {
		b.WriteString(`<div class="quote" itemscope>`)
		if q.Text != "" {
			fmt.Fprintf(&b, `<span class="text" itemprop="text">%s</span>`, html.EscapeString(q.Text))
		}
		if q.Author != "" {
			fmt.Fprintf(&b, `<span>by <small class="author" itemprop="author">%s</small></span>`, html.EscapeString(q.Author))
		}
		b.WriteString("</div>\n")
	}
	b.WriteString(`<nav><ul class="pager">`)
	if next != "" {
		fmt.Fprintf(&b, `<li class="next"><a href="%s">Next <span aria-hidden="true">&rarr;</span></a></li>`, next)
	}
	b.WriteString("</ul></nav></div></body></html>")
	return b.String()
}

func defaultSelectors() Selectors {
	return Selectors{
		Quote:  "div.quote",
		Text:   "span.text",
		Author: "small.author",
		Next:   "li.next > a",
	}
}

// scriptedFetcher serves canned bodies by URL and fails for URLs listed in errs.
type scriptedFetcher struct {
	pages map[string]string
	errs  map[string]error

	mu    sync.Mutex
	calls []string
}

func newScriptedFetcher() *scriptedFetcher {
	return &scriptedFetcher{
		pages: make(map[string]string),
		errs:  make(map[string]error),
	}
}

func (f *scriptedFetcher) Fetch(ctx context.Context, url string) (*models.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	body, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("404 for %s", url)
	}
	return &models.Page{URL: url, Body: []byte(body)}, nil
}

func (f *scriptedFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// scriptedParser returns canned results by page URL without looking at the body.
type scriptedParser struct {
	results map[string]models.PageResult
	errs    map[string]error
}

func (p *scriptedParser) Parse(page *models.Page) (models.PageResult, error) {
	if err, ok := p.errs[page.URL]; ok {
		return models.PageResult{}, err
	}
	return p.results[page.URL], nil
}

// blockingFetcher holds every fetch until release is closed or ctx ends.
type blockingFetcher struct {
	inner   Fetcher
	started chan string
	release chan struct{}
}

func (f *blockingFetcher) Fetch(ctx context.Context, url string) (*models.Page, error) {
	select {
	case f.started <- url:
	default:
	}
	select {
	case <-f.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return f.inner.Fetch(ctx, url)
}

type memoryHistory struct {
	mu   sync.Mutex
	runs []models.CrawlHistory
	err  error
}

func (h *memoryHistory) SaveRun(_ context.Context, run *models.CrawlHistory) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs = append(h.runs, *run)
	return h.err
}

func (h *memoryHistory) Runs() []models.CrawlHistory {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]models.CrawlHistory(nil), h.runs...)
}

func records(prefix string, n int) []models.Record {
	out := make([]models.Record, n)
	for i := range out {
		out[i] = models.Record{
			Text:   fmt.Sprintf("%s quote %d", prefix, i+1),
			Author: fmt.Sprintf("%s author %d", prefix, i+1),
		}
	}
	return out
}
