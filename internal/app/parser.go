package app

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"quote_spider/internal/models"
	urlqueue "quote_spider/internal/url_queue"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	errEmptyBody = errors.New("empty body")
	errNotHTML   = errors.New("not an HTML document")
)

// Selectors are the CSS selectors used to pull quotes out of a listing page.
// Text and Author are evaluated inside each Quote fragment.
type Selectors struct {
	Quote  string
	Text   string
	Author string
	Next   string
}

// PageParser extracts records and the next-page link from a listing page.
// It keeps no state between calls.
type PageParser struct {
	sel Selectors
}

func NewPageParser(sel Selectors) *PageParser {
	return &PageParser{sel: sel}
}

func (p *PageParser) Parse(page *models.Page) (models.PageResult, error) {
	if !isHTML(page.ContentType) {
		return models.PageResult{}, &ParseError{URL: page.URL, Err: fmt.Errorf("%w: %s", errNotHTML, page.ContentType)}
	}
	if len(bytes.TrimSpace(page.Body)) == 0 {
		return models.PageResult{}, &ParseError{URL: page.URL, Err: errEmptyBody}
	}

	root, err := html.Parse(bytes.NewReader(page.Body))
	if err != nil {
		return models.PageResult{}, &ParseError{URL: page.URL, Err: err}
	}
	doc := goquery.NewDocumentFromNode(root)

	records := make([]models.Record, 0)
	doc.Find(p.sel.Quote).Each(func(_ int, s *goquery.Selection) {
		records = append(records, models.Record{
			Text:   firstText(s, p.sel.Text),
			Author: firstText(s, p.sel.Author),
		})
	})

	result := models.PageResult{Records: records}

	href, ok := doc.Find(p.sel.Next).First().Attr("href")
	if ok && strings.TrimSpace(href) != "" {
		next, err := urlqueue.Resolve(page.URL, href)
		if err != nil {
			return models.PageResult{}, &ParseError{URL: page.URL, Err: err}
		}
		result.NextURL = next
	}

	return result, nil
}

// isHTML reports whether contentType names an HTML document. A missing
// header is given the benefit of the doubt.
func isHTML(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	switch strings.ToLower(strings.TrimSpace(mediaType)) {
	case "", "text/html", "application/xhtml+xml":
		return true
	default:
		return false
	}
}

// firstText returns the trimmed text of the first match, or "" if nothing matches.
func firstText(s *goquery.Selection, selector string) string {
	return strings.TrimSpace(s.Find(selector).First().Text())
}
