package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quote_spider/internal/logger"
	"quote_spider/internal/models"
	urlqueue "quote_spider/internal/url_queue"
)

// Fetcher is the transport used by a run.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*models.Page, error)
}

// Parser turns one fetched page into records and an optional next link.
type Parser interface {
	Parse(page *models.Page) (models.PageResult, error)
}

// CrawlOrchestrator walks the fetch, parse, follow loop for a single run.
// Pages are fetched one at a time because the next link is only known once
// the current page has been parsed.
type CrawlOrchestrator struct {
	fetcher   Fetcher
	parser    Parser
	collector *ResultCollector
	delay     time.Duration
	log       logger.Logger

	pages int
}

func newCrawlOrchestrator(fetcher Fetcher, parser Parser, collector *ResultCollector, delay time.Duration, log logger.Logger) *CrawlOrchestrator {
	return &CrawlOrchestrator{
		fetcher:   fetcher,
		parser:    parser,
		collector: collector,
		delay:     delay,
		log:       log,
	}
}

// Run returns nil once a page without a next link has been processed. The
// first transport or parse failure ends the run. There is no cycle guard.
func (o *CrawlOrchestrator) Run(ctx context.Context, seedURL string) error {
	frontier := urlqueue.NewFrontier(seedURL)

	for {
		link, ok := frontier.Pop()
		if !ok {
			return nil
		}

		if frontier.Popped() > 1 {
			if err := o.wait(ctx); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrRunCanceled, err)
		}

		page, err := o.fetcher.Fetch(ctx, link)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fmt.Errorf("%w: %w", ErrRunCanceled, ctxErr)
			}
			return &TransportError{URL: link, Err: err}
		}

		result, err := o.parser.Parse(page)
		if err != nil {
			var parseErr *ParseError
			if errors.As(err, &parseErr) {
				return err
			}
			return &ParseError{URL: page.URL, Err: err}
		}

		// Every record of a page lands in the collector before the next link is followed.
		for _, r := range result.Records {
			o.collector.Append(r)
		}
		o.pages++

		o.log.Debug("Processed page",
			logger.String("url", link),
			logger.Int("records", len(result.Records)),
			logger.String("next", result.NextURL),
		)

		frontier.Push(result.NextURL)
	}
}

// Pages is the number of pages fully processed.
func (o *CrawlOrchestrator) Pages() int {
	return o.pages
}

func (o *CrawlOrchestrator) wait(ctx context.Context) error {
	if o.delay <= 0 {
		return nil
	}
	t := time.NewTimer(o.delay)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrRunCanceled, ctx.Err())
	case <-t.C:
		return nil
	}
}
