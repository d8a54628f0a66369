package app

import (
	"context"
	"strings"
	"time"

	"quote_spider/internal/logger"
	"quote_spider/internal/models"
	urlqueue "quote_spider/internal/url_queue"

	"github.com/google/uuid"
)

const historyWriteTimeout = 5 * time.Second

// HistoryStore persists the summary of terminated runs.
type HistoryStore interface {
	SaveRun(ctx context.Context, h *models.CrawlHistory) error
}

type RunnerOption func(*CrawlRunner)

func WithLogger(log logger.Logger) RunnerOption {
	return func(r *CrawlRunner) { r.log = log }
}

// WithDelay pauses between consecutive page fetches of one run.
func WithDelay(d time.Duration) RunnerOption {
	return func(r *CrawlRunner) { r.delay = d }
}

func WithHistory(store HistoryStore) RunnerOption {
	return func(r *CrawlRunner) { r.history = store }
}

// CrawlRunner starts isolated crawl runs. It holds only read-only
// collaborators; everything a run accumulates is allocated per Start call.
type CrawlRunner struct {
	baseURL string
	fetcher Fetcher
	parser  Parser
	delay   time.Duration
	history HistoryStore
	log     logger.Logger
}

func NewCrawlRunner(baseURL string, fetcher Fetcher, parser Parser, opts ...RunnerOption) *CrawlRunner {
	r := &CrawlRunner{
		baseURL: baseURL,
		fetcher: fetcher,
		parser:  parser,
		log:     logger.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// crawlRun is the state owned by one Start call.
type crawlRun struct {
	id        string
	tag       string
	seedURL   string
	collector *ResultCollector
	startedAt time.Time
}

// Start launches a run for req and returns immediately. Cancelling ctx stops
// the run; the Future then resolves with ErrRunCanceled.
func (r *CrawlRunner) Start(ctx context.Context, req models.CrawlRequest) (*Future, error) {
	tag := strings.TrimSpace(req.Tag)
	if tag == "" {
		return nil, ErrEmptyTag
	}

	run := &crawlRun{
		id:        uuid.NewString(),
		tag:       tag,
		seedURL:   urlqueue.SeedURL(r.baseURL, tag),
		collector: newResultCollector(),
		startedAt: time.Now(),
	}
	log := r.log.With(logger.String("run_id", run.id), logger.String("tag", tag))
	orch := newCrawlOrchestrator(r.fetcher, r.parser, run.collector, r.delay, log)
	future := newFuture(run.id)

	log.Info("Crawl run started", logger.String("seed_url", run.seedURL))

	go func() {
		err := orch.Run(ctx, run.seedURL)

		var records []models.Record
		if err == nil {
			records = run.collector.Drain()
		}
		r.saveHistory(run, orch.Pages(), len(records), err, log)

		if err != nil {
			log.Warn("Crawl run failed",
				logger.Int("pages", orch.Pages()),
				logger.Duration("duration", time.Since(run.startedAt)),
				logger.Error(err),
			)
			future.fail(err)
			return
		}

		log.Info("Crawl run completed",
			logger.Int("pages", orch.Pages()),
			logger.Int("records", len(records)),
			logger.Duration("duration", time.Since(run.startedAt)),
		)
		future.complete(records)
	}()

	return future, nil
}

func (r *CrawlRunner) saveHistory(run *crawlRun, pages, records int, runErr error, log logger.Logger) {
	if r.history == nil {
		return
	}

	finished := time.Now()
	h := &models.CrawlHistory{
		ID:         run.id,
		Tag:        run.tag,
		SeedURL:    run.seedURL,
		Status:     models.RunStateCompleted.String(),
		Pages:      pages,
		Records:    records,
		StartedAt:  run.startedAt,
		FinishedAt: finished,
		DurationMS: finished.Sub(run.startedAt).Milliseconds(),
	}
	if runErr != nil {
		h.Status = models.RunStateFailed.String()
		h.Error = runErr.Error()
	}

	// The run context may already be canceled; history is written regardless.
	ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
	defer cancel()
	if err := r.history.SaveRun(ctx, h); err != nil {
		log.Error("Failed to save run history", logger.Error(err))
	}
}
