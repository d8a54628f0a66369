package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"quote_spider/internal/config"
	"quote_spider/internal/db"
	"quote_spider/internal/fetcher"
	"quote_spider/internal/logger"
	"quote_spider/internal/models"

	"golang.org/x/sync/errgroup"
)

// SpiderApp wires the configured transport, parser and run history into a
// CrawlRunner.
type SpiderApp struct {
	config *config.SpiderConfig
	db     *db.MongoDB
	runner *CrawlRunner
	log    logger.Logger
}

func NewSpiderApp(ctx context.Context, cfg *config.SpiderConfig, log logger.Logger) (*SpiderApp, error) {
	spiderApp := &SpiderApp{
		config: cfg,
		log:    log,
	}

	opts := []RunnerOption{
		WithLogger(log),
		WithDelay(time.Duration(cfg.Logic.DelayMS) * time.Millisecond),
	}

	if cfg.DB.Enabled() {
		mongoDB, err := db.NewMongoDB(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		spiderApp.db = mongoDB
		opts = append(opts, WithHistory(mongoDB))
		log.Info("Run history enabled", logger.String("database", cfg.DB.Database))
	}

	pageFetcher := fetcher.New(fetcher.Config{
		Timeout:       time.Duration(cfg.Logic.TimeoutSec) * time.Second,
		UserAgent:     cfg.Logic.UserAgent,
		MaxHops:       cfg.Logic.MaxHops,
		RespectRobots: cfg.Logic.RespectRobots,
		MaxBodyBytes:  cfg.Logic.MaxBodyBytes,
	}, log)

	parser := NewPageParser(Selectors{
		Quote:  cfg.Source.Selectors.Quote,
		Text:   cfg.Source.Selectors.Text,
		Author: cfg.Source.Selectors.Author,
		Next:   cfg.Source.Selectors.Next,
	})

	spiderApp.runner = NewCrawlRunner(cfg.Source.BaseURL, pageFetcher, parser, opts...)
	log.Info("Spider configured",
		logger.String("base_url", cfg.Source.BaseURL),
		logger.Bool("respect_robots", cfg.Logic.RespectRobots),
		logger.Bool("history", spiderApp.db != nil),
	)
	return spiderApp, nil
}

func (s *SpiderApp) Runner() *CrawlRunner {
	return s.runner
}

// History returns the run history store, if one is configured.
func (s *SpiderApp) History() (*db.MongoDB, bool) {
	return s.db, s.db != nil
}

// Crawl runs one isolated crawl per distinct tag, concurrently. The first
// failure cancels the other runs.
func (s *SpiderApp) Crawl(ctx context.Context, tags []string) (map[string][]models.Record, error) {
	var (
		mu      sync.Mutex
		results = make(map[string][]models.Record, len(tags))
	)

	g, gctx := errgroup.WithContext(ctx)
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if seen[tag] {
			continue
		}
		seen[tag] = true

		g.Go(func() error {
			future, err := s.runner.Start(gctx, models.CrawlRequest{Tag: tag})
			if err != nil {
				return fmt.Errorf("tag %q: %w", tag, err)
			}
			records, err := future.Wait(gctx)
			if err != nil {
				return fmt.Errorf("tag %q: %w", tag, err)
			}

			mu.Lock()
			results[tag] = records
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *SpiderApp) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
