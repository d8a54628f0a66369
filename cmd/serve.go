package main

import (
	"quote_spider/internal/app"
	"quote_spider/internal/logger"
	"quote_spider/internal/server"

	"github.com/spf13/cobra"
)

func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve crawl requests over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	spiderApp, err := app.NewSpiderApp(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to start spider", logger.Error(err))
		return err
	}
	defer func() {
		if err := spiderApp.Close(); err != nil {
			log.Warn("Failed to close run history", logger.Error(err))
		}
	}()

	var history server.RunHistory
	if store, ok := spiderApp.History(); ok {
		history = store
	}

	return server.New(cfg.Server, spiderApp.Runner(), history, log).Run(ctx)
}
