package main

import (
	"encoding/json"
	"fmt"

	"quote_spider/internal/app"
	"quote_spider/internal/logger"

	"github.com/spf13/cobra"
)

func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl one or more tags and print the quotes as JSON",
		Long: `Crawl runs one isolated crawl per tag, concurrently, and prints a JSON
object mapping each tag to its quotes. Any failed tag fails the command.`,
		Example: `  quote_spider crawl --tag life
  quote_spider crawl -t love -t humor`,
		Args: cobra.NoArgs,
		RunE: runCrawl,
	}

	cmd.Flags().StringSliceP("tag", "t", nil, "Tag to crawl (repeatable)")
	_ = cmd.MarkFlagRequired("tag")

	return cmd
}

func runCrawl(cmd *cobra.Command, _ []string) error {
	tags, _ := cmd.Flags().GetStringSlice("tag")

	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	spiderApp, err := app.NewSpiderApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = spiderApp.Close() }()

	results, err := spiderApp.Crawl(ctx, tags)
	if err != nil {
		log.Error("Crawl failed", logger.Strings("tags", tags), logger.Error(err))
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}
