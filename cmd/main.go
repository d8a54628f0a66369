// Package main provides the quote spider CLI.
//
// Usage:
//
//	quote_spider serve
//	quote_spider crawl --tag life --tag love
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"quote_spider/internal/config"
	"quote_spider/internal/logger"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote_spider",
		Short: "Crawl quote listings by tag",
		Long: `quote_spider follows the paginated listing for a tag and collects every
quote (text and author) it finds. Run it once from the command line with
"crawl" or serve it over HTTP with "serve".`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", config.DefaultPath, "Path to the YAML config file")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewCrawlCmd())

	return cmd
}

// setup loads the config named by the persistent flags and builds a logger.
func setup(cmd *cobra.Command) (*config.SpiderConfig, logger.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
