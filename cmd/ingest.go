package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lexcorpus/crawler/internal/config"
	"github.com/lexcorpus/crawler/internal/enumerator"
	"github.com/lexcorpus/crawler/internal/fetcher"
	"github.com/lexcorpus/crawler/internal/logging"
	"github.com/lexcorpus/crawler/internal/metrics"
	"github.com/lexcorpus/crawler/internal/parser"
	"github.com/lexcorpus/crawler/internal/pipeline"
	"github.com/lexcorpus/crawler/internal/ratelimit"
	"github.com/lexcorpus/crawler/internal/store"
)

// newIngestCmd creates the 'ingest' subcommand, which runs a full
// enumeration-fetch-parse pass over the corpus.
func newIngestCmd() *cobra.Command {
	var (
		limit   int
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Enumerates, fetches and parses the legislative corpus",
		Long: `Retrieves the source index, then sequentially fetches and parses
every known document into a structured act record. Documents whose
content cannot be fetched or parsed still produce a metadata-only
fallback record. By default a run resumes from existing output; use
--refresh to force a full re-fetch.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("limit") {
				cfg.Run.Limit = limit
			}
			if cmd.Flags().Changed("refresh") {
				cfg.Run.Refresh = refresh
			}
			return runIngest(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "cap the number of documents processed (0 = all)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "re-fetch and re-parse documents with existing output")

	return cmd
}

func runIngest(ctx context.Context, cfg config.Config, out io.Writer) error {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	metrics.Init()

	recordStore, err := store.New(cfg.Output.Dir)
	if err != nil {
		return fmt.Errorf("init record store: %w", err)
	}

	pacer := ratelimit.New(cfg.Fetch.MinDelay())
	docFetcher := fetcher.New(fetcher.Config{
		UserAgent:      cfg.Fetch.UserAgent,
		Timeout:        cfg.Fetch.Timeout(),
		MaxRetries:     cfg.Fetch.MaxRetries,
		BackoffInitial: cfg.Fetch.BackoffInitial(),
		BackoffMax:     cfg.Fetch.BackoffMax(),
	}, pacer, logger.Named("fetcher"))

	enum := enumerator.New(enumerator.Config{
		IndexURL:           cfg.Source.IndexURL,
		BaseURL:            cfg.Source.BaseURL,
		DetailPathTemplate: cfg.Source.DetailPathTemplate,
	}, docFetcher, logger.Named("enumerator"))

	docParser := parser.New(parser.Limits{
		MaxBodyChars:       cfg.Parser.MaxBodyChars,
		MinBodyChars:       cfg.Parser.MinBodyChars,
		MaxTermChars:       cfg.Parser.MaxTermChars,
		MinDefinitionChars: cfg.Parser.MinDefinitionChars,
		MaxDefinitionChars: cfg.Parser.MaxDefinitionChars,
		HeadingFallback:    cfg.Parser.HeadingFallback,
	})

	pipe := pipeline.New(pipeline.Config{
		Limit:   cfg.Run.Limit,
		Refresh: cfg.Run.Refresh,
	}, enum, docFetcher, docParser, recordStore, logger.Named("pipeline"))

	summary, err := pipe.Run(ctx)
	if err != nil {
		return fmt.Errorf("ingestion run: %w", err)
	}
	summary.Render(out)
	return nil
}
