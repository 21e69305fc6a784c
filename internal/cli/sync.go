package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pfrederiksen/odds-alchemist/internal/config"
	"github.com/pfrederiksen/odds-alchemist/internal/pipeline"
	"github.com/pfrederiksen/odds-alchemist/internal/scraper"
	"github.com/pfrederiksen/odds-alchemist/internal/sink"
)

func (a *app) syncCmd() *cobra.Command {
	var (
		flagURL    string
		flagRange  string
		flagSink   string
		flagFormat string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch a page once and append its odds",
		Long: `Fetch the target page, extract its odds, and append one row per horse
to the configured sink. Exits with status 2 when the page has no odds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ParseFormat(flagFormat)
			if err != nil {
				return err
			}

			cfg := *a.cfg
			if flagURL != "" {
				cfg.TargetURL = flagURL
			}
			if flagRange != "" {
				cfg.SheetRange = flagRange
			}
			if flagSink != "" {
				cfg.Sink.Kind = strings.ToLower(flagSink)
			}
			if cfg.TargetURL == "" {
				return fmt.Errorf("no target URL: set TARGET_URL or pass --url")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			syncer, closeSink, err := newSyncer(cmd.Context(), cmd.OutOrStdout(), &cfg, a.log)
			if err != nil {
				return err
			}
			defer closeSink()

			report, err := syncer.Sync(cmd.Context(), cfg.TargetURL, cfg.SheetRange)
			if err != nil {
				a.log.Error("sync failed", zap.Error(err))
				return err
			}

			if err := WriteOutput(cmd.OutOrStdout(), &OutputResult{
				CheckedAt: time.Now().UTC(),
				Source:    report.URL,
				Records:   report.Records,
				Stats:     report.Stats,
				Report:    report,
			}, format, cfg.Debug); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}

			if !report.Appended {
				return errNoOdds
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagURL, "url", "", "Page to fetch (default: TARGET_URL)")
	cmd.Flags().StringVar(&flagRange, "range", "", "Destination range (default: SHEET_RANGE)")
	cmd.Flags().StringVar(&flagSink, "sink", "", "Sink: dryrun, sheets, postgres, redis or file (default: SINK)")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")

	return cmd
}

// newSyncer builds the fetcher, scanner and sink described by cfg.
// The returned func releases the sink.
func newSyncer(ctx context.Context, out io.Writer, cfg *config.Config, log *zap.Logger, opts ...pipeline.Option) (*pipeline.Syncer, func(), error) {
	scanner, err := pipeline.NewScanner(cfg.Extract, log)
	if err != nil {
		return nil, nil, err
	}

	dst, err := sink.New(ctx, cfg, out, log)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing sink: %w", err)
	}

	fetcher := scraper.New(scraper.Options{
		Timeout:   cfg.Fetch.Timeout,
		UserAgent: cfg.Fetch.UserAgent,
	}, log)

	closeSink := func() {
		if err := sink.Close(dst); err != nil {
			log.Warn("closing sink", zap.Error(err))
		}
	}
	return pipeline.New(fetcher, scanner, dst, log, opts...), closeSink, nil
}
