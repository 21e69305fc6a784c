package cli

import (
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pfrederiksen/odds-alchemist/internal/api"
	"github.com/pfrederiksen/odds-alchemist/internal/logger"
	"github.com/pfrederiksen/odds-alchemist/internal/pipeline"
)

func (a *app) serveCmd() *cobra.Command {
	var flagPort string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the extraction API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if err := cfg.Validate(); err != nil {
				return err
			}

			addr := cfg.Port
			if flagPort != "" {
				addr = flagPort
			}
			if !strings.Contains(addr, ":") {
				addr = ":" + addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			scanner, err := pipeline.NewScanner(cfg.Extract, a.log)
			if err != nil {
				return err
			}

			metrics := logger.NewMetrics()
			syncer, closeSink, err := newSyncer(ctx, cmd.OutOrStdout(), cfg, a.log, pipeline.WithMetrics(metrics))
			if err != nil {
				return err
			}
			defer closeSink()

			a.log.Info("serving",
				zap.String("addr", addr),
				zap.String("sink", cfg.Sink.Kind),
				zap.String("strategy", cfg.Extract.Strategy),
			)

			srv := api.NewServer(api.Options{
				Extractor:    scanner,
				Syncer:       syncer,
				Metrics:      metrics,
				DefaultURL:   cfg.TargetURL,
				DefaultRange: cfg.SheetRange,
			}, a.log)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&flagPort, "port", "", "Listen address or port (default: PORT)")

	return cmd
}
