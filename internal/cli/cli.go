package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pfrederiksen/odds-alchemist/internal/config"
	"github.com/pfrederiksen/odds-alchemist/internal/logger"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	ExitNoOdds  = 2
)

// errNoOdds is returned by sync when the page held no odds
var errNoOdds = errors.New("no odds data found")

// app carries state shared by every subcommand
type app struct {
	envFile string
	debug   bool

	cfg *config.Config
	log *zap.Logger

	// newLogger builds the logger once config is loaded; tests swap it out
	newLogger func(debug bool, stderr io.Writer) (*zap.Logger, error)
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{
		newLogger: func(debug bool, _ io.Writer) (*zap.Logger, error) {
			return logger.New(debug)
		},
	}
	return a.rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "odds-alchemist",
		Short: "Extract horse racing odds from race pages",
		Long: `A CLI tool to extract win and place odds from horse racing pages.
Finds odds tables by row shape, then appends one timestamped row per horse
to a spreadsheet, database, stream, or CSV file.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&a.envFile, "env-file", "", "Path to a .env file (default: ./.env if present)")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(a.extractCmd(), a.syncCmd(), a.serveCmd())
	return cmd
}

// setup loads configuration and builds the logger before any subcommand runs
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	if a.debug {
		cfg.Debug = true
	}

	log, err := a.newLogger(cfg.Debug, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	a.cfg = cfg
	a.log = log
	return nil
}

// Execute runs the CLI
func Execute() {
	os.Exit(run(NewRootCmd()))
}

func run(cmd *cobra.Command) int {
	err := cmd.Execute()
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errNoOdds):
		fmt.Fprintln(cmd.ErrOrStderr(), "No odds data found.")
		return ExitNoOdds
	default:
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return ExitError
	}
}
