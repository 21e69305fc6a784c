package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/pfrederiksen/odds-alchemist/internal/extract"
	"github.com/pfrederiksen/odds-alchemist/internal/pipeline"
	"github.com/pfrederiksen/odds-alchemist/internal/scraper"
)

func (a *app) extractCmd() *cobra.Command {
	var (
		flagFile     string
		flagURL      string
		flagFormat   string
		flagStrategy string
		flagSort     string
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Print the odds found in a page",
		Long: `Extract odds records from a page and print them.
Reads --file, fetches --url, or reads HTML from stdin when neither is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagFile != "" && flagURL != "" {
				return fmt.Errorf("--file and --url are mutually exclusive")
			}

			format, err := ParseFormat(flagFormat)
			if err != nil {
				return err
			}
			order, err := ParseSortOrder(flagSort)
			if err != nil {
				return err
			}

			cfg := a.cfg.Extract
			if cmd.Flags().Changed("strategy") {
				cfg.Strategy = flagStrategy
			}

			scanner, err := pipeline.NewScanner(cfg, a.log)
			if err != nil {
				return err
			}

			source, result, err := a.extractFrom(cmd, scanner, flagFile, flagURL)
			if err != nil {
				return err
			}

			sortRecords(result.Records, order)

			return WriteOutput(cmd.OutOrStdout(), &OutputResult{
				CheckedAt: time.Now().UTC(),
				Source:    source,
				Records:   result.Records,
				Stats:     result.Stats,
			}, format, a.cfg.Debug)
		},
	}

	cmd.Flags().StringVar(&flagFile, "file", "", "Read HTML from a file")
	cmd.Flags().StringVar(&flagURL, "url", "", "Fetch HTML from a URL")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&flagStrategy, "strategy", "", "Extraction strategy: pattern, selector or auto")
	cmd.Flags().StringVar(&flagSort, "sort", "page", "Sort order: page, number, name or win")

	return cmd
}

func (a *app) extractFrom(cmd *cobra.Command, scanner *extract.Scanner, file, url string) (string, extract.Result, error) {
	switch {
	case url != "":
		fetcher := scraper.New(scraper.Options{
			Timeout:   a.cfg.Fetch.Timeout,
			UserAgent: a.cfg.Fetch.UserAgent,
		}, a.log)

		page, err := fetcher.Fetch(cmd.Context(), url)
		if err != nil {
			return url, extract.Result{}, fmt.Errorf("fetching page: %w", err)
		}
		result, err := scanner.ExtractString(page)
		return url, result, err

	case file != "":
		f, err := os.Open(file)
		if err != nil {
			return file, extract.Result{}, fmt.Errorf("opening page: %w", err)
		}
		defer f.Close()

		result, err := a.extractLocal(scanner, f, file)
		return file, result, err

	default:
		result, err := a.extractLocal(scanner, cmd.InOrStdin(), "stdin")
		return "stdin", result, err
	}
}

// extractLocal decodes a saved page to UTF-8, honouring a BOM or <meta charset>
func (a *app) extractLocal(scanner *extract.Scanner, r io.Reader, name string) (extract.Result, error) {
	decoded, err := charset.NewReader(r, "")
	if err != nil {
		return extract.Result{}, fmt.Errorf("decoding %s: %w", name, err)
	}

	a.log.Debug("extracting local page", zap.String("source", name))
	return scanner.Extract(decoded)
}
