package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pfrederiksen/odds-alchemist/internal/extract"
	"github.com/pfrederiksen/odds-alchemist/internal/odds"
	"github.com/pfrederiksen/odds-alchemist/internal/pipeline"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// ParseFormat validates an output format name
func ParseFormat(name string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(name)))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", name)
	}
	return format, nil
}

// OutputResult contains data to be output
type OutputResult struct {
	CheckedAt time.Time        `json:"checked_at"`
	Source    string           `json:"source"`
	Records   []odds.Record    `json:"records"`
	Stats     extract.Stats    `json:"stats"`
	Report    *pipeline.Report `json:"report,omitempty"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	if result.Records == nil {
		result.Records = []odds.Record{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if len(result.Records) == 0 {
		fmt.Fprintln(w, "No odds found.")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NO\tHORSE\tWIN\tPLACE")
		for _, r := range result.Records {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.HorseNumber, r.HorseName, oddsText(r.WinOdds), placeText(r))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(w, "\nTotal: %d horses\n", len(result.Records))
	}

	if verbose {
		fmt.Fprintf(w, "Source: %s\n", result.Source)
		fmt.Fprintf(w, "Rows scanned: %d, rejected: %d, failed: %d\n",
			result.Stats.RowsScanned, result.Stats.Rejected, result.Stats.Failed)
	}

	if rep := result.Report; rep != nil {
		if rep.Appended {
			fmt.Fprintf(w, "Appended %d rows to %s (%d cells, run %s)\n",
				len(rep.Records), rep.Range, rep.UpdatedCells, rep.RunID)
		} else {
			fmt.Fprintf(w, "Nothing appended to %s\n", rep.Range)
		}
	}

	return nil
}

func oddsText(v decimal.NullDecimal) string {
	if !v.Valid {
		return "-"
	}
	return odds.FormatOdds(v)
}

func placeText(r odds.Record) string {
	switch {
	case r.PlaceOddsMin.Valid && r.PlaceOddsMax.Valid:
		return odds.FormatOdds(r.PlaceOddsMin) + "-" + odds.FormatOdds(r.PlaceOddsMax)
	case r.PlaceOddsMin.Valid:
		return odds.FormatOdds(r.PlaceOddsMin)
	default:
		return "-"
	}
}
