package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/pfrederiksen/odds-alchemist/internal/odds"
	"go.uber.org/zap"
)

// DefaultRowSelector selects the candidate rows of a document
const DefaultRowSelector = "tr"

// maxFragment caps the row HTML attached to a failure log entry
const maxFragment = 2048

// RowSelector returns the candidate-row selector for a strategy. The selector
// strategy scans what its row hook marks, whatever the element; auto scans
// both the generic rows and the hooked ones. An empty rowSelector means
// DefaultRowSelector.
func RowSelector(strategy Strategy, rowSelector string, hooks Hooks) string {
	if rowSelector == "" {
		rowSelector = DefaultRowSelector
	}
	hookRow := hooks.withDefaults().Row

	switch strategy {
	case StrategySelector:
		return hookRow
	case StrategyAuto:
		if hookRow == rowSelector {
			return rowSelector
		}
		return rowSelector + ", " + hookRow
	default:
		return rowSelector
	}
}

// Stats summarises one scan
type Stats struct {
	RowsScanned int `json:"rows_scanned"`
	Records     int `json:"records"`
	Rejected    int `json:"rejected"`
	Failed      int `json:"failed"`
}

// Result is the outcome of scanning one document
type Result struct {
	Records []odds.Record `json:"records"`
	Stats   Stats         `json:"stats"`
}

// Scanner runs a Classifier over every candidate row of a document.
// A Scanner holds no per-call state and may be shared between goroutines.
type Scanner struct {
	rows       goquery.Matcher
	classifier Classifier
	log        *zap.Logger
}

// NewScanner creates a Scanner. An empty rowSelector uses DefaultRowSelector;
// a nil logger disables logging.
func NewScanner(rowSelector string, classifier Classifier, log *zap.Logger) (*Scanner, error) {
	if classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if rowSelector == "" {
		rowSelector = DefaultRowSelector
	}
	rows, err := cascadia.Compile(rowSelector)
	if err != nil {
		return nil, fmt.Errorf("compiling row selector %q: %w", rowSelector, err)
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Scanner{
		rows:       rows,
		classifier: classifier,
		log:        log,
	}, nil
}

// Extract parses HTML from r and scans it. Malformed markup is repaired by the
// HTML parser; only a read failure is reported as an error.
func (s *Scanner) Extract(r io.Reader) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("parsing HTML: %w", err)
	}
	return s.Scan(doc), nil
}

// ExtractString is Extract for an in-memory page
func (s *Scanner) ExtractString(page string) (Result, error) {
	return s.Extract(strings.NewReader(page))
}

// outcome is the classification of a single row
type outcome struct {
	record odds.Record
	ok     bool
	err    error
}

// Scan classifies every candidate row of doc. Records keep document order.
func (s *Scanner) Scan(doc *goquery.Document) Result {
	rows := doc.FindMatcher(s.rows)

	outcomes := make([]outcome, 0, rows.Length())
	rows.Each(func(_ int, row *goquery.Selection) {
		outcomes = append(outcomes, s.classify(row))
	})

	result := Result{
		Records: make([]odds.Record, 0, len(outcomes)),
		Stats:   Stats{RowsScanned: len(outcomes)},
	}

	for i, o := range outcomes {
		switch {
		case o.err != nil:
			result.Stats.Failed++
			s.log.Warn("skipping row",
				zap.Int("row", i),
				zap.String("html", fragment(rows.Eq(i))),
				zap.Error(o.err),
			)
		case o.ok:
			result.Records = append(result.Records, o.record)
		default:
			result.Stats.Rejected++
		}
	}
	result.Stats.Records = len(result.Records)

	s.log.Info("extraction complete",
		zap.Int("records", result.Stats.Records),
		zap.Int("rows_scanned", result.Stats.RowsScanned),
		zap.Int("rejected", result.Stats.Rejected),
		zap.Int("failed", result.Stats.Failed),
	)

	return result
}

// classify runs the classifier on one row, turning a panic into a failure
func (s *Scanner) classify(row *goquery.Selection) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			o = outcome{err: fmt.Errorf("classifier panic: %v", r)}
		}
	}()

	rec, ok, err := s.classifier.Classify(row)
	if err != nil {
		return outcome{err: err}
	}
	return outcome{record: rec, ok: ok}
}

// fragment renders a row for diagnostics
func fragment(row *goquery.Selection) string {
	out, err := goquery.OuterHtml(row)
	if err != nil {
		return fmt.Sprintf("<unrenderable row: %v>", err)
	}
	if len(out) > maxFragment {
		out = out[:maxFragment] + "..."
	}
	return out
}
