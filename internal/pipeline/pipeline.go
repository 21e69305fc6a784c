// Package pipeline runs one fetch, extract and append cycle.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pfrederiksen/odds-alchemist/internal/config"
	"github.com/pfrederiksen/odds-alchemist/internal/extract"
	"github.com/pfrederiksen/odds-alchemist/internal/logger"
	"github.com/pfrederiksen/odds-alchemist/internal/odds"
	"github.com/pfrederiksen/odds-alchemist/internal/sink"
)

var (
	// ErrFetch marks a failure to retrieve the source page
	ErrFetch = errors.New("fetch failed")
	// ErrExtract marks a page that could not be read as HTML
	ErrExtract = errors.New("extract failed")
	// ErrAppend marks a sink failure
	ErrAppend = errors.New("append failed")
)

// Fetcher retrieves a page as UTF-8 text
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Extractor turns a page into odds records
type Extractor interface {
	ExtractString(page string) (extract.Result, error)
}

// Report describes one sync run
type Report struct {
	RunID        uuid.UUID     `json:"run_id"`
	URL          string        `json:"url"`
	Range        string        `json:"range"`
	CapturedAt   time.Time     `json:"captured_at"`
	Stats        extract.Stats `json:"stats"`
	Records      []odds.Record `json:"records"`
	UpdatedCells int64         `json:"updated_cells"`
	Appended     bool          `json:"appended"`
}

// Syncer wires a fetcher, an extractor and a sink together
type Syncer struct {
	fetcher   Fetcher
	extractor Extractor
	sink      sink.Sink
	log       *zap.Logger
	metrics   *logger.Metrics
	now       func() time.Time
}

// Option configures a Syncer
type Option func(*Syncer)

// WithMetrics records run counters and timings into m
func WithMetrics(m *logger.Metrics) Option {
	return func(s *Syncer) { s.metrics = m }
}

// WithClock overrides the capture clock
func WithClock(now func() time.Time) Option {
	return func(s *Syncer) { s.now = now }
}

// New creates a Syncer
func New(fetcher Fetcher, extractor Extractor, dst sink.Sink, log *zap.Logger, opts ...Option) *Syncer {
	if log == nil {
		log = zap.NewNop()
	}

	s := &Syncer{
		fetcher:   fetcher,
		extractor: extractor,
		sink:      dst,
		log:       log,
		metrics:   logger.NewMetrics(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Metrics returns the tracker the syncer records into
func (s *Syncer) Metrics() *logger.Metrics {
	return s.metrics
}

// Sync fetches url, extracts its odds and appends them to rangeID.
// A page without odds is not an error: the report comes back with
// Appended false and the sink is never called.
func (s *Syncer) Sync(ctx context.Context, url, rangeID string) (*Report, error) {
	s.metrics.IncrCounter("sync.runs")

	report := &Report{
		RunID: uuid.New(),
		URL:   url,
		Range: rangeID,
	}
	log := s.log.With(zap.String("run_id", report.RunID.String()), zap.String("url", url))

	start := time.Now()
	page, err := s.fetcher.Fetch(ctx, url)
	s.metrics.Since("sync.fetch", start)
	if err != nil {
		s.metrics.IncrCounter("sync.failures")
		return report, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	result, err := s.extractor.ExtractString(page)
	if err != nil {
		s.metrics.IncrCounter("sync.failures")
		return report, fmt.Errorf("%w: %w", ErrExtract, err)
	}
	report.Stats = result.Stats
	report.Records = result.Records
	s.metrics.SetGauge("sync.records", float64(len(result.Records)))

	if len(result.Records) == 0 {
		log.Warn("no odds data found", zap.Int("rows_scanned", result.Stats.RowsScanned))
		s.metrics.IncrCounter("sync.empty")
		return report, nil
	}

	report.CapturedAt = s.now()
	batch := sink.NewBatch(report.RunID, rangeID, report.CapturedAt, result.Records)

	start = time.Now()
	updated, err := s.sink.Append(ctx, batch)
	s.metrics.Since("sync.append", start)
	if err != nil {
		s.metrics.IncrCounter("sync.failures")
		return report, fmt.Errorf("%w: %w", ErrAppend, err)
	}

	report.UpdatedCells = updated
	report.Appended = true
	s.metrics.IncrCounter("sync.appended")

	log.Info("saved rows",
		zap.Int("rows", len(result.Records)),
		zap.Int64("updated_cells", updated),
		zap.String("range", rangeID),
	)
	return report, nil
}

// NewScanner builds the extraction scanner described by cfg
func NewScanner(cfg config.ExtractConfig, log *zap.Logger) (*extract.Scanner, error) {
	if log == nil {
		log = zap.NewNop()
	}

	strategy, err := extract.ParseStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}

	parser := odds.NewParser(cfg.Sentinels, log)
	hooks := extract.Hooks{
		Row:    cfg.SelectorRow,
		Number: cfg.SelectorNumber,
		Name:   cfg.SelectorName,
		Win:    cfg.SelectorWin,
		Place:  cfg.SelectorPlace,
	}

	classifier, err := extract.NewClassifier(strategy, hooks, parser)
	if err != nil {
		return nil, err
	}

	rows := extract.RowSelector(strategy, cfg.RowSelector, hooks)
	log.Debug("scanner configured",
		zap.String("strategy", string(strategy)),
		zap.String("rows", rows),
		zap.Strings("sentinels", parser.Sentinels()),
	)
	return extract.NewScanner(rows, classifier, log)
}
