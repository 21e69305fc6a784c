package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// FileSink appends rows to CSV files, one per range
type FileSink struct {
	mu      sync.Mutex
	dataDir string
	log     *zap.Logger
}

// NewFileSink creates a FileSink rooted at dataDir, creating it if needed
func NewFileSink(dataDir string, log *zap.Logger) (*FileSink, error) {
	if log == nil {
		log = zap.NewNop()
	}

	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &FileSink{dataDir: dataDir, log: log}, nil
}

// Path returns the CSV file a range is appended to
func (s *FileSink) Path(rangeID string) string {
	name := strings.Trim(unsafeFileChars.ReplaceAllString(rangeID, "_"), "_")
	if name == "" {
		name = "odds"
	}
	return filepath.Join(s.dataDir, name+".csv")
}

// Append writes the batch rows at the end of the range's CSV file
func (s *FileSink) Append(ctx context.Context, b Batch) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(b.Records) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(b.Range)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, row := range b.Rows() {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = fmt.Sprint(v)
		}
		if err := w.Write(record); err != nil {
			return 0, fmt.Errorf("writing %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}

	updated := b.Cells()
	s.log.Info("csv appended",
		zap.String("run_id", b.RunID.String()),
		zap.String("path", path),
		zap.Int("rows", len(b.Records)),
	)
	return updated, nil
}
