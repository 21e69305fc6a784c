package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// DryRunSink prints what would be appended without writing anywhere
type DryRunSink struct {
	mu  sync.Mutex
	out io.Writer
}

// NewDryRunSink creates a dry-run sink writing to out (stdout if nil)
func NewDryRunSink(out io.Writer) *DryRunSink {
	if out == nil {
		out = os.Stdout
	}
	return &DryRunSink{out: out}
}

// Append prints the batch rows, tab separated
func (s *DryRunSink) Append(ctx context.Context, b Batch) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fmt.Fprintf(s.out, "--- Append %d rows to %s (run %s) ---\n", len(b.Records), b.Range, b.RunID)
	for _, row := range b.Rows() {
		cols := make([]string, len(row))
		for i, v := range row {
			cols[i] = fmt.Sprint(v)
		}
		fmt.Fprintln(s.out, strings.Join(cols, "\t"))
	}
	fmt.Fprintln(s.out)

	return b.Cells(), nil
}
