package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNewWithWriter_Levels(t *testing.T) {
	tests := []struct {
		name      string
		debug     bool
		logDebug  bool
		shouldLog bool
	}{
		{name: "debug logs in debug mode", debug: true, logDebug: true, shouldLog: true},
		{name: "debug dropped in info mode", debug: false, logDebug: true, shouldLog: false},
		{name: "info logs in info mode", debug: false, logDebug: false, shouldLog: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewWithWriter(tt.debug, &buf)

			if tt.logDebug {
				log.Debug("test")
			} else {
				log.Info("test")
			}

			if logged := buf.Len() > 0; logged != tt.shouldLog {
				t.Errorf("logged = %v, want %v", logged, tt.shouldLog)
			}
		})
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(false, &buf)

	log.Info("saved rows", zap.Int("rows", 18), zap.String("range", "Sheet1!A:F"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if entry["msg"] != "saved rows" {
		t.Errorf("msg = %v, want 'saved rows'", entry["msg"])
	}
	if entry["rows"] != float64(18) {
		t.Errorf("rows = %v, want 18", entry["rows"])
	}
	ts, _ := entry["ts"].(string)
	if !strings.Contains(ts, "T") {
		t.Errorf("ts = %q, want ISO8601", ts)
	}
}

func TestNew(t *testing.T) {
	log, err := New(true)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !log.Core().Enabled(zap.DebugLevel) {
		t.Error("debug logger should enable debug level")
	}
}

func TestMetrics_Counter(t *testing.T) {
	m := NewMetrics()

	m.IncrCounter("sync.runs")
	m.IncrCounter("sync.runs")
	m.IncrCounter("sync.runs")

	if got := m.Snapshot().Counters["sync.runs"]; got != 3 {
		t.Errorf("Counter = %v, want 3", got)
	}
}

func TestMetrics_Gauge(t *testing.T) {
	m := NewMetrics()

	m.SetGauge("sync.records", 12)
	m.SetGauge("sync.records", 18)

	if got := m.Snapshot().Gauges["sync.records"]; got != 18 {
		t.Errorf("Gauge = %v, want 18", got)
	}
}

func TestMetrics_Timing(t *testing.T) {
	m := NewMetrics()

	m.RecordTiming("sync.fetch", 100*time.Millisecond)
	m.RecordTiming("sync.fetch", 200*time.Millisecond)
	m.RecordTiming("sync.fetch", 150*time.Millisecond)

	stats := m.Snapshot().Timings["sync.fetch"]
	if stats.Count != 3 {
		t.Errorf("Timing count = %v, want 3", stats.Count)
	}
	if stats.Min != "100ms" {
		t.Errorf("Min timing = %v, want 100ms", stats.Min)
	}
	if stats.Max != "200ms" {
		t.Errorf("Max timing = %v, want 200ms", stats.Max)
	}
	if stats.Average != "150ms" {
		t.Errorf("Average timing = %v, want 150ms", stats.Average)
	}
}

func TestMetrics_SnapshotIsCopy(t *testing.T) {
	m := NewMetrics()
	m.IncrCounter("a")

	snap := m.Snapshot()
	m.IncrCounter("a")

	if snap.Counters["a"] != 1 {
		t.Errorf("snapshot changed after update: %v", snap.Counters["a"])
	}
}

func TestMetrics_Concurrent(t *testing.T) {
	m := NewMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncrCounter("hits")
			m.Since("work", time.Now())
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	if snap.Counters["hits"] != 50 {
		t.Errorf("hits = %d, want 50", snap.Counters["hits"])
	}
	if snap.Timings["work"].Count != 50 {
		t.Errorf("work count = %d, want 50", snap.Timings["work"].Count)
	}
}
