package sink

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/pfrederiksen/odds-alchemist/internal/config"
	"github.com/pfrederiksen/odds-alchemist/internal/odds"
)

// Batch is the unit handed to a sink: the records of one run
type Batch struct {
	RunID      uuid.UUID
	CapturedAt time.Time
	Range      string
	Records    []odds.Record
}

// NewBatch creates a batch for one run. A zero runID gets a fresh one.
func NewBatch(runID uuid.UUID, rangeID string, capturedAt time.Time, records []odds.Record) Batch {
	if runID == uuid.Nil {
		runID = uuid.New()
	}
	return Batch{
		RunID:      runID,
		CapturedAt: capturedAt,
		Range:      rangeID,
		Records:    records,
	}
}

// Rows renders the batch as 6-column tuples sharing one timestamp
func (b Batch) Rows() [][]interface{} {
	return odds.SheetRows(b.Records, b.CapturedAt)
}

// Timestamp returns the capture time in the sheet timestamp layout
func (b Batch) Timestamp() string {
	return b.CapturedAt.Format(odds.TimestampLayout)
}

// Cells returns the number of cells the batch occupies
func (b Batch) Cells() int64 {
	return int64(len(b.Records) * odds.SheetColumns)
}

// Sink appends batches and reports the number of cells written
type Sink interface {
	Append(ctx context.Context, b Batch) (int64, error)
}

// Close releases resources held by s, if it holds any
func Close(s Sink) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// New builds the sink selected by cfg.Sink.Kind.
// out receives dry-run output.
func New(ctx context.Context, cfg *config.Config, out io.Writer, log *zap.Logger) (Sink, error) {
	if log == nil {
		log = zap.NewNop()
	}

	sc := cfg.Sink
	switch sc.Kind {
	case config.SinkDryRun, "":
		return NewDryRunSink(out), nil

	case config.SinkSheets:
		return NewSheetsSink(ctx, sc.SpreadsheetID, log, option.WithCredentialsFile(sc.CredentialsFile))

	case config.SinkPostgres:
		db, err := OpenPostgres(sc.PostgresDSN(), cfg.Debug)
		if err != nil {
			return nil, err
		}
		s := NewPostgresSink(db, log)
		if err := s.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return s, nil

	case config.SinkRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     sc.RedisAddr,
			Password: sc.RedisPassword,
			DB:       sc.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connecting to redis at %s: %w", sc.RedisAddr, err)
		}
		return NewRedisSink(client, sc.StreamPrefix, log), nil

	case config.SinkFile:
		return NewFileSink(sc.DataDir, log)

	default:
		return nil, fmt.Errorf("unknown sink %q", sc.Kind)
	}
}
