package sink

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/extra/bundebug"
	"go.uber.org/zap"

	"github.com/pfrederiksen/odds-alchemist/internal/odds"
)

// OddsRow is one appended record in the odds_rows table
type OddsRow struct {
	bun.BaseModel `bun:"table:odds_rows,alias:o"`

	ID           int64               `bun:"id,pk,autoincrement"`
	RunID        uuid.UUID           `bun:"run_id,type:uuid,notnull"`
	SheetRange   string              `bun:"sheet_range,notnull"`
	CapturedAt   time.Time           `bun:"captured_at,notnull"`
	HorseNumber  string              `bun:"horse_number,notnull"`
	HorseName    string              `bun:"horse_name,notnull"`
	WinOdds      decimal.NullDecimal `bun:"win_odds,type:numeric"`
	PlaceOddsMin decimal.NullDecimal `bun:"place_odds_min,type:numeric"`
	PlaceOddsMax decimal.NullDecimal `bun:"place_odds_max,type:numeric"`
}

// OpenPostgres opens a PostgreSQL connection through lib/pq and pings it.
// Debug mode logs every query.
func OpenPostgres(dsn string, debug bool) (*bun.DB, error) {
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return db, nil
}

// PostgresSink inserts each record as an odds_rows row
type PostgresSink struct {
	db  *bun.DB
	log *zap.Logger
}

// NewPostgresSink wraps an open database
func NewPostgresSink(db *bun.DB, log *zap.Logger) *PostgresSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &PostgresSink{db: db, log: log}
}

// EnsureSchema creates the odds_rows table if it does not exist
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*OddsRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("creating odds_rows table: %w", err)
	}

	idx := `CREATE INDEX IF NOT EXISTS odds_rows_run_id_idx ON odds_rows (run_id)`
	if _, err := s.db.ExecContext(ctx, idx); err != nil {
		return fmt.Errorf("creating odds_rows index: %w", err)
	}
	return nil
}

// Append bulk-inserts the batch in one statement
func (s *PostgresSink) Append(ctx context.Context, b Batch) (int64, error) {
	rows := oddsRows(b)
	if len(rows) == 0 {
		return 0, nil
	}

	res, err := s.db.NewInsert().Model(&rows).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("inserting odds rows: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading inserted row count: %w", err)
	}

	updated := n * odds.SheetColumns
	s.log.Info("odds rows inserted",
		zap.String("run_id", b.RunID.String()),
		zap.String("range", b.Range),
		zap.Int64("rows", n),
		zap.Int64("updated_cells", updated),
	)
	return updated, nil
}

// Close closes the underlying database
func (s *PostgresSink) Close() error {
	return s.db.Close()
}

func oddsRows(b Batch) []OddsRow {
	rows := make([]OddsRow, 0, len(b.Records))
	for _, r := range b.Records {
		rows = append(rows, OddsRow{
			RunID:        b.RunID,
			SheetRange:   b.Range,
			CapturedAt:   b.CapturedAt,
			HorseNumber:  r.HorseNumber,
			HorseName:    r.HorseName,
			WinOdds:      r.WinOdds,
			PlaceOddsMin: r.PlaceOddsMin,
			PlaceOddsMax: r.PlaceOddsMax,
		})
	}
	return rows
}
