package sink

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ApplicationName identifies this client to the Sheets API
const ApplicationName = "Odds Alchemist"

// valueInputOption makes Sheets interpret values as if typed by a user,
// so odds become numbers and the timestamp a date.
const valueInputOption = "USER_ENTERED"

// SheetsSink appends rows to a Google spreadsheet
type SheetsSink struct {
	svc           *sheets.Service
	spreadsheetID string
	log           *zap.Logger
}

// NewSheetsSink creates a Sheets client for spreadsheetID.
// opts normally carry the service-account credentials file.
func NewSheetsSink(ctx context.Context, spreadsheetID string, log *zap.Logger, opts ...option.ClientOption) (*SheetsSink, error) {
	if log == nil {
		log = zap.NewNop()
	}

	opts = append([]option.ClientOption{
		option.WithScopes(sheets.SpreadsheetsScope),
		option.WithUserAgent(ApplicationName),
	}, opts...)

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &SheetsSink{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		log:           log,
	}, nil
}

// Append adds the batch rows after the last row of b.Range
func (s *SheetsSink) Append(ctx context.Context, b Batch) (int64, error) {
	body := &sheets.ValueRange{Values: b.Rows()}

	resp, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, b.Range, body).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("appending to sheet %s: %w", b.Range, err)
	}

	var updated int64
	if resp.Updates != nil {
		updated = resp.Updates.UpdatedCells
	}

	s.log.Info("sheet updated",
		zap.String("run_id", b.RunID.String()),
		zap.String("range", b.Range),
		zap.Int64("updated_cells", updated),
	)
	return updated, nil
}
