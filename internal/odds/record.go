package odds

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the capture timestamp format written in the first
// column of every sheet row.
const TimestampLayout = "2006/01/02 15:04:05"

// SheetColumns is the width of the row handed to append sinks.
const SheetColumns = 6

// Record represents the odds of one horse in one race
type Record struct {
	HorseNumber  string              `json:"horse_number"`
	HorseName    string              `json:"horse_name"`
	WinOdds      decimal.NullDecimal `json:"win_odds"`
	PlaceOddsMin decimal.NullDecimal `json:"place_odds_min"`
	PlaceOddsMax decimal.NullDecimal `json:"place_odds_max"`
}

// NewRecord creates a Record with no odds attached
func NewRecord(number, name string) Record {
	return Record{
		HorseNumber: number,
		HorseName:   name,
	}
}

// WithWin returns a copy of r carrying the given win odds
func (r Record) WithWin(win decimal.NullDecimal) Record {
	r.WinOdds = win
	return r
}

// WithPlace returns a copy of r carrying the given place odds range
func (r Record) WithPlace(min, max decimal.NullDecimal) Record {
	r.PlaceOddsMin = min
	r.PlaceOddsMax = max
	return r
}

// SheetRow renders the record as the fixed 6-column append tuple:
// timestamp, number, name, win, place min, place max.
// Absent odds are written as empty strings.
func (r Record) SheetRow(timestamp string) []interface{} {
	return []interface{}{
		timestamp,
		r.HorseNumber,
		r.HorseName,
		FormatOdds(r.WinOdds),
		FormatOdds(r.PlaceOddsMin),
		FormatOdds(r.PlaceOddsMax),
	}
}

// SheetRows renders records in order, sharing one timestamp taken from at
func SheetRows(records []Record, at time.Time) [][]interface{} {
	timestamp := at.Format(TimestampLayout)

	rows := make([][]interface{}, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.SheetRow(timestamp))
	}
	return rows
}

// FormatOdds returns the decimal text of v, or "" when v is absent
func FormatOdds(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.String()
}
