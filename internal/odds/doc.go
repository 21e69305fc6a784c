// Package odds defines the race-odds record extracted from a page and the
// parser that turns odds cell text into optional decimals.
//
// A Record always carries a horse number and name; win and place odds are
// independently optional and use decimal.NullDecimal so absent values survive
// JSON, SQL and spreadsheet round trips without sentinel numbers. Records are
// plain values: they are built once per table row and never modified.
package odds
