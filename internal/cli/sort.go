package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pfrederiksen/odds-alchemist/internal/odds"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByPage   SortOrder = "page"
	SortByNumber SortOrder = "number"
	SortByName   SortOrder = "name"
	SortByWin    SortOrder = "win"
)

// ParseSortOrder validates a sort order name. An empty name keeps page order.
func ParseSortOrder(name string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(name))); o {
	case "":
		return SortByPage, nil
	case SortByPage, SortByNumber, SortByName, SortByWin:
		return o, nil
	default:
		return "", fmt.Errorf("invalid sort order: %s (must be 'page', 'number', 'name' or 'win')", name)
	}
}

// sortRecords sorts records in place. Page order is left untouched.
func sortRecords(records []odds.Record, order SortOrder) {
	switch order {
	case SortByNumber:
		sort.SliceStable(records, func(i, j int) bool {
			return compareByNumber(records[i], records[j])
		})
	case SortByName:
		sort.SliceStable(records, func(i, j int) bool {
			if records[i].HorseName != records[j].HorseName {
				return strings.ToLower(records[i].HorseName) < strings.ToLower(records[j].HorseName)
			}
			return compareByNumber(records[i], records[j])
		})
	case SortByWin:
		sort.SliceStable(records, func(i, j int) bool {
			return compareByWin(records[i], records[j])
		})
	}
}

// compareByNumber orders horse numbers numerically
func compareByNumber(i, j odds.Record) bool {
	ni, _ := strconv.Atoi(i.HorseNumber)
	nj, _ := strconv.Atoi(j.HorseNumber)
	return ni < nj
}

// compareByWin puts the favourite first.
// Horses without win odds go last, in number order.
func compareByWin(i, j odds.Record) bool {
	if i.WinOdds.Valid && j.WinOdds.Valid {
		if !i.WinOdds.Decimal.Equal(j.WinOdds.Decimal) {
			return i.WinOdds.Decimal.LessThan(j.WinOdds.Decimal)
		}
		return compareByNumber(i, j)
	}

	if i.WinOdds.Valid {
		return true
	}
	if j.WinOdds.Valid {
		return false
	}
	return compareByNumber(i, j)
}
