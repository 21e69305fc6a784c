package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/odds-alchemist/internal/odds"
	"github.com/shopspring/decimal"
)

// anchorCells is how many leading cells may hold the horse number
const anchorCells = 3

var (
	// horseNumberPattern matches a program number such as "1" or "12"
	horseNumberPattern = regexp.MustCompile(`^\d{1,2}$`)

	// placeRangePattern matches a place odds range such as "1.2-1.5" or "1.2 － 1.5".
	// Spacing around the dash may be any Unicode space, including NBSP and U+3000.
	placeRangePattern = regexp.MustCompile(`^(\d+\.\d+)[\s\p{Zs}]*[` + odds.Dashes + `][\s\p{Zs}]*(\d+\.\d+)$`)

	// winOddsPattern matches a single decimal such as "2.5"
	winOddsPattern = regexp.MustCompile(`^\d+\.\d+$`)
)

// PatternClassifier recognises horse rows by the shape of their cells rather
// than by markup hooks. It is the default strategy because it survives class
// renames and reordered or missing odds columns.
type PatternClassifier struct {
	parser *odds.Parser
}

// NewPatternClassifier creates a PatternClassifier
func NewPatternClassifier(parser *odds.Parser) *PatternClassifier {
	if parser == nil {
		parser = odds.NewParser(nil, nil)
	}
	return &PatternClassifier{parser: parser}
}

// Classify implements Classifier
func (c *PatternClassifier) Classify(row *goquery.Selection) (odds.Record, bool, error) {
	cols := cells(row)

	anchor := -1
	for i := 0; i < len(cols) && i < anchorCells; i++ {
		if horseNumberPattern.MatchString(strings.TrimSpace(cols[i].Text())) {
			anchor = i
			break
		}
	}
	if anchor < 0 || anchor+1 >= len(cols) {
		return odds.Record{}, false, nil
	}

	name := nameText(cols[anchor+1])
	if name == "" {
		return odds.Record{}, false, nil
	}

	rec := odds.NewRecord(strings.TrimSpace(cols[anchor].Text()), name)

	var win, placeMin, placeMax decimal.NullDecimal
	haveWin, havePlace := false, false

	for _, cell := range cols[anchor+2:] {
		text := strings.TrimSpace(cell.Text())

		// Range before win, always: a range cell is never win odds.
		if m := placeRangePattern.FindStringSubmatch(text); m != nil {
			if !havePlace {
				placeMin = c.parser.ParseValue(m[1])
				placeMax = c.parser.ParseValue(m[2])
				havePlace = true
			}
			continue
		}

		if !haveWin && winOddsPattern.MatchString(text) {
			win = c.parser.ParseValue(text)
			haveWin = true
		}
	}

	return rec.WithWin(win).WithPlace(placeMin, placeMax), true, nil
}
