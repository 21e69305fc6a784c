package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/pfrederiksen/odds-alchemist/internal/odds"
)

// Hooks are the CSS selectors of a page whose markup is known and stable
type Hooks struct {
	Row    string // matched against the row itself
	Number string
	Name   string
	Win    string
	Place  string
}

// DefaultHooks returns the hooks of the reference odds table layout
func DefaultHooks() Hooks {
	return Hooks{
		Row:    ".odds-table .horse-row",
		Number: ".horse-number",
		Name:   ".horse-name",
		Win:    ".win-odds",
		Place:  ".place-odds",
	}
}

// withDefaults fills empty hooks from DefaultHooks
func (h Hooks) withDefaults() Hooks {
	d := DefaultHooks()
	if h.Row == "" {
		h.Row = d.Row
	}
	if h.Number == "" {
		h.Number = d.Number
	}
	if h.Name == "" {
		h.Name = d.Name
	}
	if h.Win == "" {
		h.Win = d.Win
	}
	if h.Place == "" {
		h.Place = d.Place
	}
	return h
}

// SelectorClassifier reads each field from a known CSS hook. It is cheap but
// only as good as the hooks: a class rename silently drops every row.
type SelectorClassifier struct {
	row    goquery.Matcher
	number goquery.Matcher
	name   goquery.Matcher
	win    goquery.Matcher
	place  goquery.Matcher
	parser *odds.Parser
}

// NewSelectorClassifier compiles the hooks. Empty hooks take their default
// value; an invalid selector is reported here rather than per row.
func NewSelectorClassifier(hooks Hooks, parser *odds.Parser) (*SelectorClassifier, error) {
	hooks = hooks.withDefaults()
	if parser == nil {
		parser = odds.NewParser(nil, nil)
	}

	compiled := make([]goquery.Matcher, 0, 5)
	for _, h := range []struct{ field, selector string }{
		{"row", hooks.Row},
		{"number", hooks.Number},
		{"name", hooks.Name},
		{"win", hooks.Win},
		{"place", hooks.Place},
	} {
		m, err := cascadia.Compile(h.selector)
		if err != nil {
			return nil, fmt.Errorf("compiling %s selector %q: %w", h.field, h.selector, err)
		}
		compiled = append(compiled, m)
	}

	return &SelectorClassifier{
		row:    compiled[0],
		number: compiled[1],
		name:   compiled[2],
		win:    compiled[3],
		place:  compiled[4],
		parser: parser,
	}, nil
}

// Classify implements Classifier
func (c *SelectorClassifier) Classify(row *goquery.Selection) (odds.Record, bool, error) {
	if !row.IsMatcher(c.row) {
		return odds.Record{}, false, nil
	}

	number := strings.TrimSpace(row.FindMatcher(c.number).First().Text())
	if !horseNumberPattern.MatchString(number) {
		return odds.Record{}, false, nil
	}

	nameCell := row.FindMatcher(c.name).First()
	if nameCell.Length() == 0 {
		return odds.Record{}, false, nil
	}
	name := nameText(nameCell)
	if name == "" {
		return odds.Record{}, false, nil
	}

	win := c.parser.ParseValue(row.FindMatcher(c.win).First().Text())
	placeMin, placeMax := c.parser.ParseRange(row.FindMatcher(c.place).First().Text())

	return odds.NewRecord(number, name).WithWin(win).WithPlace(placeMin, placeMax), true, nil
}
