package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/odds-alchemist/internal/odds"
	"golang.org/x/net/html/atom"
)

// Classifier decides whether a table row describes a horse.
//
// It returns (record, true, nil) for a horse row and (_, false, nil) for rows
// that simply do not have the right shape, such as headers or totals. An error
// means the row could not be inspected at all.
type Classifier interface {
	Classify(row *goquery.Selection) (odds.Record, bool, error)
}

// Strategy names a row classification strategy
type Strategy string

const (
	StrategyPattern  Strategy = "pattern"
	StrategySelector Strategy = "selector"
	// StrategyAuto tries the selector hooks first and falls back to patterns
	StrategyAuto Strategy = "auto"
)

// ParseStrategy validates a strategy name. An empty name selects StrategyPattern.
func ParseStrategy(name string) (Strategy, error) {
	switch s := Strategy(strings.ToLower(strings.TrimSpace(name))); s {
	case "":
		return StrategyPattern, nil
	case StrategyPattern, StrategySelector, StrategyAuto:
		return s, nil
	default:
		return "", fmt.Errorf("unknown extraction strategy: %s (must be 'pattern', 'selector' or 'auto')", name)
	}
}

// NewClassifier builds the classifier for the given strategy
func NewClassifier(strategy Strategy, hooks Hooks, parser *odds.Parser) (Classifier, error) {
	switch strategy {
	case StrategyPattern, "":
		return NewPatternClassifier(parser), nil
	case StrategySelector:
		return NewSelectorClassifier(hooks, parser)
	case StrategyAuto:
		sel, err := NewSelectorClassifier(hooks, parser)
		if err != nil {
			return nil, err
		}
		return ChainClassifier{sel, NewPatternClassifier(parser)}, nil
	default:
		return nil, fmt.Errorf("unknown extraction strategy: %s", strategy)
	}
}

// ChainClassifier tries each classifier in order and returns the first record.
// An error from any member stops the chain.
type ChainClassifier []Classifier

// Classify implements Classifier
func (c ChainClassifier) Classify(row *goquery.Selection) (odds.Record, bool, error) {
	for _, classifier := range c {
		rec, ok, err := classifier.Classify(row)
		if err != nil {
			return odds.Record{}, false, err
		}
		if ok {
			return rec, true, nil
		}
	}
	return odds.Record{}, false, nil
}

// cells returns the td and th children of row in document order
func cells(row *goquery.Selection) []*goquery.Selection {
	var out []*goquery.Selection
	row.Children().Each(func(_ int, child *goquery.Selection) {
		if node := child.Get(0); node.DataAtom == atom.Td || node.DataAtom == atom.Th {
			out = append(out, child)
		}
	})
	return out
}

// nameText returns the trimmed text of the first link inside sel when it has
// any, otherwise the trimmed text of sel itself. Cells often wrap the name in
// a link next to annotations such as sex/age or blinkers.
func nameText(sel *goquery.Selection) string {
	if link := sel.Find("a").First(); link.Length() > 0 {
		if text := strings.TrimSpace(link.Text()); text != "" {
			return text
		}
	}
	return strings.TrimSpace(sel.Text())
}
