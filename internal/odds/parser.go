package odds

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultSentinels are the "no odds offered" markers used when none are configured
var DefaultSentinels = []string{"---"}

// Dashes lists the runes accepted as the separator of a place odds range.
// It covers ASCII hyphen-minus plus the hyphen, dash and full-width forms
// that show up in Japanese racing pages.
const Dashes = "-‐‑‒–—―－"

// Parser converts odds cell text into optional decimals.
// A Parser is immutable after construction and safe for concurrent use.
type Parser struct {
	sentinels []string
	log       *zap.Logger
}

// NewParser creates a Parser. Empty sentinel entries are ignored; a nil or
// empty list falls back to DefaultSentinels. A nil logger disables logging.
func NewParser(sentinels []string, log *zap.Logger) *Parser {
	cleaned := make([]string, 0, len(sentinels))
	for _, s := range sentinels {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		cleaned = append(cleaned, DefaultSentinels...)
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Parser{
		sentinels: cleaned,
		log:       log,
	}
}

// Sentinels returns a copy of the configured no-odds markers
func (p *Parser) Sentinels() []string {
	out := make([]string, len(p.sentinels))
	copy(out, p.sentinels)
	return out
}

// ParseValue parses a single odds value.
// Blank text, text containing a sentinel, and text that is not a decimal all
// yield an absent value; it never fails.
func (p *Parser) ParseValue(text string) decimal.NullDecimal {
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.NullDecimal{}
	}

	for _, s := range p.sentinels {
		if strings.Contains(text, s) {
			p.log.Debug("no odds marker", zap.String("text", text), zap.String("sentinel", s))
			return decimal.NullDecimal{}
		}
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		p.log.Debug("unparseable odds", zap.String("text", text), zap.Error(err))
		return decimal.NullDecimal{}
	}

	return decimal.NewNullDecimal(d)
}

// ParseRange parses a place odds range such as "1.2-1.5" or "1.2 － 1.5".
// The text is split on its first dash; each side is parsed independently with
// ParseValue. Text without a dash yields only a minimum. No ordering is
// enforced between the two bounds.
func (p *Parser) ParseRange(text string) (min, max decimal.NullDecimal) {
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.NullDecimal{}, decimal.NullDecimal{}
	}

	i := strings.IndexAny(text, Dashes)
	if i < 0 {
		return p.ParseValue(text), decimal.NullDecimal{}
	}

	_, width := utf8.DecodeRuneInString(text[i:])
	left, right := text[:i], text[i+width:]

	return p.ParseValue(left), p.ParseValue(right)
}
