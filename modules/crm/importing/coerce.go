package importing

import (
	"strings"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// parseDecimal reads monetary and percentage values in either locale:
// "1.234,56", "1,234.56", "1234,56" and "1234.56" all parse. Currency
// markers and spaces are stripped first.
func parseDecimal(s string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer("R$", "", "%", "", " ", "", " ", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return decimal.Zero, gerrors.New("empty number")
	}

	lastComma := strings.LastIndexByte(cleaned, ',')
	lastDot := strings.LastIndexByte(cleaned, '.')
	switch {
	case lastComma >= 0 && lastDot >= 0:
		// The rightmost separator is the decimal mark.
		if lastComma > lastDot {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, gerrors.Wrapf(err, "parse number %q", s)
	}
	return d, nil
}

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02.01.2006",
	"02/01/06",
}

// parseDate accepts ISO and Brazilian day-first layouts and normalizes
// to a date-only UTC time.
func parseDate(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, gerrors.Errorf("unrecognized date %q", s)
}
