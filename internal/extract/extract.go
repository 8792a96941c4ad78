// Package extract pulls numeric fields out of portal listing text. Portal
// markup is inconsistent, so both extractors are deliberately permissive:
// regex over the raw text rather than structured parsing, degrading to
// "not found" instead of failing.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mwalkowiak/flatwatch/internal/model"
)

var (
	nonDigitRe = regexp.MustCompile(`[^\d]`)
	// Matches "45 m", "45,5m²", "45.5 M2". The unit may carry a superscript
	// or digit suffix; a bare trailing "m" is accepted too.
	areaRe = regexp.MustCompile(`(\d+[.,]?\d*)\s*m`)
)

// Price extracts an integer currency amount from free text. All non-digit
// characters are stripped, so thousands separators ("350 000", "350.000")
// collapse away. Returns ok=false when no digit survives; callers must
// distinguish that from a parsed zero.
func Price(text string) (int64, bool) {
	if text == "" {
		return 0, false
	}
	digits := nonDigitRe.ReplaceAllString(text, "")
	if digits == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Area extracts a floor area in square meters from free text: the first
// substring shaped like "<number> m", tolerant of both "." and "," as the
// decimal separator and of "m²"/"m2"/bare "m" units. Returns the unknown
// sentinel when nothing matches.
func Area(text string) model.Area {
	if text == "" {
		return model.UnknownArea()
	}
	m := areaRe.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return model.UnknownArea()
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return model.UnknownArea()
	}
	return model.KnownArea(v)
}
