// Package normalize coerces raw spreadsheet cell values into the clean display
// strings used by the manifests. Every function here is total: malformed input
// degrades to an empty or pass-through value, never an error.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// nullLike holds the lower-cased tokens that spreadsheet exports use for
// "no value".
var nullLike = map[string]struct{}{
	"":     {},
	"nan":  {},
	"none": {},
	"null": {},
}

// maxQuantity caps a single line item's quantity.
const maxQuantity = math.MaxInt32

// deliveryDatePattern matches a DD/MM/YYYY date delimited by word boundaries.
var deliveryDatePattern = regexp.MustCompile(`\b(\d{2}/\d{2}/\d{4})\b`)

// IsNullLike reports whether v is blank or one of the null-like tokens.
func IsNullLike(v string) bool {
	_, ok := nullLike[strings.ToLower(strings.TrimSpace(v))]
	return ok
}

// Clean trims v and maps null-like values to the empty string.
func Clean(v string) string {
	if IsNullLike(v) {
		return ""
	}
	return strings.TrimSpace(v)
}

// StripQuoteAndTrailingFloat cleans v, drops a single leading apostrophe and
// removes a ".0" suffix from an integer literal ("3000.0" -> "3000").
func StripQuoteAndTrailingFloat(v string) string {
	s := Clean(v)
	s = strings.TrimPrefix(s, "'")
	return dropFloatSuffix(s)
}

// ToIntegerish renders a cleaned non-negative integral number without a
// decimal point. Anything else is returned cleaned but otherwise unchanged.
func ToIntegerish(v string) string {
	s := Clean(v)
	if s == "" {
		return s
	}
	if !isDecimal(s) {
		return s
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f > math.MaxInt64/2 {
		return s
	}
	return strconv.FormatInt(int64(f), 10)
}

// FormatPhone normalizes the two known Australian input shapes: a number
// carrying the 61 country code, and a mobile that lost its leading zero.
// It does not validate the number.
func FormatPhone(raw string) string {
	s := strings.Map(func(r rune) rune {
		if r == '+' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, Clean(raw))
	s = dropFloatSuffix(strings.TrimLeft(s, "'"))
	if IsNullLike(s) {
		return ""
	}
	switch {
	case strings.HasPrefix(s, "61"):
		return "0" + s[2:]
	case strings.HasPrefix(s, "4"):
		return "0" + s
	default:
		return s
	}
}

// ExtractDeliveryDate returns the first DD/MM/YYYY date in the tag text, or
// the empty string.
func ExtractDeliveryDate(tags string) string {
	m := deliveryDatePattern.FindStringSubmatch(tags)
	if m == nil {
		return ""
	}
	return m[1]
}

// QuantityOf parses a line-item quantity and reports whether the cell held a
// usable whole number. Blank cells count as 0 and are usable. A fractional
// value counts as its whole part; anything that is not a plain non-negative
// decimal, or exceeds maxQuantity, counts as 0.
func QuantityOf(v string) (n int, ok bool) {
	s := Clean(v)
	if s == "" {
		return 0, true
	}
	if !isDecimal(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f > maxQuantity {
		return 0, false
	}
	whole := math.Trunc(f)
	return int(whole), whole == f
}

// isDecimal accepts digits with an optional fractional part ("12", "3.0").
// Signs, exponents and special values such as "inf" are rejected.
func isDecimal(s string) bool {
	digits, frac, hasDot := strings.Cut(s, ".")
	if digits == "" || (hasDot && frac == "") {
		return false
	}
	for _, part := range []string{digits, frac} {
		for _, r := range part {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

func dropFloatSuffix(s string) string {
	head, ok := strings.CutSuffix(s, ".0")
	if !ok || head == "" {
		return s
	}
	for _, r := range head {
		if r < '0' || r > '9' {
			return s
		}
	}
	return head
}
