package table

import (
	"html"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// LocalTimeLayout is the layout used by LocalTime.
const LocalTimeLayout = "2006-01-02 15:04:05"

var (
	strictPolicy = bluemonday.StrictPolicy()
	usdPrinter   = message.NewPrinter(language.English)
)

// LocalTime renders an RFC 3339 timestamp in the local time zone.
// Values that do not parse are shown verbatim.
func LocalTime(v any) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return Placeholder
		}
		return t.Local().Format(LocalTimeLayout)
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return t
		}
		return parsed.Local().Format(LocalTimeLayout)
	default:
		return Text(v)
	}
}

// USD renders a price as "$67,250.5"; zero renders "N/A".
func USD(v any) string {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case *float64:
		if t == nil {
			return "N/A"
		}
		f = *t
	default:
		return Text(v)
	}

	if f == 0 || math.IsNaN(f) {
		return "N/A"
	}
	return "$" + usdPrinter.Sprintf("%v", number.Decimal(f, number.MaxFractionDigits(3)))
}

// htmlTag matches markup of common HTML elements. Text such as "x <y> z" is
// not markup and is kept verbatim.
var htmlTag = regexp.MustCompile(`(?i)</?(a|b|i|u|em|strong|p|br|div|span|ul|ol|li|code|pre|blockquote|script|style|img|h[1-6])(\s[^>]*)?/?>`)

// PlainText flattens free text from the agent onto one table line. Values
// carrying HTML markup are stripped to their text; anything else is shown as
// sent, minus control characters.
func PlainText(v any) string {
	s := Text(v)
	if htmlTag.MatchString(s) {
		s = html.UnescapeString(strictPolicy.Sanitize(s))
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
