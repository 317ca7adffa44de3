package format

import (
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Money formats a decimal amount in major units for the given ISO currency.
// Example: Money(38, "USD", "en") => "$38.00"
func Money(amount float64, currency, lang string) string {
	p := printer(lang)
	neg := amount < 0
	if neg {
		amount = -amount
	}
	var out string
	switch strings.ToUpper(strings.TrimSpace(currency)) {
	case "JPY":
		out = "¥" + p.Sprintf("%d", int64(math.Round(amount)))
	case "", "USD":
		out = "$" + p.Sprintf("%.2f", amount)
	case "EUR":
		out = "€" + p.Sprintf("%.2f", amount)
	default:
		out = strings.ToUpper(currency) + " " + p.Sprintf("%.2f", amount)
	}
	if neg {
		return "-" + out
	}
	return out
}

// HasCurrencySymbol reports whether s already starts with a currency sign,
// i.e. the backend sent a pre-formatted price.
func HasCurrencySymbol(s string) bool {
	s = strings.TrimSpace(s)
	for _, sym := range []string{"$", "€", "£", "¥", "US$"} {
		if strings.HasPrefix(s, sym) {
			return true
		}
	}
	return false
}

// MonthYear renders the drop label for t, e.g. "October 2026" or "2026年10月".
func MonthYear(t time.Time, lang string) string {
	switch strings.ToLower(lang) {
	case "ja":
		return t.Format("2006年1月")
	default:
		return t.Format("January 2006")
	}
}

// ReleaseTag renders the compact "{month}/{year}" badge shown on product cards.
// Missing parts render empty rather than zero.
func ReleaseTag(month, year int) string {
	var b strings.Builder
	if month > 0 {
		b.WriteString(strconv.Itoa(month))
	}
	b.WriteByte('/')
	if year > 0 {
		b.WriteString(strconv.Itoa(year))
	}
	return b.String()
}

// Anchor turns a section title into a fragment id: lowercased, whitespace runs
// collapsed to "-".
func Anchor(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), "-")
}

func printer(lang string) *message.Printer {
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		tag = language.English
	}
	return message.NewPrinter(tag)
}

