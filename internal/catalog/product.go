package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"limitedtees.shop/storefront/internal/format"
)

// Product is one tee of a monthly drop as returned by the backend.
// Every field other than the identifiers is optional on the wire.
type Product struct {
	ID           string   `json:"id,omitempty"`
	Slug         string   `json:"slug,omitempty"`
	Title        string   `json:"title,omitempty"`
	Description  string   `json:"description,omitempty"`
	Price        Price    `json:"price"`
	Colors       []string `json:"colors,omitempty"`
	Sizes        []string `json:"sizes,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
	ReleaseMonth int      `json:"release_month,omitempty"`
	ReleaseYear  int      `json:"release_year,omitempty"`
}

// UnmarshalJSON decodes a product object field by field. Identifiers may be
// strings or numbers, release fields may be numbers or numeric strings and
// colors or sizes may be a list or a single value. Values of any other type
// are left empty instead of failing the whole product.
func (p *Product) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	*p = Product{
		ID:           looseString(fields["id"]),
		Slug:         looseString(fields["slug"]),
		Title:        looseString(fields["title"]),
		Description:  looseString(fields["description"]),
		Colors:       looseStrings(fields["colors"]),
		Sizes:        looseStrings(fields["sizes"]),
		ImageURL:     looseString(fields["image_url"]),
		ReleaseMonth: looseInt(fields["release_month"]),
		ReleaseYear:  looseInt(fields["release_year"]),
	}
	if raw, ok := fields["price"]; ok {
		if err := p.Price.UnmarshalJSON(raw); err != nil {
			p.Price = Price{}
		}
	}
	return nil
}

func looseString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return string(raw)
	}
	return ""
}

func looseInt(raw json.RawMessage) int {
	s := strings.TrimSpace(looseString(raw))
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int(f)
}

func looseStrings(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if raw[0] != '[' {
		if s := looseString(raw); s != "" {
			return []string{s}
		}
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	var out []string
	for _, item := range items {
		if s := looseString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Key identifies the product in URLs: the ID when present, else the slug.
func (p Product) Key() string {
	if id := strings.TrimSpace(p.ID); id != "" {
		return id
	}
	return strings.TrimSpace(p.Slug)
}

// Matches reports whether key names this product by ID or slug.
func (p Product) Matches(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	return key == strings.TrimSpace(p.ID) || key == strings.TrimSpace(p.Slug)
}

// ReleaseTag renders the "{month}/{year}" badge.
func (p Product) ReleaseTag() string {
	return format.ReleaseTag(p.ReleaseMonth, p.ReleaseYear)
}

type priceKind uint8

const (
	priceMissing priceKind = iota
	priceNumber
	priceText
)

// Price is a decimal currency amount that may arrive as a JSON number, as an
// already formatted string, or not at all.
type Price struct {
	kind   priceKind
	amount float64
	raw    string
}

// NewPrice returns a numeric price.
func NewPrice(amount float64) Price {
	return Price{kind: priceNumber, amount: amount}
}

// TextPrice returns a price carried verbatim as text.
func TextPrice(raw string) Price {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Price{}
	}
	return Price{kind: priceText, raw: raw}
}

// Amount returns the numeric amount when the backend sent a number.
func (p Price) Amount() (float64, bool) {
	return p.amount, p.kind == priceNumber
}

// Missing reports whether no usable price was sent.
func (p Price) Missing() bool { return p.kind == priceMissing }

// Format renders the price for display. Numbers are formatted with two
// decimals, pre-formatted text is passed through, and a missing price
// renders as the empty string.
func (p Price) Format(currency, lang string) string {
	switch p.kind {
	case priceNumber:
		return format.Money(p.amount, currency, lang)
	case priceText:
		if format.HasCurrencySymbol(p.raw) {
			return p.raw
		}
		return "$" + p.raw
	default:
		return ""
	}
}

// String implements fmt.Stringer using dollars.
func (p Price) String() string { return p.Format("USD", "en") }

// UnmarshalJSON accepts numbers, strings and null. Any other JSON value is
// treated as a missing price rather than an error.
func (p *Price) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*p = Price{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = TextPrice(s)
	case '{', '[', 't', 'f':
		// unusable shape; leave missing
	default:
		f, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return err
		}
		*p = NewPrice(f)
	}
	return nil
}

// MarshalJSON writes numbers as numbers and text as strings.
func (p Price) MarshalJSON() ([]byte, error) {
	switch p.kind {
	case priceNumber:
		return []byte(strconv.FormatFloat(p.amount, 'f', -1, 64)), nil
	case priceText:
		return json.Marshal(p.raw)
	default:
		return []byte("null"), nil
	}
}
