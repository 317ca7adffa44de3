package seo

import (
	"encoding/json"
)

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Organization returns a minimal Organization schema.
func Organization(name, url, logoURL string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Organization",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if logoURL != "" {
		m["logo"] = logoURL
	}
	return m
}

// Offer describes a product price for schema.org.
type Offer struct {
	Price    float64
	Currency string
}

// Product returns a minimal product schema payload. offer may be nil when the
// price is unknown.
func Product(name, description, url, imageURL, sku string, offer *Offer) map[string]any {
	m := map[string]any{
		"@type": "Product",
		"name":  name,
	}
	if description != "" {
		m["description"] = description
	}
	if url != "" {
		m["url"] = url
	}
	if imageURL != "" {
		m["image"] = imageURL
	}
	if sku != "" {
		m["sku"] = sku
	}
	if offer != nil {
		currency := offer.Currency
		if currency == "" {
			currency = "USD"
		}
		m["offers"] = map[string]any{
			"@type":         "Offer",
			"price":         offer.Price,
			"priceCurrency": currency,
			"availability":  "https://schema.org/LimitedAvailability",
		}
	}
	return m
}

// ItemList wraps products into a schema.org ItemList.
func ItemList(name string, items []map[string]any) map[string]any {
	el := make([]map[string]any, 0, len(items))
	for i, it := range items {
		el = append(el, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"item":     it,
		})
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "ItemList",
		"name":            name,
		"itemListElement": el,
	}
}
