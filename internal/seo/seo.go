package seo

// OpenGraph holds og:* meta values.
type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
	URL         string
	SiteName    string
}

// Twitter holds twitter:* meta values.
type Twitter struct {
	Card  string
	Site  string
	Image string
}

// Meta is the head metadata for one page.
type Meta struct {
	Title       string
	Description string
	Canonical   string
	Robots      string
	OG          OpenGraph
	Twitter     Twitter
	// JSONLD holds pre-serialised schema.org payloads.
	JSONLD []string
}

// Page fills the common OG/Twitter fields from title, description and canonical.
func Page(title, description, canonical, siteName, image string) Meta {
	m := Meta{
		Title:       title,
		Description: description,
		Canonical:   canonical,
		OG: OpenGraph{
			Title:       title,
			Description: description,
			Image:       image,
			Type:        "website",
			URL:         canonical,
			SiteName:    siteName,
		},
		Twitter: Twitter{Card: "summary_large_image", Image: image},
	}
	return m
}
