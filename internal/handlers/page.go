package handlers

import (
	"strings"

	"limitedtees.shop/storefront/internal/catalog"
	"limitedtees.shop/storefront/internal/config"
	"limitedtees.shop/storefront/internal/i18n"
	"limitedtees.shop/storefront/internal/nav"
	"limitedtees.shop/storefront/internal/seo"
)

// PageData wraps a page body with the shared layout fields.
type PageData struct {
	Lang      string
	LinkLang  string
	Path      string
	Nav       []nav.RenderedItem
	SEO       seo.Meta
	Analytics config.Analytics
	CSRFToken string
	Year      int
	Home      HomeData
	// Alternates lists the page in every supported language.
	Alternates []Alternate
}

// Alternate is one hreflang link.
type Alternate struct {
	Href     string
	Hreflang string
}

// PageInput carries the layout inputs that do not come from state.
type PageInput struct {
	Bundle    *i18n.Bundle
	Lang      string
	LinkLang  string
	Path      string
	SiteURL   string
	CSRFToken string
	Analytics config.Analytics
}

// BuildPage assembles layout fields around home.
func BuildPage(in PageInput, home HomeData, current []catalog.Product, year int) PageData {
	brand := in.Bundle.T(in.Lang, "brand.name")
	desc := in.Bundle.T(in.Lang, "seo.description")
	canonical := ""
	if base := strings.TrimRight(in.SiteURL, "/"); base != "" {
		canonical = base + nav.Href(home.View, "", "")
	}
	image := ""
	if len(current) > 0 {
		image = current[0].ImageURL
	}
	meta := seo.Page(brand, desc, canonical, brand, image)
	if ld := seo.JSON(seo.Organization(brand, in.SiteURL, "")); ld != "" {
		meta.JSONLD = append(meta.JSONLD, ld)
	}
	if ld := seo.JSON(DropItemList(home.Current.Title, current, strings.TrimRight(in.SiteURL, "/"))); ld != "" {
		meta.JSONLD = append(meta.JSONLD, ld)
	}
	var alternates []Alternate
	for _, l := range in.Bundle.Supported() {
		alternates = append(alternates, Alternate{Href: nav.Href(home.View, l, ""), Hreflang: l})
	}
	return PageData{
		Lang:      in.Lang,
		LinkLang:  in.LinkLang,
		Path:      in.Path,
		Nav:       nav.Build(home.View, in.LinkLang),
		SEO:       meta,
		Analytics: in.Analytics,
		CSRFToken: in.CSRFToken,
		Year:      year,
		Home:      home,

		Alternates: alternates,
	}
}

// DropItemList describes the current drop as a schema.org ItemList.
func DropItemList(name string, products []catalog.Product, siteURL string) map[string]any {
	items := make([]map[string]any, 0, len(products))
	for _, p := range products {
		var offer *seo.Offer
		if amount, ok := p.Price.Amount(); ok {
			offer = &seo.Offer{Price: amount, Currency: currency}
		}
		link := ""
		if siteURL != "" {
			link = siteURL + nav.ProductHref(p.Key(), "", "")
		}
		items = append(items, seo.Product(p.Title, p.Description, link, p.ImageURL, p.Key(), offer))
	}
	return seo.ItemList(name, items)
}
