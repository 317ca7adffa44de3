// Package handlers builds template view models from the request state.
package handlers

import (
	"html"
	"net/url"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"limitedtees.shop/storefront/internal/catalog"
	"limitedtees.shop/storefront/internal/cms"
	"limitedtees.shop/storefront/internal/format"
	"limitedtees.shop/storefront/internal/i18n"
	"limitedtees.shop/storefront/internal/nav"
	"limitedtees.shop/storefront/internal/storefront"
)

const currency = "USD"

// descriptions come from the backend as plain text; strip any markup
var textPolicy = bluemonday.StrictPolicy()

// HomeInput is everything BuildHome needs for one request.
type HomeInput struct {
	State  storefront.State
	Form   storefront.SubscribeForm
	Blocks []cms.Block
	Bundle *i18n.Bundle
	Lang   string
	Now    time.Time

	// LinkLang is carried in generated links; empty when the language was
	// not chosen explicitly.
	LinkLang string

	// SeedFailed is set when a "load sample data" request was rejected.
	SeedFailed bool
}

// HomeData is the view model for the drop page.
type HomeData struct {
	View        string
	ShowCurrent bool
	ShowArchive bool
	Loading     bool

	Hero      HeroData
	Current   GridData
	Archive   GridData
	Info      []cms.Block
	Modal     *ModalData
	Subscribe SubscribeData

	LoadError   bool
	OfferSeed   bool
	Sample      bool
	SeedFailed  bool
	RefreshHref string
}

// HeroData carries the call-to-action links and their htmx fragments.
type HeroData struct {
	CurrentHref     string
	ArchiveHref     string
	CurrentFragment string
	ArchiveFragment string
}

// GridData is one product grid section.
type GridData struct {
	Kind   string // "current" or "archive"
	Title  string
	Anchor string
	Cards  []CardData
}

// Empty reports whether the grid has no cards.
func (g GridData) Empty() bool { return len(g.Cards) == 0 }

// CardData is one product tile.
type CardData struct {
	Key        string
	Title      string
	Price      string
	ReleaseTag string
	ImageURL   string
	Href       string
}

// ModalData is the product detail overlay.
type ModalData struct {
	Key         string
	Title       string
	Price       string
	Description string
	ImageURL    string
	Colors      []string
	Sizes       []string
	// CloseHrefs maps each close affordance to its link.
	CloseHrefs map[string]string
}

// SubscribeData is the signup form.
type SubscribeData struct {
	Email   string
	Name    string
	Status  string
	Loading bool
	Success bool
	Error   bool
}

// BuildHome maps the reduced state onto the page view model.
func BuildHome(in HomeInput) HomeData {
	s := in.State
	view := string(s.View)
	if view == "" {
		view = string(storefront.ViewHome)
	}
	month := format.MonthYear(in.Now, in.Lang)
	currentTitle := in.Bundle.Tf(in.Lang, "grid.current_title", "month", month)
	archiveTitle := in.Bundle.T(in.Lang, "grid.archive_title")

	data := HomeData{
		View:        view,
		ShowCurrent: s.View.ShowsCurrent(),
		ShowArchive: s.View.ShowsArchive(),
		Loading:     s.Loading,
		Hero: HeroData{
			CurrentHref:     nav.Href(string(storefront.ViewCurrent), in.LinkLang, ""),
			ArchiveHref:     nav.Href(string(storefront.ViewArchive), in.LinkLang, ""),
			CurrentFragment: nav.FragmentHref(string(storefront.ViewCurrent), in.LinkLang),
			ArchiveFragment: nav.FragmentHref(string(storefront.ViewArchive), in.LinkLang),
		},
		Current:     BuildGrid("current", currentTitle, s.Current, view, in.LinkLang, in.Lang),
		Archive:     BuildGrid("archive", archiveTitle, s.Archive, view, in.LinkLang, in.Lang),
		Info:        in.Blocks,
		Subscribe:   BuildSubscribe(in.Form),
		LoadError:   s.LoadFailed,
		OfferSeed:   s.OfferSeed,
		Sample:      s.Sample,
		SeedFailed:  in.SeedFailed,
		RefreshHref: nav.Href(view, in.LinkLang, ""),
	}
	if s.Selected != nil {
		m := BuildModal(*s.Selected, view, in.LinkLang, in.Lang)
		data.Modal = &m
	}
	return data
}

// BuildGrid maps products onto cards for one grid section.
func BuildGrid(kind, title string, products []catalog.Product, view, linkLang, lang string) GridData {
	cards := make([]CardData, 0, len(products))
	for _, p := range products {
		cards = append(cards, CardData{
			Key:        p.Key(),
			Title:      p.Title,
			Price:      p.Price.Format(currency, lang),
			ReleaseTag: p.ReleaseTag(),
			ImageURL:   p.ImageURL,
			Href:       nav.ProductHref(p.Key(), view, linkLang),
		})
	}
	return GridData{Kind: kind, Title: title, Anchor: format.Anchor(title), Cards: cards}
}

// BuildModal maps the selected product onto the overlay view model.
func BuildModal(p catalog.Product, view, linkLang, lang string) ModalData {
	closeHrefs := make(map[string]string, 3)
	for _, via := range []storefront.CloseAffordance{storefront.CloseButton, storefront.CloseBackdrop, storefront.CloseFooter} {
		closeHrefs[string(via)] = CloseHref(via, view, linkLang)
	}
	return ModalData{
		Key:         p.Key(),
		Title:       p.Title,
		Price:       p.Price.Format(currency, lang),
		Description: plainText(p.Description),
		ImageURL:    p.ImageURL,
		Colors:      p.Colors,
		Sizes:       p.Sizes,
		CloseHrefs:  closeHrefs,
	}
}

// CloseHref links a close affordance to the close endpoint.
func CloseHref(via storefront.CloseAffordance, view, linkLang string) string {
	q := url.Values{}
	q.Set("via", string(via))
	if view != "" && view != string(storefront.ViewHome) {
		q.Set("view", view)
	}
	if linkLang != "" {
		q.Set("hl", linkLang)
	}
	return "/modal/close?" + q.Encode()
}

// BuildSubscribe maps the form state.
func BuildSubscribe(f storefront.SubscribeForm) SubscribeData {
	return SubscribeData{
		Email:   f.Email,
		Name:    f.Name,
		Status:  string(f.Status),
		Loading: f.Loading(),
		Success: f.Status == storefront.SubscribeSuccess,
		Error:   f.Status == storefront.SubscribeError,
	}
}

// plainText strips markup; templates escape the result again on output.
func plainText(s string) string {
	return html.UnescapeString(textPolicy.Sanitize(s))
}
