package nav

import (
	"net/url"
	"strings"
)

// Item represents a header navigation entry.
type Item struct {
	View     string // view filter the item selects; empty for in-page anchors
	Anchor   string // fragment target, e.g. "subscribe"
	LabelKey string // i18n key, e.g. "nav.current"
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
	Href     string
	Fragment string // htmx swap target for view items
	View     string
	LabelKey string
	Active   bool
}

// Main is the primary navigation definition.
var Main = []Item{
	{View: "current", LabelKey: "nav.current"},
	{View: "archive", LabelKey: "nav.archive"},
	{Anchor: "subscribe", LabelKey: "nav.subscribe"},
}

// Build renders navigation items with active state for the current view.
// lang is carried over when it was set explicitly.
func Build(currentView, lang string) []RenderedItem {
	items := make([]RenderedItem, 0, len(Main))
	for _, it := range Main {
		item := RenderedItem{
			Href:     Href(it.View, lang, it.Anchor),
			View:     it.View,
			LabelKey: it.LabelKey,
			Active:   it.View != "" && it.View == currentView,
		}
		if it.View != "" {
			item.Fragment = FragmentHref(it.View, lang)
		}
		items = append(items, item)
	}
	return items
}

// Href builds a link to the page for view. The home view is the bare path.
func Href(view, lang, anchor string) string {
	q := url.Values{}
	if view = strings.TrimSpace(view); view != "" && view != "home" {
		q.Set("view", view)
	}
	if lang = strings.TrimSpace(lang); lang != "" {
		q.Set("hl", lang)
	}
	href := "/"
	if enc := q.Encode(); enc != "" {
		href += "?" + enc
	}
	if anchor != "" {
		href += "#" + anchor
	}
	return href
}

// FragmentHref links to the catalog fragment for view, which htmx swaps in
// place of the grids when the visitor changes view.
func FragmentHref(view, lang string) string {
	if view = strings.TrimSpace(view); view == "" {
		view = "home"
	}
	href := "/grid/" + url.PathEscape(view)
	if lang = strings.TrimSpace(lang); lang != "" {
		href += "?" + url.Values{"hl": {lang}}.Encode()
	}
	return href
}

// ProductHref links to the page with the modal for key open, keeping view.
func ProductHref(key, view, lang string) string {
	q := url.Values{}
	if view != "" && view != "home" {
		q.Set("view", view)
	}
	if lang != "" {
		q.Set("hl", lang)
	}
	href := "/products/" + url.PathEscape(key)
	if enc := q.Encode(); enc != "" {
		href += "?" + enc
	}
	return href
}
