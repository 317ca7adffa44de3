// Package storefront holds the request-scoped state container of the drop
// page and the reducer that applies user intents to it.
package storefront

import (
	"strings"

	"limitedtees.shop/storefront/internal/catalog"
)

// View filters which sections of the page are shown.
type View string

const (
	ViewHome    View = "home"
	ViewCurrent View = "current"
	ViewArchive View = "archive"
)

// ParseView maps a query value to a View; unknown values mean home.
func ParseView(v string) View {
	switch View(strings.ToLower(strings.TrimSpace(v))) {
	case ViewCurrent:
		return ViewCurrent
	case ViewArchive:
		return ViewArchive
	default:
		return ViewHome
	}
}

// ShowsCurrent reports whether the current grid is visible in this view.
func (v View) ShowsCurrent() bool { return v != ViewArchive }

// ShowsArchive reports whether the archive grid is visible in this view.
func (v View) ShowsArchive() bool { return v != ViewCurrent }

// FallbackMode selects how a failed fetch is presented.
type FallbackMode string

const (
	// FallbackSample surfaces an inline error and offers the "load sample
	// data" control.
	FallbackSample FallbackMode = "sample"
	// FallbackSilent shows empty grids with no message.
	FallbackSilent FallbackMode = "silent"
)

// ParseFallbackMode defaults to FallbackSample.
func ParseFallbackMode(v string) FallbackMode {
	if FallbackMode(strings.ToLower(strings.TrimSpace(v))) == FallbackSilent {
		return FallbackSilent
	}
	return FallbackSample
}

// State is everything the page renders from. Only Reduce produces new
// states; templates read it.
type State struct {
	Current  []catalog.Product
	Archive  []catalog.Product
	Selected *catalog.Product
	View     View
	Loading  bool
	// LoadFailed is set when the fetch lifecycle hit a network or decode
	// failure and the error should be shown.
	LoadFailed bool
	// OfferSeed shows the "load sample data" control when the backend had
	// nothing usable.
	OfferSeed bool
	// Sample is set when the current grid shows the built-in sample drop.
	Sample bool
}

// NewState returns the pre-fetch state: loading, empty lists, modal closed.
func NewState(view View) State {
	return State{
		Current: []catalog.Product{},
		Archive: []catalog.Product{},
		View:    ParseView(string(view)),
		Loading: true,
	}
}

// ModalOpen reports whether a product is selected.
func (s State) ModalOpen() bool { return s.Selected != nil }

// Intent is a typed message from a child component.
type Intent interface {
	intent()
}

// Loaded delivers the settled fetch lifecycle.
type Loaded struct {
	Collections catalog.Collections
	Mode        FallbackMode
}

// Select opens the modal for the product whose ID or slug equals Key.
type Select struct {
	Key string
}

// CloseAffordance names the control that closed the modal.
type CloseAffordance string

const (
	CloseButton   CloseAffordance = "button"
	CloseBackdrop CloseAffordance = "backdrop"
	CloseFooter   CloseAffordance = "footer"
)

// ParseCloseAffordance returns the affordance and whether it is known.
func ParseCloseAffordance(v string) (CloseAffordance, bool) {
	switch a := CloseAffordance(strings.ToLower(strings.TrimSpace(v))); a {
	case CloseButton, CloseBackdrop, CloseFooter:
		return a, true
	default:
		return "", false
	}
}

// Close dismisses the modal.
type Close struct {
	Via CloseAffordance
}

// SetView changes the section filter.
type SetView struct {
	View View
}

func (Loaded) intent()  {}
func (Select) intent()  {}
func (Close) intent()   {}
func (SetView) intent() {}

// Reduce applies in to s and returns the new state. s is not modified.
func Reduce(s State, in Intent) State {
	switch in := in.(type) {
	case Loaded:
		c := in.Collections
		s.Current = nonNil(c.Current)
		s.Archive = nonNil(c.Archive)
		s.Loading = false
		s.Sample = c.Sample
		s.Selected = nil
		loud := in.Mode != FallbackSilent
		s.LoadFailed = loud && c.Failed()
		s.OfferSeed = loud && (c.Failed() || c.Sample)
	case Select:
		if s.Selected != nil {
			// open(p) only leaves through Close
			return s
		}
		s.Selected = find(in.Key, s.Current, s.Archive)
	case Close:
		if _, ok := ParseCloseAffordance(string(in.Via)); ok {
			s.Selected = nil
		}
	case SetView:
		s.View = ParseView(string(in.View))
	}
	return s
}

func find(key string, lists ...[]catalog.Product) *catalog.Product {
	for _, list := range lists {
		for i := range list {
			if list[i].Matches(key) {
				return &list[i]
			}
		}
	}
	return nil
}

func nonNil(in []catalog.Product) []catalog.Product {
	if in == nil {
		return []catalog.Product{}
	}
	return in
}
