package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"limitedtees.shop/storefront/internal/catalog"
	"limitedtees.shop/storefront/internal/cms"
	"limitedtees.shop/storefront/internal/config"
	"limitedtees.shop/storefront/internal/handlers"
	"limitedtees.shop/storefront/internal/i18n"
	custommw "limitedtees.shop/storefront/internal/middleware"
	"limitedtees.shop/storefront/internal/nav"
	"limitedtees.shop/storefront/internal/storefront"
)

type app struct {
	catalog   ServiceFactory
	fallback  storefront.FallbackMode
	bundle    *i18n.Bundle
	blocks    *cms.Library
	render    *renderer
	siteURL   string
	analytics config.Analytics
	now       func() time.Time
}

// pageRequest carries the per-request inputs shared by every handler.
type pageRequest struct {
	state      storefront.State
	form       storefront.SubscribeForm
	seedFailed bool
}

func (a *app) homeHandler(w http.ResponseWriter, r *http.Request) {
	st := a.load(r, viewOf(r))
	if key := strings.TrimSpace(r.URL.Query().Get("product")); key != "" {
		st = storefront.Reduce(st, storefront.Select{Key: key})
	}
	a.render.render(w, http.StatusOK, "base", a.page(r, pageRequest{state: st}))
}

func (a *app) productHandler(w http.ResponseWriter, r *http.Request) {
	st := a.load(r, viewOf(r))
	key := chi.URLParam(r, "key")
	st = storefront.Reduce(st, storefront.Select{Key: key})
	data := a.page(r, pageRequest{state: st})
	if custommw.IsHTMX(r.Context()) {
		a.render.render(w, http.StatusOK, "modal", data)
		return
	}
	a.render.render(w, http.StatusOK, "base", data)
}

func (a *app) closeProductHandler(w http.ResponseWriter, r *http.Request) {
	via, ok := storefront.ParseCloseAffordance(r.URL.Query().Get("via"))
	if !ok {
		http.Error(w, "unknown close control", http.StatusBadRequest)
		return
	}
	view := viewOf(r)
	target := nav.Href(string(view), custommw.ExplicitLang(r), "")
	custommw.LoggerFrom(r.Context()).Debug("modal closed", zap.String("via", string(via)))
	if custommw.IsHTMX(r.Context()) {
		st := storefront.Reduce(storefront.NewState(view), storefront.Close{Via: via})
		w.Header().Set("HX-Push-Url", target)
		a.render.render(w, http.StatusOK, "modal", a.page(r, pageRequest{state: st}))
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// gridHandler swaps the catalog section for a view change and refreshes the
// nav out of band so the active link follows.
func (a *app) gridHandler(w http.ResponseWriter, r *http.Request) {
	raw := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "view")))
	view := storefront.ParseView(raw)
	if string(view) != raw {
		http.NotFound(w, r)
		return
	}
	st := a.load(r, view)
	a.render.render(w, http.StatusOK, "catalog-fragment", a.page(r, pageRequest{state: st}))
}

func (a *app) subscribeHandler(w http.ResponseWriter, r *http.Request) {
	logger := custommw.LoggerFrom(r.Context())
	form := storefront.SubscribeForm{
		Email: r.PostFormValue("email"),
		Name:  r.PostFormValue("name"),
	}
	svc, err := a.catalog(r)
	if err != nil {
		logger.Error("backend unavailable", zap.Error(err))
		form, _ = form.Begin()
		form = form.Complete(catalog.SubscribeResult{}, err)
	} else {
		form = storefront.Submit(r.Context(), svc, form, logger)
	}

	view := viewOf(r)
	if custommw.IsHTMX(r.Context()) {
		st := storefront.NewState(view)
		a.render.render(w, http.StatusOK, "subscribe", a.page(r, pageRequest{state: st, form: form}))
		return
	}
	st := a.load(r, view)
	a.render.render(w, http.StatusOK, "base", a.page(r, pageRequest{state: st, form: form}))
}

func (a *app) seedHandler(w http.ResponseWriter, r *http.Request) {
	if a.fallback == storefront.FallbackSilent {
		http.NotFound(w, r)
		return
	}
	logger := custommw.LoggerFrom(r.Context())
	seedFailed := false
	svc, err := a.catalog(r)
	if err == nil {
		err = svc.Seed(r.Context())
	}
	if err != nil {
		logger.Warn("seed failed", zap.Error(err))
		seedFailed = true
	}

	view := storefront.ParseView(r.PostFormValue("view"))
	st := a.load(r, view)
	data := a.page(r, pageRequest{state: st, seedFailed: seedFailed})
	if custommw.IsHTMX(r.Context()) {
		a.render.render(w, http.StatusOK, "main", data)
		return
	}
	a.render.render(w, http.StatusOK, "base", data)
}

// load runs the fetch lifecycle and reduces it into a fresh state.
func (a *app) load(r *http.Request, view storefront.View) storefront.State {
	logger := custommw.LoggerFrom(r.Context())
	st := storefront.NewState(view)
	var collections catalog.Collections
	svc, err := a.catalog(r)
	if err != nil {
		logger.Error("backend unavailable", zap.Error(err))
		collections = catalog.Collections{Current: []catalog.Product{}, Archive: []catalog.Product{}, Err: err}
	} else {
		collections = catalog.Load(r.Context(), svc, catalog.LoadOptions{Now: a.now, Logger: logger})
	}
	return storefront.Reduce(st, storefront.Loaded{Collections: collections, Mode: a.fallback})
}

func (a *app) page(r *http.Request, in pageRequest) handlers.PageData {
	lang := custommw.Lang(r)
	linkLang := custommw.ExplicitLang(r)
	blocks, err := a.blocks.Blocks("info", lang)
	if err != nil {
		custommw.LoggerFrom(r.Context()).Warn("info blocks unavailable", zap.Error(err))
	}
	now := a.now()
	home := handlers.BuildHome(handlers.HomeInput{
		State:      in.state,
		Form:       in.form,
		Blocks:     blocks,
		Bundle:     a.bundle,
		Lang:       lang,
		Now:        now,
		LinkLang:   linkLang,
		SeedFailed: in.seedFailed,
	})
	return handlers.BuildPage(handlers.PageInput{
		Bundle:    a.bundle,
		Lang:      lang,
		LinkLang:  linkLang,
		Path:      r.URL.Path,
		SiteURL:   a.siteURL,
		CSRFToken: custommw.CSRFToken(r.Context()),
		Analytics: a.analytics,
	}, home, in.state.Current, now.Year())
}

func viewOf(r *http.Request) storefront.View {
	return storefront.ParseView(r.URL.Query().Get("view"))
}
