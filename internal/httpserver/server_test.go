package httpserver_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"limitedtees.shop/storefront/internal/catalog"
	"limitedtees.shop/storefront/internal/config"
	"limitedtees.shop/storefront/internal/storefront"
	"limitedtees.shop/storefront/internal/testutil"
)

var october = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

func oneProduct() *catalog.StaticService {
	svc := catalog.NewStaticService()
	svc.CurrentItems = []catalog.Product{{
		ID: "1", Slug: "x-tee", Title: "X", Price: catalog.NewPrice(10),
		Colors: []string{"Black"}, Sizes: []string{"M", "L"},
		ReleaseMonth: 10, ReleaseYear: 2026,
	}}
	svc.ArchiveItems = []catalog.Product{{ID: "old-1", Title: "Old", Price: catalog.TextPrice("$25")}}
	return svc
}

// csrfToken loads the page once so the jar holds the cookie, and returns the
// token rendered into the subscribe form.
func csrfToken(t *testing.T, c *http.Client, base string) string {
	t.Helper()

	resp, body := testutil.Get(t, c, base+"/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := testutil.ParseHTML(t, body)
	token, ok := doc.Find(`#subscribe input[name="csrf_token"]`).Attr("value")
	require.True(t, ok)
	require.NotEmpty(t, token)
	return token
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	resp, body := testutil.Get(t, testutil.Client(t), ts.URL+"/healthz", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", string(body))
}

func TestHomeRendersCurrentDrop(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t, testutil.WithService(oneProduct()), testutil.WithNow(october))
	resp, body := testutil.Get(t, testutil.Client(t), ts.URL+"/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))

	doc := testutil.ParseHTML(t, body)
	current := doc.Find(`[data-grid="current"]`)
	require.Equal(t, "This Month — October 2026", testutil.Text(current, "h2"))
	cards := current.Find("[data-product-key]")
	require.Equal(t, 1, cards.Length())
	require.Equal(t, "X", strings.TrimSpace(cards.Find(".title").Text()))
	require.Equal(t, "$10.00", strings.TrimSpace(cards.Find("[data-price]").Text()))
	require.Equal(t, "10/2026", strings.TrimSpace(cards.Find(".release").Text()))

	archive := doc.Find(`[data-grid="archive"] [data-product-key]`)
	require.Equal(t, 1, archive.Length())
	require.Equal(t, "$25", strings.TrimSpace(archive.Find("[data-price]").Text()))

	require.Equal(t, 3, doc.Find("[data-info]").Length())
	require.Equal(t, 0, doc.Find("[data-modal]").Length())
	require.Equal(t, 0, doc.Find(".load-status").Length())
	require.Contains(t, doc.Find(`script[type="application/ld+json"]`).Text(), `"ItemList"`)
	require.Contains(t, doc.Find(".site-footer").Text(), "© 2026 Limited Edition Tees. All rights reserved.")
}

func TestViewFilterHidesOtherGrid(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t, testutil.WithService(oneProduct()))
	c := testutil.Client(t)

	_, body := testutil.Get(t, c, ts.URL+"/?view=archive", nil)
	doc := testutil.ParseHTML(t, body)
	require.Equal(t, 0, doc.Find(`[data-grid="current"]`).Length())
	require.Equal(t, 1, doc.Find(`[data-grid="archive"]`).Length())
	require.Equal(t, "page", doc.Find(`[data-nav="nav.archive"]`).AttrOr("aria-current", ""))

	_, body = testutil.Get(t, c, ts.URL+"/?view=current", nil)
	doc = testutil.ParseHTML(t, body)
	require.Equal(t, 1, doc.Find(`[data-grid="current"]`).Length())
	require.Equal(t, 0, doc.Find(`[data-grid="archive"]`).Length())
}

func TestShapeFailuresFallBack(t *testing.T) {
	t.Parallel()

	svc := catalog.NewStaticService()
	svc.CurrentErr = &catalog.StatusError{Op: "current", Status: http.StatusNotFound, JSONBody: true}
	svc.ArchiveErr = catalog.ErrMalformed
	ts := testutil.NewServer(t, testutil.WithService(svc))

	_, body := testutil.Get(t, testutil.Client(t), ts.URL+"/", nil)
	doc := testutil.ParseHTML(t, body)
	titles := testutil.Texts(doc.Selection, `[data-grid="current"] .title`)
	require.Equal(t, []string{"NOIR BASIC TEE", "ULTRAVIOLET ARC"}, titles)
	require.Equal(t, 1, doc.Find(`[data-grid="archive"] [data-empty]`).Length())
	require.Equal(t, "false", doc.Find(".load-status").AttrOr("data-load-error", ""))
	require.Equal(t, 1, doc.Find("[data-seed]").Length())
}

func TestNetworkFailureShowsEmptyStates(t *testing.T) {
	t.Parallel()

	svc := catalog.NewStaticService()
	svc.CurrentErr = errors.New("dial tcp: connection refused")
	ts := testutil.NewServer(t, testutil.WithService(svc))

	_, body := testutil.Get(t, testutil.Client(t), ts.URL+"/", nil)
	doc := testutil.ParseHTML(t, body)
	require.Equal(t, 2, doc.Find("[data-empty]").Length())
	require.Equal(t, "Nothing here yet. Check back soon.", strings.TrimSpace(doc.Find("[data-empty]").First().Text()))
	require.Equal(t, "true", doc.Find(".load-status").AttrOr("data-load-error", ""))
	require.Equal(t, 1, doc.Find("[data-seed]").Length())
}

func TestSilentFallbackHidesError(t *testing.T) {
	t.Parallel()

	svc := catalog.NewStaticService()
	svc.ArchiveErr = errors.New("connection reset")
	ts := testutil.NewServer(t, testutil.WithService(svc), testutil.WithFallback(storefront.FallbackSilent))

	_, body := testutil.Get(t, testutil.Client(t), ts.URL+"/", nil)
	doc := testutil.ParseHTML(t, body)
	require.Equal(t, 2, doc.Find("[data-empty]").Length())
	require.Equal(t, 0, doc.Find(".load-status").Length())
}

func TestProductModalOpenAndClose(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t, testutil.WithService(oneProduct()))
	c := testutil.Client(t)

	resp, body := testutil.Get(t, c, ts.URL+"/products/x-tee", testutil.HTMX())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := testutil.ParseHTML(t, body)
	modal := doc.Find("#modal-root[data-modal]")
	require.Equal(t, "1", modal.AttrOr("data-modal", ""))
	require.Equal(t, "X", testutil.Text(modal, "h2"))
	require.Equal(t, "$10.00", testutil.Text(modal, "[data-price]"))
	require.Equal(t, "No description provided.", testutil.Text(modal, ".description"))
	require.Equal(t, 2, modal.Find(`[data-chips="sizes"] .chip`).Length())
	require.Equal(t, 0, doc.Find("header.site-header").Length())

	for _, via := range []string{"button", "backdrop", "footer"} {
		href, ok := modal.Find(`[data-close="` + via + `"]`).Attr("href")
		require.True(t, ok, via)

		resp, body := testutil.Get(t, c, ts.URL+href, testutil.HTMX())
		require.Equal(t, http.StatusOK, resp.StatusCode, via)
		require.Equal(t, "/", resp.Header.Get("HX-Push-Url"), via)
		closed := testutil.ParseHTML(t, body)
		require.Equal(t, 1, closed.Find("#modal-root").Length(), via)
		require.Equal(t, 0, closed.Find("[data-modal]").Length(), via)

		resp, _ = testutil.Get(t, c, ts.URL+href, nil)
		require.Equal(t, http.StatusSeeOther, resp.StatusCode, via)
		require.Equal(t, "/", resp.Header.Get("Location"), via)
	}
}

func TestProductPageFullNavigation(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t, testutil.WithService(oneProduct()))
	c := testutil.Client(t)

	_, body := testutil.Get(t, c, ts.URL+"/products/old-1?view=archive", nil)
	doc := testutil.ParseHTML(t, body)
	require.Equal(t, 1, doc.Find("header.site-header").Length())
	require.Equal(t, "old-1", doc.Find("[data-modal]").AttrOr("data-modal", ""))
	href := doc.Find(`[data-close="button"]`).AttrOr("href", "")
	require.Equal(t, "/modal/close?via=button&view=archive", href)

	_, body = testutil.Get(t, c, ts.URL+"/products/nope", nil)
	require.Equal(t, 0, testutil.ParseHTML(t, body).Find("[data-modal]").Length())

	_, body = testutil.Get(t, c, ts.URL+"/?product=1", nil)
	require.Equal(t, 1, testutil.ParseHTML(t, body).Find("[data-modal]").Length())
}

func TestCloseRejectsUnknownControl(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	resp, _ := testutil.Get(t, testutil.Client(t), ts.URL+"/modal/close?via=escape", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGridFragment(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t, testutil.WithService(oneProduct()))
	c := testutil.Client(t)

	resp, body := testutil.Get(t, c, ts.URL+"/grid/archive", testutil.HTMX())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := testutil.ParseHTML(t, body)
	catalogSection := doc.Find(`#catalog[data-view="archive"]`)
	require.Equal(t, 1, catalogSection.Length())
	require.Equal(t, 1, catalogSection.Find(`[data-grid="archive"] [data-product-key="old-1"]`).Length())
	require.Equal(t, 0, catalogSection.Find(`[data-grid="current"]`).Length())
	require.Equal(t, "/products/old-1?view=archive", catalogSection.Find(`[data-product-key="old-1"]`).AttrOr("href", ""))
	require.Equal(t, 0, doc.Find("header.site-header").Length())
	oob := doc.Find(`nav#main-nav[hx-swap-oob="true"]`)
	require.Equal(t, 1, oob.Length())
	require.Equal(t, "page", oob.Find(`[data-nav="nav.archive"]`).AttrOr("aria-current", ""))

	_, body = testutil.Get(t, c, ts.URL+"/grid/home", testutil.HTMX())
	doc = testutil.ParseHTML(t, body)
	require.Equal(t, 1, doc.Find(`#catalog [data-grid="current"]`).Length())
	require.Equal(t, 1, doc.Find(`#catalog [data-grid="archive"]`).Length())

	resp, _ = testutil.Get(t, c, ts.URL+"/grid/archive", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = testutil.Get(t, c, ts.URL+"/grid/bogus", testutil.HTMX())
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestViewLinksRequestCatalogFragment(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t, testutil.WithService(oneProduct()))
	c := testutil.Client(t)

	_, body := testutil.Get(t, c, ts.URL+"/?hl=ja", nil)
	doc := testutil.ParseHTML(t, body)
	require.Equal(t, 1, doc.Find(`#main #catalog`).Length())

	archiveNav := doc.Find(`nav#main-nav [data-nav="nav.archive"]`)
	require.Equal(t, "/grid/archive?hl=ja", archiveNav.AttrOr("hx-get", ""))
	require.Equal(t, "#catalog", archiveNav.AttrOr("hx-target", ""))
	require.Equal(t, "/?hl=ja&view=archive", archiveNav.AttrOr("hx-push-url", ""))
	require.Empty(t, doc.Find(`[data-nav="nav.subscribe"]`).AttrOr("hx-get", ""))

	cta := doc.Find(`[data-cta="current"]`)
	require.Equal(t, "/grid/current?hl=ja", cta.AttrOr("hx-get", ""))
	require.Equal(t, "/?hl=ja&view=current", cta.AttrOr("hx-push-url", ""))

	resp, body := testutil.Get(t, c, ts.URL+archiveNav.AttrOr("hx-get", ""), testutil.HTMX())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, testutil.ParseHTML(t, body).Find(`#catalog[data-view="archive"]`).Length())
}

func TestProductSlugCloseIsReachable(t *testing.T) {
	t.Parallel()

	svc := catalog.NewStaticService()
	svc.CurrentItems = []catalog.Product{{Slug: "close", Title: "Close Call", Price: catalog.NewPrice(30)}}
	ts := testutil.NewServer(t, testutil.WithService(svc))
	c := testutil.Client(t)

	_, body := testutil.Get(t, c, ts.URL+"/", nil)
	href := testutil.ParseHTML(t, body).Find(`[data-product-key="close"]`).AttrOr("href", "")
	require.Equal(t, "/products/close", href)

	resp, body := testutil.Get(t, c, ts.URL+href, testutil.HTMX())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	modal := testutil.ParseHTML(t, body).Find("[data-modal]")
	require.Equal(t, "close", modal.AttrOr("data-modal", ""))
	require.Equal(t, "Close Call", testutil.Text(modal, "h2"))
}

func TestSubscribeRequiresCSRF(t *testing.T) {
	t.Parallel()

	svc := catalog.NewStaticService()
	ts := testutil.NewServer(t, testutil.WithService(svc))

	resp, _ := testutil.PostForm(t, testutil.Client(t), ts.URL+"/subscribe", url.Values{"email": {"a@b.co"}}, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Empty(t, svc.Submissions())
}

func TestSubscribeSuccessClearsEmail(t *testing.T) {
	t.Parallel()

	svc := catalog.NewStaticService()
	ts := testutil.NewServer(t, testutil.WithService(svc))
	c := testutil.Client(t)
	token := csrfToken(t, c, ts.URL)

	form := url.Values{"email": {" fan@example.com "}, "name": {"Kim"}, "csrf_token": {token}}
	resp, body := testutil.PostForm(t, c, ts.URL+"/subscribe", form, testutil.HTMX())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc := testutil.ParseHTML(t, body)
	section := doc.Find("#subscribe")
	require.Equal(t, "success", section.AttrOr("data-subscribe-status", ""))
	require.Equal(t, "", section.Find(`input[name="email"]`).AttrOr("value", "missing"))
	require.Equal(t, "Kim", section.Find(`input[name="name"]`).AttrOr("value", ""))
	require.Contains(t, section.Find(".success").Text(), "You're in!")
	_, disabled := section.Find(`button[type="submit"]`).Attr("disabled")
	require.False(t, disabled)

	subs := svc.Submissions()
	require.Len(t, subs, 1)
	require.Equal(t, "fan@example.com", subs[0].Email)
}

func TestSubscribeFailureKeepsEmail(t *testing.T) {
	t.Parallel()

	svc := catalog.NewStaticService()
	svc.Result = &catalog.SubscribeResult{Status: "duplicate"}
	ts := testutil.NewServer(t, testutil.WithService(svc))
	c := testutil.Client(t)
	token := csrfToken(t, c, ts.URL)

	form := url.Values{"email": {"fan@example.com"}, "csrf_token": {token}}
	_, body := testutil.PostForm(t, c, ts.URL+"/subscribe", form, testutil.HTMX())
	section := testutil.ParseHTML(t, body).Find("#subscribe")
	require.Equal(t, "error", section.AttrOr("data-subscribe-status", ""))
	require.Equal(t, "fan@example.com", section.Find(`input[name="email"]`).AttrOr("value", ""))
	require.Equal(t, "Something went wrong. Try again later.", strings.TrimSpace(section.Find(".error").Text()))
}

func TestSubscribeInvalidEmailSkipsBackend(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/subscribe" {
			calls.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(backend.Close)

	ts := testutil.NewServer(t, testutil.WithBackendURL(backend.URL))
	c := testutil.Client(t)
	token := csrfToken(t, c, ts.URL)

	form := url.Values{"email": {"not-an-email"}, "csrf_token": {token}}
	_, body := testutil.PostForm(t, c, ts.URL+"/subscribe", form, testutil.HTMX())
	section := testutil.ParseHTML(t, body).Find("#subscribe")
	require.Equal(t, "error", section.AttrOr("data-subscribe-status", ""))
	require.Equal(t, "not-an-email", section.Find(`input[name="email"]`).AttrOr("value", ""))
	require.Zero(t, calls.Load())
}

func TestSubscribeWithoutHTMXRendersFullPage(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	c := testutil.Client(t)
	token := csrfToken(t, c, ts.URL)

	form := url.Values{"email": {"fan@example.com"}, "csrf_token": {token}}
	_, body := testutil.PostForm(t, c, ts.URL+"/subscribe", form, nil)
	doc := testutil.ParseHTML(t, body)
	require.Equal(t, 1, doc.Find("header.site-header").Length())
	require.Equal(t, "success", doc.Find("#subscribe").AttrOr("data-subscribe-status", ""))
}

func TestSeedLoadsSampleData(t *testing.T) {
	t.Parallel()

	svc := catalog.NewStaticService()
	svc.CurrentItems = nil
	ts := testutil.NewServer(t, testutil.WithService(svc))
	c := testutil.Client(t)
	token := csrfToken(t, c, ts.URL)

	form := url.Values{"csrf_token": {token}, "view": {"current"}}
	resp, body := testutil.PostForm(t, c, ts.URL+"/seed", form, testutil.HTMX())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, svc.Seeds())

	doc := testutil.ParseHTML(t, body)
	require.Equal(t, 2, doc.Find(`[data-grid="current"] [data-product-key]`).Length())
	require.Equal(t, 0, doc.Find(`[data-grid="archive"]`).Length())
	require.Equal(t, 0, doc.Find("[data-seed-failed]").Length())
}

func TestSeedFailureIsReported(t *testing.T) {
	t.Parallel()

	svc := catalog.NewStaticService()
	svc.SeedErr = errors.New("forbidden")
	ts := testutil.NewServer(t, testutil.WithService(svc))
	c := testutil.Client(t)
	token := csrfToken(t, c, ts.URL)

	_, body := testutil.PostForm(t, c, ts.URL+"/seed", url.Values{"csrf_token": {token}}, testutil.HTMX())
	require.Equal(t, 1, testutil.ParseHTML(t, body).Find("[data-seed-failed]").Length())
}

func TestSeedDisabledInSilentMode(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t, testutil.WithFallback(storefront.FallbackSilent))
	c := testutil.Client(t)
	token := csrfToken(t, c, ts.URL)

	resp, _ := testutil.PostForm(t, c, ts.URL+"/seed", url.Values{"csrf_token": {token}}, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBackendOverHTTP(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/tees/current":
			_, _ = w.Write([]byte(`[{"id":"7","title":"Wire Tee","price":"€30","release_month":9,"release_year":2026}]`))
		case "/api/tees/archive":
			_, _ = w.Write([]byte(`{"items":[]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(backend.Close)

	ts := testutil.NewServer(t, testutil.WithBackendURL(backend.URL))
	_, body := testutil.Get(t, testutil.Client(t), ts.URL+"/", nil)
	doc := testutil.ParseHTML(t, body)
	require.Equal(t, "€30", strings.TrimSpace(doc.Find(`[data-product-key="7"] [data-price]`).Text()))
	require.Equal(t, 1, doc.Find(`[data-grid="archive"] [data-empty]`).Length())
}

func TestLocaleSwitch(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t, testutil.WithNow(october))
	resp, body := testutil.Get(t, testutil.Client(t), ts.URL+"/?hl=ja", nil)
	require.Equal(t, "ja", resp.Header.Get("Content-Language"))
	doc := testutil.ParseHTML(t, body)
	require.Equal(t, "ja", doc.Find("html").AttrOr("lang", ""))
	require.Contains(t, doc.Find(`[data-grid="current"] h2`).Text(), "2026年10月")
	require.Contains(t, doc.Find(`[data-nav="nav.archive"]`).AttrOr("href", ""), "hl=ja")
}

func TestAssetsServed(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	resp, body := testutil.Get(t, testutil.Client(t), ts.URL+"/assets/app.css", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("ETag"))
	require.Contains(t, string(body), ".card")
}

func TestAnalyticsTagsRenderWhenConfigured(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t, testutil.WithAnalytics(config.Analytics{
		GA4MeasurementID: "G-TEST123",
		GTMContainerID:   "GTM-TEST1",
	}))
	_, body := testutil.Get(t, testutil.Client(t), ts.URL+"/", nil)
	page := string(body)
	require.Contains(t, page, "https://www.googletagmanager.com/gtm.js?id=")
	require.Contains(t, page, "https://www.googletagmanager.com/ns.html?id=GTM-TEST1")
	require.Contains(t, page, "https://www.googletagmanager.com/gtag/js?id=G-TEST123")

	gtmOnly := testutil.NewServer(t, testutil.WithAnalytics(config.Analytics{GTMContainerID: "GTM-TEST1"}))
	_, body = testutil.Get(t, testutil.Client(t), gtmOnly.URL+"/", nil)
	require.Contains(t, string(body), "ns.html?id=GTM-TEST1")
	require.NotContains(t, string(body), "gtag/js")

	plain := testutil.NewServer(t)
	_, body = testutil.Get(t, testutil.Client(t), plain.URL+"/", nil)
	require.NotContains(t, string(body), "googletagmanager.com")
}
