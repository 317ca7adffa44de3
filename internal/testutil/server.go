// Package testutil starts the storefront stack for handler tests.
package testutil

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"limitedtees.shop/storefront/internal/catalog"
	"limitedtees.shop/storefront/internal/config"
	"limitedtees.shop/storefront/internal/httpserver"
	"limitedtees.shop/storefront/internal/storefront"
)

// ServerOption customises the HTTP server configuration for tests.
type ServerOption func(*httpserver.Config)

// WithService serves every request from svc.
func WithService(svc catalog.Service) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Catalog = func(*http.Request) (catalog.Service, error) { return svc, nil }
	}
}

// WithBackendURL points the default HTTP service at url.
func WithBackendURL(url string) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Catalog = nil
		cfg.BackendURL = url
	}
}

// WithFallback sets the load failure presentation.
func WithFallback(mode storefront.FallbackMode) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Fallback = mode
	}
}

// WithAnalytics renders the given tag identifiers into the layout.
func WithAnalytics(a config.Analytics) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Analytics = a
	}
}

// WithNow fixes the clock.
func WithNow(now time.Time) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Now = func() time.Time { return now }
	}
}

// NewServer constructs an httptest server running the storefront stack with
// a static catalog by default.
func NewServer(t testing.TB, opts ...ServerOption) *httptest.Server {
	t.Helper()

	svc := catalog.NewStaticService()
	cfg := httpserver.Config{
		Address:  ":0",
		Fallback: storefront.FallbackSample,
		Catalog:  func(*http.Request) (catalog.Service, error) { return svc, nil },
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	srv, err := httpserver.New(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

// Client returns a client with a cookie jar that does not follow redirects.
func Client(t testing.TB) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Get issues a GET and returns status and body.
func Get(t testing.TB, c *http.Client, rawURL string, header http.Header) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	return do(t, c, req)
}

// PostForm submits form values and returns status and body.
func PostForm(t testing.TB, c *http.Client, rawURL string, form url.Values, header http.Header) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range header {
		req.Header[k] = v
	}
	return do(t, c, req)
}

// HTMX returns headers marking a request as an htmx fragment request.
func HTMX() http.Header {
	return http.Header{"Hx-Request": {"true"}}
}

func do(t testing.TB, c *http.Client, req *http.Request) (*http.Response, []byte) {
	t.Helper()

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, body
}
