// Package httpserver wires the storefront routes, middleware and templates.
package httpserver

import (
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"limitedtees.shop/storefront/content"
	"limitedtees.shop/storefront/internal/catalog"
	"limitedtees.shop/storefront/internal/cms"
	"limitedtees.shop/storefront/internal/config"
	"limitedtees.shop/storefront/internal/i18n"
	custommw "limitedtees.shop/storefront/internal/middleware"
	"limitedtees.shop/storefront/internal/observability"
	"limitedtees.shop/storefront/internal/storefront"
	"limitedtees.shop/storefront/locales"
	"limitedtees.shop/storefront/public"
	"limitedtees.shop/storefront/templates"
)

// ServiceFactory returns the backend service for one request.
type ServiceFactory func(r *http.Request) (catalog.Service, error)

// Config holds runtime options for the storefront HTTP server.
type Config struct {
	Address string
	Logger  *zap.Logger

	// Catalog overrides how the backend is reached; by default an HTTP
	// service is built per request from BackendURL and BackendPort.
	Catalog        ServiceFactory
	BackendURL     string
	BackendPort    string
	BackendTimeout time.Duration

	Fallback storefront.FallbackMode

	Templates fs.FS
	Content   fs.FS
	Bundle    *i18n.Bundle
	Dev       bool

	SiteURL        string
	SecureCookies  bool
	Analytics      config.Analytics
	RequestTimeout time.Duration

	Now func() time.Time
}

// New constructs the HTTP server with middleware stack and embedded assets.
func New(cfg Config) (*http.Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	bundle := cfg.Bundle
	if bundle == nil {
		b, err := i18n.LoadFS(locales.FS, ".", "en", nil)
		if err != nil {
			return nil, fmt.Errorf("load locales: %w", err)
		}
		bundle = b
	}
	tmplFS := cfg.Templates
	if tmplFS == nil {
		tmplFS = templates.FS
	}
	contentFS := cfg.Content
	if contentFS == nil {
		contentFS = content.FS
	}
	rnd, err := newRenderer(tmplFS, cfg.Dev, bundle)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	staticContent, err := public.StaticFS()
	if err != nil {
		return nil, fmt.Errorf("embed static: %w", err)
	}

	factory := cfg.Catalog
	if factory == nil {
		factory = httpServiceFactory(cfg.BackendURL, cfg.BackendPort, cfg.BackendTimeout)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	a := &app{
		catalog:   factory,
		fallback:  cfg.Fallback,
		bundle:    bundle,
		blocks:    cms.NewLibrary(contentFS, bundle.Fallback()),
		render:    rnd,
		siteURL:   cfg.SiteURL,
		analytics: cfg.Analytics,
		now:       now,
	}

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(custommw.Logger(logger))
	router.Use(chimw.Recoverer)
	router.Use(observability.Trace)
	router.Use(chimw.Compress(5))
	router.Use(chimw.Timeout(timeout))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/assets/*", http.StripPrefix("/assets", custommw.AssetsWithCache(staticContent)))

	router.Group(func(r chi.Router) {
		r.Use(custommw.HTMX)
		r.Use(custommw.Locale(bundle))
		r.Use(custommw.CSRF(cfg.SecureCookies))

		r.Get("/", a.homeHandler)
		r.Get("/modal/close", a.closeProductHandler)
		r.Get("/products/{key}", a.productHandler)
		RegisterFragment(r, "/grid/{view}", a.gridHandler)
		r.Post("/subscribe", a.subscribeHandler)
		r.Post("/seed", a.seedHandler)
	})

	return &http.Server{
		Addr:              cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      timeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}, nil
}

// RegisterFragment registers a GET handler that only answers htmx requests.
func RegisterFragment(r chi.Router, pattern string, handler http.HandlerFunc) {
	r.With(requireHTMX).Get(pattern, handler)
}

func requireHTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !custommw.HTMXInfoFromContext(r.Context()).IsHTMX {
			http.Error(w, "htmx request required", http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func httpServiceFactory(baseURL, port string, timeout time.Duration) ServiceFactory {
	client := catalog.NewHTTPClient()
	if timeout > 0 {
		client.Timeout = timeout
	}
	return func(r *http.Request) (catalog.Service, error) {
		svc, err := catalog.NewHTTPService(catalog.ResolveBaseURL(baseURL, r, port), client)
		if err != nil {
			return nil, err
		}
		return svc, nil
	}
}
