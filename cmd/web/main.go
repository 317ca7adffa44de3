package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"limitedtees.shop/storefront/internal/config"
	"limitedtees.shop/storefront/internal/httpserver"
	"limitedtees.shop/storefront/internal/i18n"
	"limitedtees.shop/storefront/internal/observability"
	"limitedtees.shop/storefront/internal/storefront"
)

func main() {
	var (
		addr       string
		dotenv     string
		tmplDir    string
		backendURL string
	)
	flag.StringVar(&addr, "addr", "", "HTTP listen address (default :$STOREFRONT_PORT, :$PORT or :8080)")
	flag.StringVar(&dotenv, "env-file", ".env", "optional dotenv file")
	flag.StringVar(&tmplDir, "templates", "", "templates directory, reparsed per request in dev mode")
	flag.StringVar(&backendURL, "backend", "", "backend base URL (overrides STOREFRONT_BACKEND_URL)")
	flag.Parse()

	cfg, err := config.Load(dotenv)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if addr == "" {
		addr = cfg.Addr()
	}
	if backendURL != "" {
		cfg.BackendURL = backendURL
	}
	if tmplDir == "" {
		tmplDir = cfg.TemplatesDir
	}

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.Dev)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	var templates fs.FS
	if tmplDir != "" {
		templates = os.DirFS(tmplDir)
	}

	var bundle *i18n.Bundle
	if cfg.LocalesDir != "" {
		bundle, err = i18n.Load(cfg.LocalesDir, "en", nil)
		if err != nil {
			logger.Fatal("load locales", zap.Error(err), zap.String("dir", cfg.LocalesDir))
		}
	}

	server, err := httpserver.New(httpserver.Config{
		Address:        addr,
		Logger:         logger,
		BackendURL:     cfg.BackendURL,
		BackendPort:    cfg.BackendPort,
		BackendTimeout: cfg.BackendTimeout,
		Fallback:       storefront.ParseFallbackMode(cfg.Fallback),
		Templates:      templates,
		Bundle:         bundle,
		Dev:            cfg.Dev,
		SiteURL:        cfg.SiteURL,
		SecureCookies:  cfg.SecureCookie,
		Analytics:      cfg.Analytics,
		RequestTimeout: cfg.RequestTimeout,
	})
	if err != nil {
		logger.Fatal("build server", zap.Error(err))
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("storefront listening",
			zap.String("env", cfg.Env),
			zap.Bool("dev", cfg.Dev),
			zap.String("backend", cfg.BackendURL),
			zap.String("fallback", cfg.Fallback),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
