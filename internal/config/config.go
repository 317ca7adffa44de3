// Package config loads storefront settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "STOREFRONT"

// Config holds runtime settings for the storefront web process.
type Config struct {
	Port string `envconfig:"PORT"`
	Env  string `envconfig:"ENV" default:"development"`
	Dev  bool   `envconfig:"DEV"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// BackendURL pins the catalog API base. When empty the base is derived
	// per request from the page host and BackendPort.
	BackendURL     string        `envconfig:"BACKEND_URL"`
	BackendPort    string        `envconfig:"BACKEND_PORT" default:"8000"`
	BackendTimeout time.Duration `envconfig:"BACKEND_TIMEOUT" default:"8s"`

	// Fallback selects how load failures surface: "sample" shows the error
	// banner with a seed control, "silent" shows empty grids only.
	Fallback string `envconfig:"FALLBACK" default:"sample"`

	TemplatesDir string `envconfig:"TEMPLATES_DIR"`
	LocalesDir   string `envconfig:"LOCALES_DIR"`
	SiteURL      string `envconfig:"SITE_URL"`
	SecureCookie bool   `envconfig:"SECURE_COOKIES"`

	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	Analytics Analytics `envconfig:"ANALYTICS"`
}

// Analytics carries third-party tag identifiers rendered into the layout,
// read from STOREFRONT_ANALYTICS_*.
type Analytics struct {
	GA4MeasurementID string `envconfig:"GA_MEASUREMENT_ID"`
	GTMContainerID   string `envconfig:"GTM_CONTAINER_ID"`
	Debug            bool   `envconfig:"DEBUG"`
}

// Enabled reports whether any tag is configured.
func (a Analytics) Enabled() bool {
	return a.GA4MeasurementID != "" || a.GTMContainerID != ""
}

// ValidationError is returned when configuration fields are invalid.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Load reads an optional dotenv file, then binds STOREFRONT_* variables.
// A missing dotenv file is not an error.
func Load(dotenvPath string) (Config, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", dotenvPath, err)
		}
	}
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if cfg.Port == "" {
		cfg.Port = os.Getenv("PORT")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	cfg.Fallback = strings.ToLower(strings.TrimSpace(cfg.Fallback))
	cfg.BackendURL = strings.TrimSpace(cfg.BackendURL)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field values that envconfig cannot.
func (c Config) Validate() error {
	var invalid []string
	if c.BackendURL != "" {
		if u, err := url.Parse(c.BackendURL); err != nil || !u.IsAbs() || u.Host == "" {
			invalid = append(invalid, envPrefix+"_BACKEND_URL")
		}
	}
	if c.Fallback != "sample" && c.Fallback != "silent" {
		invalid = append(invalid, envPrefix+"_FALLBACK")
	}
	if c.BackendTimeout <= 0 {
		invalid = append(invalid, envPrefix+"_BACKEND_TIMEOUT")
	}
	if len(invalid) > 0 {
		return &ValidationError{fields: invalid}
	}
	return nil
}

// Addr returns the listen address for Port.
func (c Config) Addr() string {
	return ":" + c.Port
}
