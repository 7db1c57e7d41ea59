package quill

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Doer executes one HTTP request. *http.Client satisfies it; platform
// adapters (custom transports, test fakes) plug in here.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds all configuration for the Quill client.
type ClientConfig struct {
	// BaseURL is the API root, e.g. "https://api.quill.social".
	BaseURL string

	// HTTPClient is the transport used for all requests.
	// Default: *http.Client with Timeout applied.
	HTTPClient Doer

	// Store persists the session token pair.
	// Default: in-memory store (session lost on restart).
	Store TokenStore

	// Timeout bounds each HTTP attempt when the default transport is used.
	Timeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// PerPage is the page size for paginated feed endpoints.
	PerPage int

	// RefreshLeeway treats a JWT access token expiring within this window as
	// already expired, so the refresh happens before the request instead of
	// after a 401.
	RefreshLeeway time.Duration

	// MetricsHook is called on each API request for external metrics
	// collection. operation is the call name, success the outcome.
	MetricsHook func(operation string, success bool)
}

// defaults fills in zero-value config fields with sensible defaults.
func (cfg *ClientConfig) defaults() {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Store == nil {
		cfg.Store = NewMemoryTokenStore()
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.PerPage == 0 {
		cfg.PerPage = 20
	}
	if cfg.RefreshLeeway == 0 {
		cfg.RefreshLeeway = 10 * time.Second
	}
}

// fileConfig is the YAML shape accepted by LoadConfig. Durations are strings
// in time.ParseDuration form ("15s", "1m").
type fileConfig struct {
	BaseURL       string `yaml:"base_url"`
	Timeout       string `yaml:"timeout"`
	UserAgent     string `yaml:"user_agent"`
	PerPage       int    `yaml:"per_page"`
	RefreshLeeway string `yaml:"refresh_leeway"`
}

// LoadConfig reads a ClientConfig from a YAML file. Fields absent from the
// file keep their zero value and are filled by defaults() in NewClient.
func LoadConfig(path string) (ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ClientConfig{}, fmt.Errorf("load config: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return ClientConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg := ClientConfig{
		BaseURL:   fc.BaseURL,
		UserAgent: fc.UserAgent,
		PerPage:   fc.PerPage,
	}
	if fc.Timeout != "" {
		if cfg.Timeout, err = time.ParseDuration(fc.Timeout); err != nil {
			return ClientConfig{}, fmt.Errorf("parse config %s: timeout: %w", path, err)
		}
	}
	if fc.RefreshLeeway != "" {
		if cfg.RefreshLeeway, err = time.ParseDuration(fc.RefreshLeeway); err != nil {
			return ClientConfig{}, fmt.Errorf("parse config %s: refresh_leeway: %w", path, err)
		}
	}
	return cfg, nil
}
