package quill

import (
	"golang.org/x/sync/singleflight"
)

// Client is the platform-neutral core both Quill front ends share: it keeps
// the access/refresh pair valid across requests and is the single path every
// API call takes. Storage and transport are injected via ClientConfig so each
// platform supplies its own adapter.
type Client struct {
	http  Doer
	store TokenStore
	cfg   ClientConfig

	// refreshGroup collapses concurrent refresh attempts into one HTTP call;
	// later callers share the in-flight result.
	refreshGroup singleflight.Group
}

// NewClient creates a fully-wired Quill client.
func NewClient(cfg ClientConfig) *Client {
	cfg.defaults()
	return &Client{
		http:  cfg.HTTPClient,
		store: cfg.Store,
		cfg:   cfg,
	}
}

// Store returns the client's token store.
func (c *Client) Store() TokenStore {
	return c.store
}

// recordAPICall calls the metrics hook if configured.
func (c *Client) recordAPICall(operation string, success bool) {
	if c.cfg.MetricsHook != nil {
		c.cfg.MetricsHook(operation, success)
	}
}
