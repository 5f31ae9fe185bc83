// Package yahoo wraps the Yahoo Finance chart API: the general-purpose
// source covering both A-shares (suffix symbols) and international
// equities. Yahoo throttles aggressively, so this adapter's client is
// always constructed with a pacer and a 429 is surfaced as
// ErrRateLimited rather than retried.
package yahoo

import (
	"github.com/wonhee/tigerboard/internal/contracts"
	"github.com/wonhee/tigerboard/pkg/config"
	"github.com/wonhee/tigerboard/pkg/httputil"
	"github.com/wonhee/tigerboard/pkg/logger"
)

// Client is the Yahoo Finance provider adapter.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	available  bool
}

// NewClient creates the adapter; the capability check happens once
// here.
func NewClient(cfg config.ProviderConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("provider", contracts.ProviderYahoo),
		baseURL:    cfg.BaseURL,
		available:  cfg.Enabled && cfg.BaseURL != "",
	}
}

// Kind identifies this adapter.
func (c *Client) Kind() contracts.ProviderKind {
	return contracts.ProviderYahoo
}

// Available reports the one-time capability check.
func (c *Client) Available() bool {
	return c.available
}
