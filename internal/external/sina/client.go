// Package sina wraps the Sina Finance legacy quarterly history pages:
// the last-resort source for A-share instruments. The data comes as
// server-rendered HTML, one page per (year, quarter), so a range fetch
// walks every quarter the range touches.
package sina

import (
	"github.com/wonhee/tigerboard/internal/contracts"
	"github.com/wonhee/tigerboard/pkg/config"
	"github.com/wonhee/tigerboard/pkg/httputil"
	"github.com/wonhee/tigerboard/pkg/logger"
)

// Client is the Sina Finance provider adapter.
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
		logger:     log.WithField("provider", contracts.ProviderSina),
		baseURL:    cfg.BaseURL,
		available:  cfg.Enabled && cfg.BaseURL != "",
	}
}

// Kind identifies this adapter.
func (c *Client) Kind() contracts.ProviderKind {
	return contracts.ProviderSina
}

// Available reports the one-time capability check.
func (c *Client) Available() bool {
	return c.available
}
