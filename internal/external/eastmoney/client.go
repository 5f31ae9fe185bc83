// Package eastmoney wraps the Eastmoney push2his kline API: the free,
// un-throttled source for A-share equities/funds and CFFEX index
// futures. All Eastmoney HTTP calls go through this client.
package eastmoney

import (
	"github.com/wonhee/tigerboard/internal/contracts"
	"github.com/wonhee/tigerboard/pkg/config"
	"github.com/wonhee/tigerboard/pkg/httputil"
	"github.com/wonhee/tigerboard/pkg/logger"
)

// Client is the Eastmoney provider adapter.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	available  bool
}

// NewClient creates the adapter. Availability is decided once here,
// from config, and threaded to the router.
func NewClient(cfg config.ProviderConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("provider", contracts.ProviderEastmoney),
		baseURL:    cfg.BaseURL,
		available:  cfg.Enabled && cfg.BaseURL != "",
	}
}

// Kind identifies this adapter.
func (c *Client) Kind() contracts.ProviderKind {
	return contracts.ProviderEastmoney
}

// Available reports the one-time capability check.
func (c *Client) Available() bool {
	return c.available
}
