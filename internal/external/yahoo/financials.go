package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/wonhee/tigerboard/internal/contracts"
)

// summaryResponse mirrors the quoteSummary modules this adapter cares
// about. Yahoo wraps every number in a {raw, fmt} pair.
type summaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			SummaryDetail struct {
				TrailingPE   rawValue `json:"trailingPE"`
				MarketCap    rawValue `json:"marketCap"`
			} `json:"summaryDetail"`
			DefaultKeyStatistics struct {
				PriceToBook rawValue `json:"priceToBook"`
				ForwardEps  rawValue `json:"forwardEps"`
				TrailingEps rawValue `json:"trailingEps"`
			} `json:"defaultKeyStatistics"`
		} `json:"result"`
	} `json:"quoteSummary"`
}

type rawValue struct {
	Raw *float64 `json:"raw"`
}

// annotateFinancials stamps the current PE/PB/market cap/EPS forecast
// onto every record. These are point-in-time values, not historical
// series, which matches how the leaderboard displays them. Failures
// are logged and swallowed: financial fields are optional.
func (c *Client) annotateFinancials(ctx context.Context, symbol string, records []contracts.RawRecord) {
	url := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=summaryDetail,defaultKeyStatistics",
		c.baseURL, symbol)

	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		c.logger.WithError(err).WithField("symbol", symbol).Warn("Financial summary fetch failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"status": resp.StatusCode,
		}).Warn("Financial summary fetch failed")
		return
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return
	}

	var sr summaryResponse
	if err := json.Unmarshal(body, &sr); err != nil || len(sr.QuoteSummary.Result) == 0 {
		return
	}

	result := sr.QuoteSummary.Result[0]
	pe := result.SummaryDetail.TrailingPE.Raw
	pb := result.DefaultKeyStatistics.PriceToBook.Raw
	cap := result.SummaryDetail.MarketCap.Raw
	eps := result.DefaultKeyStatistics.ForwardEps.Raw
	if eps == nil {
		eps = result.DefaultKeyStatistics.TrailingEps.Raw
	}

	for i := range records {
		records[i].PERatio = pe
		records[i].PBRatio = pb
		records[i].MarketCap = cap
		records[i].EPSForecast = eps
	}
}
