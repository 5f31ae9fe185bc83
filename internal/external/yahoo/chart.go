package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wonhee/tigerboard/internal/contracts"
	"github.com/wonhee/tigerboard/internal/dates"
)

// chartResponse mirrors the v8 chart payload.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// rateLimitPhrases are error strings Yahoo uses when throttling without
// a clean 429 status.
var rateLimitPhrases = []string{
	"too many requests",
	"rate limit",
	"rate-limited",
}

// Fetch retrieves daily bars for a Yahoo symbol over [start, end].
// For equities it additionally annotates every record with the current
// financial indicators (best effort; a failed summary call never fails
// the fetch).
func (c *Client) Fetch(ctx context.Context, symbol string, class contracts.InstrumentClass, start, end time.Time) ([]contracts.RawRecord, error) {
	period1, err := dates.ToProviderFormat(dates.Format(start), contracts.ProviderYahoo)
	if err != nil {
		return nil, err
	}
	// Yahoo's period2 is exclusive; extend a day so `end` is included.
	period2, err := dates.ToProviderFormat(dates.Format(end.AddDate(0, 0, 1)), contracts.ProviderYahoo)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%s&period2=%s&interval=1d&events=history",
		c.baseURL, symbol, period1, period2)

	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		if isRateLimitMessage(err.Error()) {
			return nil, fmt.Errorf("%w: %v", contracts.ErrRateLimited, err)
		}
		return nil, fmt.Errorf("%w: %v", contracts.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", contracts.ErrProviderUnavailable, err)
	}

	if err := classifyStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	records, err := parseChart(body)
	if err != nil {
		return nil, err
	}

	if class != contracts.ClassFutures && len(records) > 0 {
		c.annotateFinancials(ctx, symbol, records)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(records),
	}).Debug("Fetched chart")
	return records, nil
}

func classifyStatus(code int, body []byte) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusTooManyRequests || isRateLimitMessage(string(body)):
		return fmt.Errorf("%w: status %d", contracts.ErrRateLimited, code)
	case code == http.StatusNotFound:
		// Unknown symbol: no data, not an outage.
		return nil
	default:
		return fmt.Errorf("%w: status %d", contracts.ErrProviderUnavailable, code)
	}
}

func isRateLimitMessage(s string) bool {
	lower := strings.ToLower(s)
	for _, phrase := range rateLimitPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// parseChart decodes the chart payload. An empty result set is "no
// data", not an error.
func parseChart(body []byte) ([]contracts.RawRecord, error) {
	var cr chartResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrMalformedResponse, err)
	}

	if cr.Chart.Error != nil {
		desc := cr.Chart.Error.Description
		if isRateLimitMessage(desc) {
			return nil, fmt.Errorf("%w: %s", contracts.ErrRateLimited, desc)
		}
		// "Not Found"-style chart errors mean the symbol has nothing
		// for the range.
		return nil, nil
	}

	if len(cr.Chart.Result) == 0 {
		return nil, nil
	}

	result := cr.Chart.Result[0]
	if len(result.Timestamp) == 0 {
		return nil, nil
	}
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: missing quote block", contracts.ErrMalformedResponse)
	}

	quote := result.Indicators.Quote[0]
	if len(quote.Close) != len(result.Timestamp) {
		return nil, fmt.Errorf("%w: %d timestamps vs %d closes",
			contracts.ErrMalformedResponse, len(result.Timestamp), len(quote.Close))
	}

	records := make([]contracts.RawRecord, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if quote.Close[i] == nil {
			continue // suspended session
		}

		rec := contracts.RawRecord{
			Date:  dates.Format(time.Unix(ts, 0).UTC()),
			Close: *quote.Close[i],
		}
		if i < len(quote.Open) {
			rec.Open = quote.Open[i]
		}
		if i < len(quote.High) {
			rec.High = quote.High[i]
		}
		if i < len(quote.Low) {
			rec.Low = quote.Low[i]
		}
		if i < len(quote.Volume) {
			rec.Volume = quote.Volume[i]
		}
		records = append(records, rec)
	}
	return records, nil
}
