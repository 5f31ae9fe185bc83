package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wonhee/tigerboard/internal/contracts"
	"github.com/wonhee/tigerboard/internal/dates"
)

// klineResponse mirrors the push2his payload. data is null when the
// symbol has no rows for the range.
type klineResponse struct {
	Data *struct {
		Code   string   `json:"code"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

// kline columns, comma separated within each entry:
// date,open,close,high,low,volume,turnover,amplitude,changePct,changeAmount,turnoverRate
const klineColumns = 11

// Fetch retrieves daily klines for a secid symbol (e.g. "1.600519",
// "8.IF2412") over [start, end].
func (c *Client) Fetch(ctx context.Context, symbol string, class contracts.InstrumentClass, start, end time.Time) ([]contracts.RawRecord, error) {
	beg, err := dates.ToProviderFormat(dates.Format(start), contracts.ProviderEastmoney)
	if err != nil {
		return nil, err
	}
	fin, err := dates.ToProviderFormat(dates.Format(end), contracts.ProviderEastmoney)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf(
		"%s/api/qt/stock/kline/get?secid=%s&klt=101&fqt=1&beg=%s&end=%s&fields1=f1,f2,f3&fields2=f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61",
		c.baseURL, symbol, beg, fin,
	)

	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", contracts.ErrProviderUnavailable, err)
	}

	records, err := parseKlines(body)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(records),
	}).Debug("Fetched klines")
	return records, nil
}

func classifyStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", contracts.ErrRateLimited, code)
	default:
		return fmt.Errorf("%w: status %d", contracts.ErrProviderUnavailable, code)
	}
}

// parseKlines decodes the payload into raw records. A null data block
// is the provider's "no data for this range", not an error.
func parseKlines(body []byte) ([]contracts.RawRecord, error) {
	var kr klineResponse
	if err := json.Unmarshal(body, &kr); err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrMalformedResponse, err)
	}

	if kr.Data == nil || len(kr.Data.Klines) == 0 {
		return nil, nil
	}

	records := make([]contracts.RawRecord, 0, len(kr.Data.Klines))
	for _, line := range kr.Data.Klines {
		fields := strings.Split(line, ",")
		if len(fields) != klineColumns {
			return nil, fmt.Errorf("%w: kline has %d columns", contracts.ErrMalformedResponse, len(fields))
		}

		day, err := dates.Normalize(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%w: kline date %q", contracts.ErrMalformedResponse, fields[0])
		}

		closePrice, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: kline close %q", contracts.ErrMalformedResponse, fields[2])
		}

		records = append(records, contracts.RawRecord{
			Date:         day,
			Open:         parseOptional(fields[1]),
			Close:        closePrice,
			High:         parseOptional(fields[3]),
			Low:          parseOptional(fields[4]),
			Volume:       parseOptional(fields[5]),
			Turnover:     parseOptional(fields[6]),
			Amplitude:    parseOptional(fields[7]),
			ChangePct:    parseOptional(fields[8]),
			ChangeAmount: parseOptional(fields[9]),
			TurnoverRate: parseOptional(fields[10]),
		})
	}
	return records, nil
}

// parseOptional returns nil for empty or dash placeholders; Eastmoney
// uses "-" for suspended-session columns.
func parseOptional(s string) *float64 {
	if s == "" || s == "-" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
