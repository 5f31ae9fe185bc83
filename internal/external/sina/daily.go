package sina

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonhee/tigerboard/internal/contracts"
	"github.com/wonhee/tigerboard/internal/dates"
)

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Fetch retrieves daily bars for a prefixed symbol (e.g. "sh600519")
// over [start, end] by walking the quarterly history pages. Sina only
// carries price and volume columns; financial fields stay empty.
func (c *Client) Fetch(ctx context.Context, symbol string, class contracts.InstrumentClass, start, end time.Time) ([]contracts.RawRecord, error) {
	// The page URL wants the bare numeric code without the sh/sz prefix.
	code := strings.TrimPrefix(strings.TrimPrefix(symbol, "sh"), "sz")

	var records []contracts.RawRecord
	for year := start.Year(); year <= end.Year(); year++ {
		firstQ, lastQ := 1, 4
		if year == start.Year() {
			firstQ = quarterOf(start)
		}
		if year == end.Year() {
			lastQ = quarterOf(end)
		}

		for q := firstQ; q <= lastQ; q++ {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", contracts.ErrProviderUnavailable, ctx.Err())
			default:
			}

			page, err := c.fetchQuarter(ctx, code, year, q)
			if err != nil {
				return nil, err
			}
			records = append(records, page...)
		}
	}

	// Pages list newest first; normalize to oldest first and clip to
	// the requested range.
	filtered := records[:0]
	for _, rec := range records {
		day, err := dates.Parse(rec.Date)
		if err != nil {
			continue
		}
		if day.Before(start) || day.After(end) {
			continue
		}
		filtered = append(filtered, rec)
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Date < filtered[j].Date })

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(filtered),
	}).Debug("Fetched quarterly history")
	if len(filtered) == 0 {
		return nil, nil
	}
	return filtered, nil
}

func (c *Client) fetchQuarter(ctx context.Context, code string, year, quarter int) ([]contracts.RawRecord, error) {
	url := fmt.Sprintf("%s/corp/go.php/vMS_MarketHistory/stockid/%s.phtml?year=%d&jidu=%d",
		c.baseURL, code, year, quarter)

	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status %d", contracts.ErrRateLimited, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: status %d", contracts.ErrProviderUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", contracts.ErrProviderUnavailable, err)
	}

	return parseHistoryHTML(body)
}

// parseHistoryHTML pulls daily rows out of the FundHoldSharesTable.
// A page without the table (delisted code, future quarter) is "no
// data"; a present table with garbled rows is malformed.
func parseHistoryHTML(body []byte) ([]contracts.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrMalformedResponse, err)
	}

	table := doc.Find("table#FundHoldSharesTable")
	if table.Length() == 0 {
		return nil, nil
	}

	var records []contracts.RawRecord
	var rowErr error
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if rowErr != nil {
			return
		}

		cells := row.Find("td")
		// Columns: date, open, high, close, low, volume, amount.
		if cells.Length() < 7 {
			return
		}

		dateText := strings.TrimSpace(cells.Eq(0).Text())
		if !dateRe.MatchString(dateText) {
			return // header or divider row
		}

		closePrice, err := parseCell(cells.Eq(3).Text())
		if err != nil {
			rowErr = fmt.Errorf("%w: close %q on %s", contracts.ErrMalformedResponse, cells.Eq(3).Text(), dateText)
			return
		}

		records = append(records, contracts.RawRecord{
			Date:     dateText,
			Open:     parseOptionalCell(cells.Eq(1).Text()),
			High:     parseOptionalCell(cells.Eq(2).Text()),
			Close:    closePrice,
			Low:      parseOptionalCell(cells.Eq(4).Text()),
			Volume:   parseOptionalCell(cells.Eq(5).Text()),
			Turnover: parseOptionalCell(cells.Eq(6).Text()),
		})
	})
	if rowErr != nil {
		return nil, rowErr
	}
	return records, nil
}

func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	return strconv.ParseFloat(s, 64)
}

func parseOptionalCell(s string) *float64 {
	v, err := parseCell(s)
	if err != nil {
		return nil
	}
	return &v
}

func quarterOf(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}
