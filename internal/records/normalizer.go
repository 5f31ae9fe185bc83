// Package records maps provider-specific raw rows into the canonical
// daily record schema. Missing columns stay nil; zero is a legitimate
// price or volume and never means "unknown".
package records

import (
	"fmt"

	"github.com/wonhee/tigerboard/internal/contracts"
	"github.com/wonhee/tigerboard/internal/dates"
)

// Normalize converts raw provider rows into canonical daily records for
// one instrument. It synthesizes change amount from change percent when
// the provider reported only the latter, and strips financial fields
// from futures rows.
func Normalize(raw []contracts.RawRecord, instrumentID int64, class contracts.InstrumentClass) ([]contracts.DailyRecord, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	out := make([]contracts.DailyRecord, 0, len(raw))
	for _, r := range raw {
		day, err := dates.Parse(r.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: record date %q", contracts.ErrMalformedResponse, r.Date)
		}

		rec := contracts.DailyRecord{
			InstrumentID: instrumentID,
			Date:         day,
			Open:         r.Open,
			Close:        r.Close,
			High:         r.High,
			Low:          r.Low,
			Volume:       r.Volume,
			Turnover:     r.Turnover,
			Amplitude:    r.Amplitude,
			ChangePct:    r.ChangePct,
			ChangeAmount: r.ChangeAmount,
			TurnoverRate: r.TurnoverRate,
		}

		if rec.ChangeAmount == nil && rec.ChangePct != nil {
			amount := rec.Close * *rec.ChangePct / 100
			rec.ChangeAmount = &amount
		}

		if class != contracts.ClassFutures {
			rec.PERatio = r.PERatio
			rec.PBRatio = r.PBRatio
			rec.MarketCap = r.MarketCap
			rec.EPSForecast = r.EPSForecast
		}

		out = append(out, rec)
	}
	return out, nil
}
