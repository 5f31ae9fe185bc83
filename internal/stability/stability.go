// Package stability scores how calm an instrument's recent trading has
// been: annualized volatility over a trailing window of daily returns,
// mapped onto a bounded 0-100 score, plus a fixed-bucket return
// histogram for display.
package stability

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wonhee/tigerboard/internal/contracts"
	"github.com/wonhee/tigerboard/pkg/logger"
)

const (
	// WindowDays is the trailing window of daily returns the score is
	// computed over.
	WindowDays = 20

	// tradingDaysPerYear annualizes the daily standard deviation.
	tradingDaysPerYear = 252
)

// bucketBounds splits percent returns into 7 display buckets:
// below -2, -2..-1, -1..0, 0..1, 1..2, 2..3, above 3.
var bucketBounds = [6]float64{-2, -1, 0, 1, 2, 3}

// Histogram counts the window's returns per display bucket. The counts
// always sum to the number of input returns.
type Histogram [7]int

// Result is one instrument's stability readout.
type Result struct {
	Score            float64   `json:"score"`
	AnnualVolatility float64   `json:"annual_volatility"`
	Histogram        Histogram `json:"histogram"`
	Samples          int       `json:"samples"`
}

// Compute derives the score and annualized volatility from a series of
// daily percent returns. The score is 100 minus the volatility
// percentage, clamped to [0, 100]; a flat series scores exactly 100.
func Compute(dailyReturns []float64) (score, annualVolatility float64) {
	if len(dailyReturns) >= 2 {
		sd := stat.StdDev(dailyReturns, nil)
		annualVolatility = sd * math.Sqrt(tradingDaysPerYear)
	}

	score = 100 - annualVolatility
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, annualVolatility
}

// Bucketize counts each return into its display bucket.
func Bucketize(dailyReturns []float64) Histogram {
	var h Histogram
	for _, r := range dailyReturns {
		h[bucketFor(r)]++
	}
	return h
}

func bucketFor(r float64) int {
	for i, bound := range bucketBounds {
		if r < bound {
			return i
		}
	}
	return len(bucketBounds)
}

// Service reads persisted return series and computes readouts.
type Service struct {
	records contracts.RecordRepository
	logger  *logger.Logger
}

// NewService creates the stability service.
func NewService(records contracts.RecordRepository, log *logger.Logger) *Service {
	return &Service{
		records: records,
		logger:  log.WithField("module", "stability"),
	}
}

// Get computes the stability readout for one instrument from its most
// recent trailing window.
func (s *Service) Get(ctx context.Context, instrumentID int64) (*Result, error) {
	returns, err := s.records.DailyReturns(ctx, instrumentID, WindowDays)
	if err != nil {
		return nil, err
	}

	score, vol := Compute(returns)
	return &Result{
		Score:            score,
		AnnualVolatility: vol,
		Histogram:        Bucketize(returns),
		Samples:          len(returns),
	}, nil
}
