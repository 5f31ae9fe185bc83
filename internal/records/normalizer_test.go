package records

import (
	"errors"
	"testing"
	"time"

	"github.com/wonhee/tigerboard/internal/contracts"
)

func fp(v float64) *float64 { return &v }

func TestNormalize(t *testing.T) {
	raw := []contracts.RawRecord{
		{
			Date:      "2026-01-05",
			Open:      fp(10.0),
			Close:     11.0,
			ChangePct: fp(10.0),
			PERatio:   fp(25.5),
			MarketCap: fp(120.0),
		},
		{
			Date:         "2026-01-06",
			Close:        11.5,
			ChangePct:    fp(4.5),
			ChangeAmount: fp(0.5),
		},
	}

	recs, err := Normalize(raw, 42, contracts.ClassDomestic)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("Normalize() returned %d records, want 2", len(recs))
	}

	first := recs[0]
	if first.InstrumentID != 42 {
		t.Errorf("InstrumentID = %d, want 42", first.InstrumentID)
	}
	if !first.Date.Equal(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v, want 2026-01-05", first.Date)
	}
	// Change amount synthesized from close and percent.
	if first.ChangeAmount == nil || *first.ChangeAmount != 11.0*10.0/100 {
		t.Errorf("ChangeAmount = %v, want synthesized 1.1", first.ChangeAmount)
	}
	if first.PERatio == nil || *first.PERatio != 25.5 {
		t.Errorf("PERatio = %v, want 25.5", first.PERatio)
	}

	// Provider-reported change amount is kept as is.
	second := recs[1]
	if second.ChangeAmount == nil || *second.ChangeAmount != 0.5 {
		t.Errorf("ChangeAmount = %v, want provider value 0.5", second.ChangeAmount)
	}
	// Unreported columns stay nil, never zero.
	if second.Open != nil || second.Volume != nil {
		t.Errorf("unreported columns should stay nil, got open=%v volume=%v", second.Open, second.Volume)
	}
}

func TestNormalizeFuturesStripFinancials(t *testing.T) {
	raw := []contracts.RawRecord{
		{
			Date:      "2026-01-05",
			Close:     3900.2,
			PERatio:   fp(12.0),
			PBRatio:   fp(1.5),
			MarketCap: fp(999.0),
		},
	}

	recs, err := Normalize(raw, 7, contracts.ClassFutures)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	rec := recs[0]
	if rec.PERatio != nil || rec.PBRatio != nil || rec.MarketCap != nil || rec.EPSForecast != nil {
		t.Errorf("futures record must not carry financial fields: %+v", rec)
	}
}

func TestNormalizeBadDate(t *testing.T) {
	raw := []contracts.RawRecord{{Date: "05/01/2026", Close: 1.0}}

	_, err := Normalize(raw, 1, contracts.ClassDomestic)
	if !errors.Is(err, contracts.ErrMalformedResponse) {
		t.Errorf("Normalize() error = %v, want ErrMalformedResponse", err)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	recs, err := Normalize(nil, 1, contracts.ClassDomestic)
	if err != nil || recs != nil {
		t.Errorf("Normalize(nil) = (%v, %v), want (nil, nil)", recs, err)
	}
}
