package eastmoney

import (
	"errors"
	"testing"

	"github.com/wonhee/tigerboard/internal/contracts"
)

func TestParseKlines(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{
			name: "two rows",
			body: `{"data":{"code":"600519","klines":[
				"2026-01-05,1688.0,1700.5,1710.0,1680.0,35000,59000000,1.78,0.74,12.5,0.28",
				"2026-01-06,1700.5,1695.0,1705.0,1690.0,28000,47000000,0.88,-0.32,-5.5,0.22"
			]}}`,
			want: 2,
		},
		{
			name: "null data is no data",
			body: `{"data":null}`,
			want: 0,
		},
		{
			name: "empty klines is no data",
			body: `{"data":{"code":"600519","klines":[]}}`,
			want: 0,
		},
		{
			name:    "wrong column count",
			body:    `{"data":{"code":"600519","klines":["2026-01-05,1688.0,1700.5"]}}`,
			wantErr: true,
		},
		{
			name:    "unparseable close",
			body:    `{"data":{"code":"600519","klines":["2026-01-05,1688.0,abc,1710.0,1680.0,35000,59000000,1.78,0.74,12.5,0.28"]}}`,
			wantErr: true,
		},
		{
			name:    "not json",
			body:    `<html>blocked</html>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseKlines([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseKlines() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, contracts.ErrMalformedResponse) {
					t.Errorf("parseKlines() error = %v, want ErrMalformedResponse", err)
				}
				return
			}
			if len(got) != tt.want {
				t.Errorf("parseKlines() returned %d records, want %d", len(got), tt.want)
			}
		})
	}
}

func TestParseKlinesFields(t *testing.T) {
	body := `{"data":{"code":"600519","klines":[
		"2026-01-05,1688.0,1700.5,1710.0,1680.0,35000,59000000,1.78,0.74,12.5,0.28"
	]}}`

	recs, err := parseKlines([]byte(body))
	if err != nil {
		t.Fatalf("parseKlines() error = %v", err)
	}
	rec := recs[0]

	if rec.Date != "2026-01-05" {
		t.Errorf("Date = %q, want 2026-01-05", rec.Date)
	}
	if rec.Close != 1700.5 {
		t.Errorf("Close = %v, want 1700.5", rec.Close)
	}
	if rec.Open == nil || *rec.Open != 1688.0 {
		t.Errorf("Open = %v, want 1688.0", rec.Open)
	}
	if rec.ChangePct == nil || *rec.ChangePct != 0.74 {
		t.Errorf("ChangePct = %v, want 0.74", rec.ChangePct)
	}
	if rec.TurnoverRate == nil || *rec.TurnoverRate != 0.28 {
		t.Errorf("TurnoverRate = %v, want 0.28", rec.TurnoverRate)
	}
}

// Suspended sessions report "-" in optional columns.
func TestParseKlinesDashColumns(t *testing.T) {
	body := `{"data":{"code":"600519","klines":[
		"2026-01-05,-,1700.5,-,-,-,-,-,-,-,-"
	]}}`

	recs, err := parseKlines([]byte(body))
	if err != nil {
		t.Fatalf("parseKlines() error = %v", err)
	}
	rec := recs[0]
	if rec.Open != nil || rec.High != nil || rec.Volume != nil || rec.ChangePct != nil {
		t.Errorf("dash columns should be nil: %+v", rec)
	}
	if rec.Close != 1700.5 {
		t.Errorf("Close = %v, want 1700.5", rec.Close)
	}
}

func TestClassifyStatus(t *testing.T) {
	if err := classifyStatus(200); err != nil {
		t.Errorf("classifyStatus(200) = %v, want nil", err)
	}
	if err := classifyStatus(429); !errors.Is(err, contracts.ErrRateLimited) {
		t.Errorf("classifyStatus(429) = %v, want ErrRateLimited", err)
	}
	if err := classifyStatus(502); !errors.Is(err, contracts.ErrProviderUnavailable) {
		t.Errorf("classifyStatus(502) = %v, want ErrProviderUnavailable", err)
	}
}
