package dates

import (
	"errors"
	"testing"
	"time"

	"github.com/wonhee/tigerboard/internal/contracts"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "canonical", input: "2026-01-05", want: "2026-01-05"},
		{name: "slashes", input: "2026/01/05", want: "2026-01-05"},
		{name: "dots", input: "2026.01.05", want: "2026-01-05"},
		{name: "contiguous", input: "20260105", want: "2026-01-05"},
		{name: "single digit month", input: "2026-1-5", wantErr: true},
		{name: "ambiguous short", input: "260105", wantErr: true},
		{name: "garbage", input: "not a date", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "impossible day", input: "2026-02-30", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Normalize(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, contracts.ErrInvalidDateFormat) {
					t.Errorf("Normalize(%q) error = %v, want ErrInvalidDateFormat", tt.input, err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestToProviderFormat(t *testing.T) {
	tests := []struct {
		kind contracts.ProviderKind
		want string
	}{
		{contracts.ProviderEastmoney, "20260105"},
		{contracts.ProviderYahoo, "1767571200"}, // 2026-01-05T00:00:00Z
		{contracts.ProviderSina, "2026-01-05"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got, err := ToProviderFormat("2026-01-05", tt.kind)
			if err != nil {
				t.Fatalf("ToProviderFormat() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ToProviderFormat() = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := ToProviderFormat("2026-01-05", contracts.ProviderKind("bogus")); err == nil {
		t.Error("ToProviderFormat() with unknown provider should fail")
	}
	if _, err := ToProviderFormat("garbage", contracts.ProviderEastmoney); err == nil {
		t.Error("ToProviderFormat() with malformed date should fail")
	}
}

// Every normalized date must round-trip through each provider's own
// format back to the same calendar day.
func TestProviderFormatRoundTrip(t *testing.T) {
	inputs := []string{"2026-01-05", "2026/06/30", "20261231"}

	for _, input := range inputs {
		canonical, err := Normalize(input)
		if err != nil {
			t.Fatalf("Normalize(%q) error = %v", input, err)
		}
		want, _ := Parse(canonical)

		em, err := ToProviderFormat(canonical, contracts.ProviderEastmoney)
		if err != nil {
			t.Fatalf("eastmoney format: %v", err)
		}
		if got, _ := time.Parse("20060102", em); !got.Equal(want) {
			t.Errorf("eastmoney round trip of %q = %v, want %v", input, got, want)
		}

		yh, err := ToProviderFormat(canonical, contracts.ProviderYahoo)
		if err != nil {
			t.Fatalf("yahoo format: %v", err)
		}
		if yh == "" {
			t.Errorf("yahoo format of %q is empty", input)
		}

		sn, err := ToProviderFormat(canonical, contracts.ProviderSina)
		if err != nil {
			t.Fatalf("sina format: %v", err)
		}
		if sn != canonical {
			t.Errorf("sina format of %q = %q, want %q", input, sn, canonical)
		}
	}
}

func TestDay(t *testing.T) {
	in := time.Date(2026, 8, 28, 15, 4, 5, 123, time.FixedZone("X", 3600))
	got := Day(in)
	want := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Day() = %v, want %v", got, want)
	}
}
