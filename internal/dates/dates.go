// Package dates owns every conversion between the canonical
// YYYY-MM-DD representation and provider-native date formats. No
// provider call ever receives an un-normalized date.
package dates

import (
	"fmt"
	"strconv"
	"time"

	"github.com/wonhee/tigerboard/internal/contracts"
)

// Canonical is the system-wide date layout.
const Canonical = "2006-01-02"

// acceptedLayouts are the input variants Normalize understands, tried
// in order. Anything else is rejected rather than guessed.
var acceptedLayouts = []string{
	Canonical,
	"2006/01/02",
	"2006.01.02",
	"20060102",
}

// Normalize converts a date string in any accepted variant to the
// canonical form. Malformed or ambiguous input fails with
// ErrInvalidDateFormat.
func Normalize(input string) (string, error) {
	for _, layout := range acceptedLayouts {
		t, err := time.Parse(layout, input)
		if err != nil {
			continue
		}
		// time.Parse is lenient about things like "2026-1-5"; require
		// the reformatted value to round-trip exactly.
		if t.Format(layout) != input {
			continue
		}
		return t.Format(Canonical), nil
	}
	return "", fmt.Errorf("%w: %q", contracts.ErrInvalidDateFormat, input)
}

// Parse converts a canonical date string to UTC midnight.
func Parse(canonical string) (time.Time, error) {
	t, err := time.Parse(Canonical, canonical)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", contracts.ErrInvalidDateFormat, canonical)
	}
	return t, nil
}

// Format renders a time as a canonical date string.
func Format(t time.Time) string {
	return t.Format(Canonical)
}

// ToProviderFormat converts a canonical date string to the named
// provider's request format.
//
//   - eastmoney wants contiguous digits (20260105)
//   - yahoo wants unix seconds of UTC midnight
//   - sina takes the canonical form unchanged
func ToProviderFormat(canonical string, kind contracts.ProviderKind) (string, error) {
	t, err := Parse(canonical)
	if err != nil {
		return "", err
	}

	switch kind {
	case contracts.ProviderEastmoney:
		return t.Format("20060102"), nil
	case contracts.ProviderYahoo:
		return strconv.FormatInt(t.Unix(), 10), nil
	case contracts.ProviderSina:
		return canonical, nil
	default:
		return "", fmt.Errorf("unknown provider kind %q", kind)
	}
}

// Day truncates a time to UTC midnight so (instrument, date) keys
// compare cleanly.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
