// Package symbols assigns every instrument code an instrument class
// and the per-provider symbol spellings that class needs. The dispatch
// is an ordered rule table rather than a prefix if/else chain so a new
// class is one more row.
package symbols

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/wonhee/tigerboard/internal/contracts"
)

// Classification is the result of classifying one code.
type Classification struct {
	Class InstrumentClass
	// Symbols maps each provider that covers the class to the symbol
	// spelling that provider expects.
	Symbols map[contracts.ProviderKind]string
}

// InstrumentClass is re-exported so callers don't need both packages.
type InstrumentClass = contracts.InstrumentClass

var (
	// CFFEX index futures: the four supported contract roots followed
	// by the expiry, e.g. IF2412.
	futuresRe = regexp.MustCompile(`^(IF|IH|IC|IM)(\d{4})$`)

	// Domestic equities/funds: optional exchange prefix or suffix
	// around a bare 6-digit code. SH601727, SZ.300857, 601727.SH,
	// 600519.SS and plain 600519 all normalize to the same code.
	domesticPrefixRe = regexp.MustCompile(`^(SH|SZ)\.?(\d{6})$`)
	domesticSuffixRe = regexp.MustCompile(`^(\d{6})\.(SH|SS|SZ)$`)
	domesticBareRe   = regexp.MustCompile(`^\d{6}$`)

	// International equities: explicit US prefix or a plain ticker.
	intlPrefixRe = regexp.MustCompile(`^US\.([A-Z][A-Z0-9.\-]{0,9})$`)
	intlBareRe   = regexp.MustCompile(`^[A-Z][A-Z0-9.\-]{0,9}$`)
)

// rule is one row of the dispatch table: the first predicate that
// matches decides the class.
type rule struct {
	name  string
	match func(code string) (Classification, bool)
}

var rules = []rule{
	{name: "futures-index", match: matchFutures},
	{name: "domestic", match: matchDomestic},
	{name: "international", match: matchInternational},
}

// Classify inspects an instrument code and returns its class and
// provider symbols. It is total over strings: unknown shapes fail with
// ErrUnsupportedSymbol, never panic.
func Classify(code string) (Classification, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		return Classification{}, fmt.Errorf("%w: empty code", contracts.ErrUnsupportedSymbol)
	}

	for _, r := range rules {
		if c, ok := r.match(trimmed); ok {
			return c, nil
		}
	}
	return Classification{}, fmt.Errorf("%w: %q", contracts.ErrUnsupportedSymbol, code)
}

func matchFutures(code string) (Classification, bool) {
	if !futuresRe.MatchString(code) {
		return Classification{}, false
	}
	return Classification{
		Class: contracts.ClassFutures,
		Symbols: map[contracts.ProviderKind]string{
			// Eastmoney secid market 8 is CFFEX.
			contracts.ProviderEastmoney: "8." + code,
		},
	}, true
}

func matchDomestic(code string) (Classification, bool) {
	var digits string
	var market string // "SH" or "SZ"

	switch {
	case domesticPrefixRe.MatchString(code):
		m := domesticPrefixRe.FindStringSubmatch(code)
		market, digits = m[1], m[2]
	case domesticSuffixRe.MatchString(code):
		m := domesticSuffixRe.FindStringSubmatch(code)
		digits = m[1]
		if m[2] == "SZ" {
			market = "SZ"
		} else {
			market = "SH" // both .SH and .SS mean Shanghai
		}
	case domesticBareRe.MatchString(code):
		digits = code
		// Shanghai codes start with 6 (equities) or 5 (funds),
		// Shenzhen with 0, 1 or 3.
		if strings.HasPrefix(digits, "6") || strings.HasPrefix(digits, "5") {
			market = "SH"
		} else {
			market = "SZ"
		}
	default:
		return Classification{}, false
	}

	emMarket, yhSuffix, snPrefix := "0", ".SZ", "sz"
	if market == "SH" {
		emMarket, yhSuffix, snPrefix = "1", ".SS", "sh"
	}

	return Classification{
		Class: contracts.ClassDomestic,
		Symbols: map[contracts.ProviderKind]string{
			contracts.ProviderEastmoney: emMarket + "." + digits,
			contracts.ProviderYahoo:     digits + yhSuffix,
			contracts.ProviderSina:      snPrefix + digits,
		},
	}, true
}

func matchInternational(code string) (Classification, bool) {
	ticker := ""
	if m := intlPrefixRe.FindStringSubmatch(code); m != nil {
		ticker = m[1]
	} else if intlBareRe.MatchString(code) {
		ticker = code
	} else {
		return Classification{}, false
	}

	return Classification{
		Class: contracts.ClassInternational,
		Symbols: map[contracts.ProviderKind]string{
			contracts.ProviderYahoo: ticker,
		},
	}, true
}
