// Package router picks the provider chain for an instrument class and
// walks it with the fallback policy: advance on rate limit or outage,
// stop on anything else.
package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonhee/tigerboard/internal/contracts"
	"github.com/wonhee/tigerboard/internal/symbols"
	"github.com/wonhee/tigerboard/pkg/logger"
)

// chains is the priority order per class. Futures and international
// instruments have a single source; domestic instruments fall back
// from the free source to the throttled one to the legacy scraper.
var chains = map[contracts.InstrumentClass][]contracts.ProviderKind{
	contracts.ClassDomestic: {
		contracts.ProviderEastmoney,
		contracts.ProviderYahoo,
		contracts.ProviderSina,
	},
	contracts.ClassFutures: {
		contracts.ProviderEastmoney,
	},
	contracts.ClassInternational: {
		contracts.ProviderYahoo,
	},
}

// Router resolves an instrument code to a provider chain and fetches
// through it.
type Router struct {
	providers map[contracts.ProviderKind]contracts.Provider
	logger    *logger.Logger
}

// New registers the adapters the router may dispatch to. Adapters that
// report unavailable are kept out of every chain up front.
func New(log *logger.Logger, providers ...contracts.Provider) *Router {
	m := make(map[contracts.ProviderKind]contracts.Provider, len(providers))
	for _, p := range providers {
		if !p.Available() {
			log.WithField("provider", p.Kind()).Warn("Provider disabled, excluded from routing")
			continue
		}
		m[p.Kind()] = p
	}
	return &Router{providers: m, logger: log}
}

// Route fetches [start, end] for one instrument code, trying each
// candidate provider in class priority order. It returns the records,
// the provider that served them, and an error only when the whole
// chain is exhausted or the code/response is unusable.
//
// An empty result from a covering provider means the range has no
// trading days for that symbol; the router treats it as success and
// does not fall back to a worse source. A malformed response is
// terminal for the instrument for the same reason: the data existed,
// it just could not be understood.
func (r *Router) Route(ctx context.Context, code string, start, end time.Time) ([]contracts.RawRecord, contracts.ProviderKind, error) {
	cls, err := symbols.Classify(code)
	if err != nil {
		return nil, "", err
	}

	var attempts []contracts.Attempt
	for _, kind := range chains[cls.Class] {
		provider, ok := r.providers[kind]
		if !ok {
			continue
		}

		symbol := cls.Symbols[kind]
		recs, err := provider.Fetch(ctx, symbol, cls.Class, start, end)
		if err == nil {
			return recs, kind, nil
		}

		attempts = append(attempts, contracts.Attempt{
			Provider: kind,
			Kind:     contracts.KindOf(err),
			Err:      err,
		})

		if errors.Is(err, contracts.ErrRateLimited) || errors.Is(err, contracts.ErrProviderUnavailable) {
			r.logger.WithFields(map[string]interface{}{
				"code":     code,
				"provider": kind,
				"reason":   contracts.KindOf(err),
			}).Warn("Provider failed, trying next in chain")
			continue
		}

		// Malformed (or any other) failure is local to this instrument.
		return nil, kind, err
	}

	if len(attempts) == 0 {
		return nil, "", fmt.Errorf("%w: no available provider covers class %s",
			contracts.ErrProviderUnavailable, cls.Class)
	}

	err = &contracts.AllProvidersFailedError{Code: code, Attempts: attempts}
	if cls.Class == contracts.ClassInternational {
		// Single-source class: nothing else to try, retry later.
		r.logger.WithField("code", code).WithError(err).Error(
			"International source failed with no substitute, retry after the throttle window")
	}
	return nil, "", err
}

// Class exposes the classification without fetching; the orchestrator
// uses it to reject unsupported codes before dispatching workers.
func (r *Router) Class(code string) (contracts.InstrumentClass, error) {
	cls, err := symbols.Classify(code)
	if err != nil {
		return "", err
	}
	return cls.Class, nil
}
