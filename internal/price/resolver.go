// Package price resolves current market prices for positions. Sources are
// tried in a configured order per instrument type.
package price

import (
	"context"
	"errors"
	"fmt"

	"github.com/STTM-NSU/portfolio-tracker/internal/config"
	"github.com/STTM-NSU/portfolio-tracker/internal/logger"
	"github.com/STTM-NSU/portfolio-tracker/internal/model"
)

var (
	ErrNotFound    = errors.New("price not found")
	ErrUnsupported = errors.New("instrument not supported by source")
)

type Resolver interface {
	Resolve(ctx context.Context, symbol string, instrumentType model.InstrumentType, market model.Market) (model.Quote, error)
}

// CacheClearer is implemented by resolvers that keep quotes between lookups.
type CacheClearer interface {
	ClearCache(ctx context.Context) error
}

// Source is a single price provider.
type Source interface {
	Name() string
	Quote(ctx context.Context, symbol string, instrumentType model.InstrumentType, market model.Market) (model.Quote, error)
}

type Router struct {
	sources map[string]Source
	order   map[model.InstrumentType][]string
	logger  logger.Logger
}

// NewRouter routes lookups through sources in order. Names in order without a
// matching source are skipped, so disabled sources need no config changes.
func NewRouter(order map[model.InstrumentType][]string, logger logger.Logger, sources ...Source) *Router {
	r := &Router{
		sources: make(map[string]Source, len(sources)),
		order:   order,
		logger:  logger,
	}
	for _, s := range sources {
		r.sources[s.Name()] = s
	}
	return r
}

func (r *Router) chain(instrumentType model.InstrumentType, market model.Market) []string {
	names := r.order[instrumentType]
	if market != model.Moex {
		return names
	}
	// t-invest quotes moex directly
	res := []string{config.SourceTInvest}
	for _, n := range names {
		if n != config.SourceTInvest {
			res = append(res, n)
		}
	}
	return res
}

func (r *Router) Resolve(ctx context.Context, symbol string, instrumentType model.InstrumentType, market model.Market) (model.Quote, error) {
	var errs []error
	for _, name := range r.chain(instrumentType, market) {
		src, ok := r.sources[name]
		if !ok {
			continue
		}

		q, err := src.Quote(ctx, symbol, instrumentType, market)
		if err == nil {
			if q.Source == "" {
				q.Source = name
			}
			return q, nil
		}
		if !errors.Is(err, ErrUnsupported) {
			r.logger.Debugf("%s: %s can't quote %s", err, name, symbol)
		}
		errs = append(errs, fmt.Errorf("%s: %w", name, err))

		if ctx.Err() != nil {
			break
		}
	}

	if len(errs) == 0 {
		return model.Quote{}, fmt.Errorf("%w: no source for %s %s", ErrNotFound, instrumentType, symbol)
	}
	return model.Quote{}, fmt.Errorf("%w: %s %s: %w", ErrNotFound, instrumentType, symbol, errors.Join(errs...))
}
