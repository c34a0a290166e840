package pnl

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/STTM-NSU/portfolio-tracker/internal/config"
	"github.com/STTM-NSU/portfolio-tracker/internal/logger"
	"github.com/STTM-NSU/portfolio-tracker/internal/metrics"
	"github.com/STTM-NSU/portfolio-tracker/internal/model"
)

type PriceResolver interface {
	Resolve(ctx context.Context, symbol string, instrumentType model.InstrumentType, market model.Market) (model.Quote, error)
}

type Request struct {
	Trades        []model.Trade
	IncludeClosed bool
	// At most one of InstrumentType and Market narrows the result.
	InstrumentType model.InstrumentType
	Market         model.Market
}

type Result struct {
	Summary     model.Summary    `json:"summary"`
	Positions   []model.Position `json:"assets"`
	Diagnostics []Diagnostic     `json:"-"`
}

type Engine struct {
	resolver PriceResolver
	cfg      config.EngineConfig
	logger   logger.Logger
	metrics  *metrics.Metrics
}

// NewEngine wires a price resolver into the engine. resolver may be nil, then
// every position is valued at cost. metrics may be nil.
func NewEngine(resolver PriceResolver, cfg config.EngineConfig, logger logger.Logger, metrics *metrics.Metrics) *Engine {
	cfg.Setup()
	return &Engine{
		resolver: resolver,
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
	}
}

func (e *Engine) Compute(ctx context.Context, req Request) (*Result, error) {
	e.metrics.IncComputations()

	agg := Aggregate(req.Trades, e.cfg.FallbackCurrency)
	for _, d := range agg.Diagnostics {
		e.logger.Warnf("trade %s on %s: %s", d.Trade.ID, d.Key, d.Reason)
		e.metrics.IncSkipped(string(d.Reason))
	}

	selected := Active(agg.Ordered(), req.IncludeClosed)
	positions := make([]model.Position, len(selected))
	for i, p := range selected {
		positions[i] = *p
	}

	if err := e.value(ctx, positions); err != nil {
		return nil, err
	}

	SortByValue(positions)
	res := &Result{
		Summary:     Reduce(positions, agg.RealizedPnL, agg.RealizedBreakdown),
		Positions:   positions,
		Diagnostics: agg.Diagnostics,
	}

	switch {
	case req.InstrumentType != "":
		v := FilterByType(positions, req.InstrumentType)
		res.Summary, res.Positions = v.Summary, v.Positions
	case req.Market != model.NoMarket:
		v := FilterByMarket(positions, req.Market)
		res.Summary, res.Positions = v.Summary, v.Positions
	}

	return res, nil
}

// value resolves one price per position. Each goroutine writes only its own
// element. A failed lookup falls back to cost basis for that position.
func (e *Engine) value(ctx context.Context, positions []model.Position) error {
	if e.resolver == nil {
		for i := range positions {
			Value(&positions[i], nil)
		}
		return nil
	}

	g := errgroup.Group{}
	g.SetLimit(e.cfg.Workers)

	for i := range positions {
		p := &positions[i]
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			q, err := e.lookup(ctx, p)
			if err != nil {
				e.logger.Warnf("%s: can't resolve price for %s, valuing at cost", err, p.Key())
				e.metrics.IncFallbacks()
				Value(p, nil)
				return nil
			}
			Value(p, &q)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: portfolio computation cancelled", err)
	}
	return nil
}

func (e *Engine) lookup(ctx context.Context, p *model.Position) (model.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.LookupTimeout)
	defer cancel()
	return e.resolver.Resolve(ctx, p.Symbol, p.InstrumentType, p.Market)
}
