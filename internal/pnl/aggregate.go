// Package pnl folds a trade ledger into positions and values them.
//
// Positions use weighted-average cost. Every call builds its own state from the
// ledger, nothing is cached between calls.
package pnl

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/STTM-NSU/portfolio-tracker/internal/model"
)

// QuantityEpsilon is the smallest |quantity| treated as an open position.
const QuantityEpsilon = 1e-8

type SkipReason string

const (
	NoLongPosition  SkipReason = "no open long position"
	NoShortPosition SkipReason = "no open short position"
	OversizedClose  SkipReason = "oversized close"
)

// Diagnostic describes a trade the fold could not apply as the user probably
// meant it. OversizedClose trades are still applied.
type Diagnostic struct {
	Trade  model.Trade
	Key    model.PositionKey
	Reason SkipReason
}

type Aggregation struct {
	Positions         map[model.PositionKey]*model.Position
	RealizedPnL       float64
	RealizedBreakdown map[string]float64
	Diagnostics       []Diagnostic

	order []model.PositionKey
}

// Ordered returns positions in the order their keys were first seen.
func (a *Aggregation) Ordered() []*model.Position {
	res := make([]*model.Position, 0, len(a.order))
	for _, k := range a.order {
		res = append(res, a.Positions[k])
	}
	return res
}

// Aggregate folds trades in ascending timestamp order. Trades with equal
// timestamps keep their input order. The input slice is not modified.
func Aggregate(trades []model.Trade, fallbackCurrency string) *Aggregation {
	sorted := slices.Clone(trades)
	slices.SortStableFunc(sorted, func(a, b model.Trade) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	agg := &Aggregation{
		Positions:         make(map[model.PositionKey]*model.Position),
		RealizedBreakdown: make(map[string]float64),
	}
	for _, t := range sorted {
		agg.apply(t, fallbackCurrency)
	}
	return agg
}

func (a *Aggregation) position(t model.Trade, fallbackCurrency string) (model.PositionKey, *model.Position) {
	key := t.Key()
	if p, ok := a.Positions[key]; ok {
		return key, p
	}
	currency := cmp.Or(t.Currency, t.Market.DefaultCurrency(), fallbackCurrency)
	p := model.NewPosition(key, currency)
	a.Positions[key] = p
	a.order = append(a.order, key)
	return key, p
}

func (a *Aggregation) apply(t model.Trade, fallbackCurrency string) {
	if t.Action.Bucket() == "" {
		panic(fmt.Sprintf("pnl: unknown trade action %q in trade %s", t.Action, t.ID))
	}

	key, p := a.position(t, fallbackCurrency)

	// leverage applies even when the trade itself is skipped
	if t.Leverage != nil {
		p.Leverage = *t.Leverage
	}

	switch t.Action {
	case model.Buy, model.OpenLong:
		open(p, p.Quantity+t.Quantity, t)
	case model.OpenShort:
		open(p, p.Quantity-t.Quantity, t)
	case model.Sell, model.CloseLong:
		if p.Quantity <= 0 {
			a.skip(t, key, NoLongPosition)
			return
		}
		if t.Quantity > p.Quantity+QuantityEpsilon {
			a.skip(t, key, OversizedClose)
		}
		pnl := (t.Quantity*t.Price - t.Fees) - t.Quantity*p.AvgCost
		a.realize(p, pnl)
		ratio := t.Quantity / p.Quantity
		p.TotalFees -= p.TotalFees * ratio
		p.Quantity -= t.Quantity
	case model.CloseShort:
		if p.Quantity >= 0 {
			a.skip(t, key, NoShortPosition)
			return
		}
		if t.Quantity > -p.Quantity+QuantityEpsilon {
			a.skip(t, key, OversizedClose)
		}
		pnl := t.Quantity*p.AvgCost - (t.Quantity*t.Price + t.Fees)
		a.realize(p, pnl)
		ratio := t.Quantity / math.Abs(p.Quantity)
		p.TotalFees -= p.TotalFees * ratio
		p.Quantity += t.Quantity
	}

	p.RecomputeCost()
}

// open blends the trade into the running average. Fees stay out of the average.
func open(p *model.Position, newQty float64, t model.Trade) {
	if newQty != 0 {
		p.AvgCost = (math.Abs(p.Quantity)*p.AvgCost + t.Quantity*t.Price) / math.Abs(newQty)
	} else {
		p.AvgCost = t.Price
	}
	p.TotalFees += t.Fees
	p.Quantity = newQty
}

func (a *Aggregation) realize(p *model.Position, pnl float64) {
	a.RealizedPnL += pnl
	a.RealizedBreakdown[p.Currency] += pnl
	p.RealizedPnL += pnl
}

func (a *Aggregation) skip(t model.Trade, key model.PositionKey, reason SkipReason) {
	a.Diagnostics = append(a.Diagnostics, Diagnostic{Trade: t, Key: key, Reason: reason})
}
