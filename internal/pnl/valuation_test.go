package pnl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/STTM-NSU/portfolio-tracker/internal/model"
)

func position(qty, avg, fees, leverage float64) *model.Position {
	bucket := model.Long
	if qty < 0 {
		bucket = model.Short
	}
	p := model.NewPosition(model.PositionKey{
		InstrumentType: model.Tfex,
		Market:         model.TfexMarket,
		Symbol:         "S50H25",
		Bucket:         bucket,
	}, "THB")
	p.Quantity = qty
	p.AvgCost = avg
	p.TotalFees = fees
	p.Leverage = leverage
	p.RecomputeCost()
	return p
}

func TestValue_LongWithQuote(t *testing.T) {
	p := position(10, 100, 10, 1)
	Value(p, &model.Quote{Price: 120, Currency: "THB", Source: "yahoo"})

	assert.Equal(t, 120.0, p.CurrentPrice)
	assert.InDelta(t, 1200, p.CurrentValue, tolerance)
	assert.InDelta(t, 1200-1010, p.UnrealizedPnL, tolerance)
	assert.InDelta(t, 190.0/1010*100, p.UnrealizedPnLPercent, tolerance)
	assert.Equal(t, "yahoo", p.PriceSource)
}

func TestValue_NoQuoteUsesAvgCost(t *testing.T) {
	p := position(3, 80, 0, 1)
	Value(p, nil)

	assert.Equal(t, 80.0, p.CurrentPrice)
	assert.InDelta(t, 240, p.CurrentValue, tolerance)
	assert.Zero(t, p.UnrealizedPnL)
	assert.Zero(t, p.UnrealizedPnLPercent)
	assert.Equal(t, "THB", p.Currency)
	assert.Empty(t, p.PriceSource)
}

func TestValue_QuoteCurrencyReplacesPositionCurrency(t *testing.T) {
	p := position(1, 10, 0, 1)
	Value(p, &model.Quote{Price: 11, Currency: "USD"})
	assert.Equal(t, "USD", p.Currency)

	p = position(1, 10, 0, 1)
	Value(p, &model.Quote{Price: 11})
	assert.Equal(t, "THB", p.Currency)
}

func TestValue_Short(t *testing.T) {
	p := position(-5, 50, 0, 1)
	Value(p, &model.Quote{Price: 40})

	assert.InDelta(t, 250, p.CurrentValue, tolerance)
	assert.InDelta(t, 50, p.UnrealizedPnL, tolerance)
	assert.InDelta(t, 20, p.UnrealizedPnLPercent, tolerance)

	Value(p, &model.Quote{Price: 60})
	assert.InDelta(t, 250, p.CurrentValue, tolerance)
	assert.InDelta(t, -50, p.UnrealizedPnL, tolerance)
}

func TestValue_LeverageScaling(t *testing.T) {
	for _, lev := range []float64{1, 2.5, 10} {
		single := position(4, 100, 2, lev)
		double := position(4, 100, 2, 2*lev)
		q := &model.Quote{Price: 130}
		Value(single, q)
		Value(double, q)

		assert.InDelta(t, 2*single.CurrentValue, double.CurrentValue, tolerance)
		assert.InDelta(t, 2*single.UnrealizedPnL, double.UnrealizedPnL, tolerance)
		assert.InDelta(t, single.UnrealizedPnLPercent, double.UnrealizedPnLPercent, tolerance)
	}
}

func TestValue_NonPositiveLeverageCountsAsOne(t *testing.T) {
	zero := position(2, 10, 0, 0)
	one := position(2, 10, 0, 1)
	Value(zero, &model.Quote{Price: 15})
	Value(one, &model.Quote{Price: 15})

	assert.Equal(t, one.CurrentValue, zero.CurrentValue)
	assert.Equal(t, one.UnrealizedPnL, zero.UnrealizedPnL)
}

func TestValue_ZeroCostGuardsPercent(t *testing.T) {
	p := position(0, 0, 0, 1)
	Value(p, &model.Quote{Price: 15})

	assert.Zero(t, p.CurrentValue)
	assert.Zero(t, p.UnrealizedPnL)
	assert.Zero(t, p.UnrealizedPnLPercent)
}
