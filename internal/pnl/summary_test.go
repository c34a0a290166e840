package pnl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/STTM-NSU/portfolio-tracker/internal/model"
)

func valued(symbol string, typ model.InstrumentType, market model.Market, cost, value float64) model.Position {
	return model.Position{
		Symbol:         symbol,
		InstrumentType: typ,
		Market:         market,
		Quantity:       1,
		TotalCost:      cost,
		CurrentValue:   value,
		UnrealizedPnL:  value - cost,
	}
}

func TestReduce(t *testing.T) {
	breakdown := map[string]float64{"THB": 100, "USD": -20}
	s := Reduce([]model.Position{
		valued("PTT", model.Stock, model.Set, 1000, 1100),
		valued("BTC", model.Crypto, model.Binance, 500, 400),
	}, 80, breakdown)

	assert.InDelta(t, 1500, s.TotalInvested, tolerance)
	assert.InDelta(t, 1500, s.TotalCurrentValue, tolerance)
	assert.InDelta(t, 0, s.TotalUnrealizedPnL, tolerance)
	assert.InDelta(t, 0, s.TotalUnrealizedPnLPercent, tolerance)
	assert.Equal(t, 80.0, s.TotalRealizedPnL)
	assert.Equal(t, breakdown, s.RealizedPnLBreakdown)
	assert.Equal(t, 2, s.AssetsCount)

	s.RealizedPnLBreakdown["THB"] = 0
	assert.Equal(t, 100.0, breakdown["THB"], "breakdown must be copied")
}

func TestReduce_Empty(t *testing.T) {
	s := Reduce(nil, 12.5, nil)

	assert.Zero(t, s.TotalInvested)
	assert.Zero(t, s.TotalUnrealizedPnLPercent)
	assert.Equal(t, 12.5, s.TotalRealizedPnL)
	assert.NotNil(t, s.RealizedPnLBreakdown)
	assert.Zero(t, s.AssetsCount)
}

func TestActive(t *testing.T) {
	open := &model.Position{Symbol: "A", Quantity: 1}
	dust := &model.Position{Symbol: "B", Quantity: QuantityEpsilon / 2}
	short := &model.Position{Symbol: "C", Quantity: -2}
	closed := &model.Position{Symbol: "D"}
	all := []*model.Position{open, dust, short, closed}

	assert.Equal(t, []*model.Position{open, short}, Active(all, false))
	assert.Equal(t, all, Active(all, true))
}

func TestSortByValue(t *testing.T) {
	positions := []model.Position{
		valued("A", model.Stock, model.Set, 0, 10),
		valued("B", model.Stock, model.Set, 0, 30),
		valued("C", model.Stock, model.Set, 0, 10),
		valued("D", model.Stock, model.Set, 0, 20),
	}
	SortByValue(positions)

	var got []string
	for _, p := range positions {
		got = append(got, p.Symbol)
	}
	assert.Equal(t, []string{"B", "D", "A", "C"}, got)
}

func TestFilterViews(t *testing.T) {
	positions := []model.Position{
		valued("PTT", model.Stock, model.Set, 1000, 1100),
		valued("AAPL", model.ForeignStock, model.Nasdaq, 2000, 1800),
		valued("KBANK", model.Stock, model.Set, 500, 600),
		valued("BTC", model.Crypto, model.Binance, 300, 450),
	}

	stocks := FilterByType(positions, model.Stock)
	require.Len(t, stocks.Positions, 2)
	assert.Equal(t, 2, stocks.Summary.AssetsCount)
	assert.InDelta(t, 1500, stocks.Summary.TotalInvested, tolerance)
	assert.InDelta(t, 200, stocks.Summary.TotalUnrealizedPnL, tolerance)
	assert.InDelta(t, 200.0/1500*100, stocks.Summary.TotalUnrealizedPnLPercent, tolerance)
	assert.Zero(t, stocks.Summary.TotalRealizedPnL)
	assert.Empty(t, stocks.Summary.RealizedPnLBreakdown)

	nasdaq := FilterByMarket(positions, model.Nasdaq)
	require.Len(t, nasdaq.Positions, 1)
	assert.Equal(t, "AAPL", nasdaq.Positions[0].Symbol)
	assert.InDelta(t, -10, nasdaq.Summary.TotalUnrealizedPnLPercent, tolerance)

	none := FilterByType(positions, model.Gold)
	assert.Empty(t, none.Positions)
	assert.Zero(t, none.Summary.AssetsCount)
	assert.Zero(t, none.Summary.TotalUnrealizedPnLPercent)
}
