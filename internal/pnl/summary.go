package pnl

import (
	"maps"
	"math"

	"github.com/STTM-NSU/portfolio-tracker/internal/model"
)

// Reduce totals valued positions. Realized figures are ledger-wide and are
// passed through as given because closed positions leave the active set.
func Reduce(positions []model.Position, realized float64, breakdown map[string]float64) model.Summary {
	s := model.Summary{
		TotalRealizedPnL:     realized,
		RealizedPnLBreakdown: make(map[string]float64, len(breakdown)),
		AssetsCount:          len(positions),
	}
	maps.Copy(s.RealizedPnLBreakdown, breakdown)

	for _, p := range positions {
		s.TotalInvested += p.TotalCost
		s.TotalCurrentValue += p.CurrentValue
		s.TotalUnrealizedPnL += p.UnrealizedPnL
	}
	if s.TotalInvested > 0 {
		s.TotalUnrealizedPnLPercent = s.TotalUnrealizedPnL / s.TotalInvested * 100
	}
	return s
}

// Active drops fully closed positions unless includeClosed is set.
func Active(positions []*model.Position, includeClosed bool) []*model.Position {
	if includeClosed {
		return positions
	}
	res := make([]*model.Position, 0, len(positions))
	for _, p := range positions {
		if math.Abs(p.Quantity) > QuantityEpsilon {
			res = append(res, p)
		}
	}
	return res
}
