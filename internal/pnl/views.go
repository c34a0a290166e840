package pnl

import (
	"cmp"
	"slices"

	"github.com/STTM-NSU/portfolio-tracker/internal/model"
)

// View is a subset of the valued positions with its own summary.
type View struct {
	Summary   model.Summary    `json:"summary"`
	Positions []model.Position `json:"assets"`
}

// SortByValue orders positions by current value, largest first. Equal values keep input order.
func SortByValue(positions []model.Position) {
	slices.SortStableFunc(positions, func(a, b model.Position) int {
		return cmp.Compare(b.CurrentValue, a.CurrentValue)
	})
}

func FilterByType(positions []model.Position, t model.InstrumentType) View {
	return filter(positions, func(p model.Position) bool { return p.InstrumentType == t })
}

func FilterByMarket(positions []model.Position, m model.Market) View {
	return filter(positions, func(p model.Position) bool { return p.Market == m })
}

// filter re-reduces the subset. Realized P&L is not attributed to a scope.
func filter(positions []model.Position, keep func(model.Position) bool) View {
	subset := make([]model.Position, 0, len(positions))
	for _, p := range positions {
		if keep(p) {
			subset = append(subset, p)
		}
	}
	return View{
		Summary:   Reduce(subset, 0, nil),
		Positions: subset,
	}
}
