package pnl

import (
	"math"

	"github.com/STTM-NSU/portfolio-tracker/internal/model"
)

// Value marks p to market. A nil quote values the position at its own average
// cost, so its unrealized P&L is zero.
func Value(p *model.Position, q *model.Quote) {
	price := p.AvgCost
	p.PriceSource = ""
	if q != nil {
		price = q.Price
		p.PriceSource = q.Source
		if q.Currency != "" {
			p.Currency = q.Currency
		}
	}
	p.CurrentPrice = price

	leverage := p.Leverage
	if leverage <= 0 {
		leverage = 1
	}
	leveragedCost := p.TotalCost * leverage
	marked := math.Abs(p.Quantity) * price * leverage

	if p.Quantity >= 0 {
		p.CurrentValue = marked
		p.UnrealizedPnL = marked - leveragedCost
	} else {
		// a short is worth what was received for it
		p.CurrentValue = leveragedCost
		p.UnrealizedPnL = leveragedCost - marked
	}

	p.UnrealizedPnLPercent = 0
	if leveragedCost > 0 {
		p.UnrealizedPnLPercent = p.UnrealizedPnL / leveragedCost * 100
	}
}
