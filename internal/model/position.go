package model

import "math"

type Bucket string

const (
	Spot  Bucket = "spot"
	Long  Bucket = "long"
	Short Bucket = "short"
)

// PositionKey is the aggregation unit. One symbol may hold a long and a short
// bucket at the same time (hedge mode).
type PositionKey struct {
	InstrumentType InstrumentType
	Market         Market
	Symbol         string
	Bucket         Bucket
}

func (k PositionKey) String() string {
	return string(k.InstrumentType) + ":" + string(k.Market) + ":" + k.Symbol + ":" + string(k.Bucket)
}

type Position struct {
	Symbol               string         `json:"symbol"`
	InstrumentType       InstrumentType `json:"instrument_type"`
	Market               Market         `json:"market,omitempty"`
	PositionType         Bucket         `json:"position_type"`
	Currency             string         `json:"currency"`
	Quantity             float64        `json:"quantity"` // negative for shorts
	AvgCost              float64        `json:"avg_cost"` // fees excluded
	TotalFees            float64        `json:"total_fees"`
	TotalCost            float64        `json:"total_cost"` // |quantity|*avg_cost + total_fees
	Leverage             float64        `json:"leverage"`
	RealizedPnL          float64        `json:"realized_pnl"`
	CurrentPrice         float64        `json:"current_price"`
	CurrentValue         float64        `json:"current_value"`
	UnrealizedPnL        float64        `json:"unrealized_pnl"`
	UnrealizedPnLPercent float64        `json:"unrealized_pnl_percent"`
	PriceSource          string         `json:"price_source,omitempty"`
}

func NewPosition(key PositionKey, currency string) *Position {
	return &Position{
		Symbol:         key.Symbol,
		InstrumentType: key.InstrumentType,
		Market:         key.Market,
		PositionType:   key.Bucket,
		Currency:       currency,
		Leverage:       1,
	}
}

func (p *Position) Key() PositionKey {
	return PositionKey{
		InstrumentType: p.InstrumentType,
		Market:         p.Market,
		Symbol:         p.Symbol,
		Bucket:         p.PositionType,
	}
}

// RecomputeCost restores the cost identity after quantity, average or fees change.
func (p *Position) RecomputeCost() {
	p.TotalCost = math.Abs(p.Quantity)*p.AvgCost + p.TotalFees
}

type Summary struct {
	TotalInvested             float64            `json:"total_invested"`
	TotalCurrentValue         float64            `json:"total_current_value"`
	TotalUnrealizedPnL        float64            `json:"total_unrealized_pnl"`
	TotalUnrealizedPnLPercent float64            `json:"total_unrealized_pnl_percent"`
	TotalRealizedPnL          float64            `json:"total_realized_pnl"`
	RealizedPnLBreakdown      map[string]float64 `json:"realized_pnl_breakdown"`
	AssetsCount               int                `json:"assets_count"`
}

// Quote is a resolved market price.
type Quote struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Source   string  `json:"source,omitempty"`
}
