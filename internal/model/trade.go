package model

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
)

var ErrInvalidTrade = errors.New("invalid trade")

type Action string

const (
	Buy        Action = "buy"
	Sell       Action = "sell"
	OpenLong   Action = "open_long"
	CloseLong  Action = "close_long"
	OpenShort  Action = "open_short"
	CloseShort Action = "close_short"
)

func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	case "open_long", "long":
		return OpenLong, nil
	case "close_long":
		return CloseLong, nil
	case "open_short", "short":
		return OpenShort, nil
	case "close_short":
		return CloseShort, nil
	}
	return "", fmt.Errorf("unknown trade action %q", s)
}

// Bucket returns the position bucket the action trades in, "" for unknown actions.
func (a Action) Bucket() Bucket {
	switch a {
	case Buy, Sell:
		return Spot
	case OpenLong, CloseLong:
		return Long
	case OpenShort, CloseShort:
		return Short
	default:
		return ""
	}
}

func (a *Action) UnmarshalText(b []byte) error {
	v, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

func (t *InstrumentType) UnmarshalText(b []byte) error {
	v, err := ParseInstrumentType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (m *Market) UnmarshalText(b []byte) error {
	if strings.TrimSpace(string(b)) == "" {
		*m = NoMarket
		return nil
	}
	v, err := ParseMarket(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Trade is a single ledger event. Trades are immutable once stored.
type Trade struct {
	ID             string         `json:"id" yaml:"id,omitempty"`
	UserID         string         `json:"user_id" yaml:"user_id,omitempty"`
	InstrumentType InstrumentType `json:"instrument_type" yaml:"instrument_type"`
	Symbol         string         `json:"symbol" yaml:"symbol"`
	Action         Action         `json:"action" yaml:"action"`
	Quantity       float64        `json:"quantity" yaml:"quantity"`
	Price          float64        `json:"price" yaml:"price"`
	Fees           float64        `json:"fees" yaml:"fees,omitempty"`
	Timestamp      time.Time      `json:"timestamp" yaml:"timestamp"`
	Market         Market         `json:"market,omitempty" yaml:"market,omitempty"`
	Currency       string         `json:"currency,omitempty" yaml:"currency,omitempty"`
	Leverage       *float64       `json:"leverage,omitempty" yaml:"leverage,omitempty"` // multiplier for derivatives, nil keeps the stored one
	Unit           Unit           `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// Key returns the position the trade aggregates into.
func (t Trade) Key() PositionKey {
	return PositionKey{
		InstrumentType: t.InstrumentType,
		Market:         t.Market,
		Symbol:         t.Symbol,
		Bucket:         t.Action.Bucket(),
	}
}

// Normalize upper-cases the symbol, fills the currency from the market and
// converts a quantity entered in another unit to the instrument's base unit.
// Normalizing twice gives the same trade.
func (t Trade) Normalize() Trade {
	t.Symbol = strings.ToUpper(strings.TrimSpace(t.Symbol))
	t.Currency = strings.ToUpper(strings.TrimSpace(t.Currency))
	if t.Currency == "" {
		t.Currency = t.Market.DefaultCurrency()
	}
	if t.Unit != NoUnit {
		if u, ok := ParseUnit(string(t.Unit)); ok {
			t.Quantity, t.Price, t.Unit = ToBaseUnit(t.InstrumentType, t.Symbol, u, t.Quantity, t.Price)
		}
	}
	return t
}

// Validate checks field ranges. Currencies must be ISO 4217 codes or be listed in extraCurrencies.
func (t Trade) Validate(extraCurrencies ...string) error {
	var errs []error

	if strings.TrimSpace(t.Symbol) == "" {
		errs = append(errs, errors.New("empty symbol"))
	}
	if !t.InstrumentType.Valid() {
		errs = append(errs, fmt.Errorf("unknown instrument type %q", t.InstrumentType))
	}
	if t.Action.Bucket() == "" {
		errs = append(errs, fmt.Errorf("unknown action %q", t.Action))
	}
	if t.Market != NoMarket && !t.Market.Valid() {
		errs = append(errs, fmt.Errorf("unknown market %q", t.Market))
	}
	if !(t.Quantity > 0) || math.IsInf(t.Quantity, 0) {
		errs = append(errs, fmt.Errorf("quantity must be positive, got %v", t.Quantity))
	}
	if !(t.Price > 0) || math.IsInf(t.Price, 0) {
		errs = append(errs, fmt.Errorf("price must be positive, got %v", t.Price))
	}
	if !(t.Fees >= 0) || math.IsInf(t.Fees, 0) {
		errs = append(errs, fmt.Errorf("fees must not be negative, got %v", t.Fees))
	}
	if t.Leverage != nil && !(*t.Leverage >= 0) {
		errs = append(errs, fmt.Errorf("leverage must not be negative, got %v", *t.Leverage))
	}
	if t.Timestamp.IsZero() {
		errs = append(errs, errors.New("missing timestamp"))
	}
	if _, ok := ParseUnit(string(t.Unit)); !ok {
		errs = append(errs, fmt.Errorf("unknown unit %q", t.Unit))
	}
	if t.Currency != "" && !knownCurrency(t.Currency, extraCurrencies) {
		errs = append(errs, fmt.Errorf("unknown currency %q", t.Currency))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidTrade, errors.Join(errs...))
	}
	return nil
}

func knownCurrency(code string, extra []string) bool {
	code = strings.ToUpper(code)
	if slices.Contains(extra, code) {
		return true
	}
	return money.GetCurrency(code) != nil
}
