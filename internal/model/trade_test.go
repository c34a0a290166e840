package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func validTrade() Trade {
	return Trade{
		InstrumentType: Stock,
		Symbol:         "PTT",
		Action:         Buy,
		Quantity:       100,
		Price:          34.5,
		Fees:           1.2,
		Timestamp:      time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		Market:         Set,
	}
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		in   string
		want Action
	}{
		{"buy", Buy},
		{"SELL", Sell},
		{"long", OpenLong},
		{"open_long", OpenLong},
		{"short", OpenShort},
		{" close_short ", CloseShort},
		{"close_long", CloseLong},
	}
	for _, tt := range tests {
		got, err := ParseAction(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseAction("hold")
	assert.Error(t, err)
}

func TestActionBucket(t *testing.T) {
	assert.Equal(t, Spot, Buy.Bucket())
	assert.Equal(t, Spot, Sell.Bucket())
	assert.Equal(t, Long, OpenLong.Bucket())
	assert.Equal(t, Long, CloseLong.Bucket())
	assert.Equal(t, Short, OpenShort.Bucket())
	assert.Equal(t, Short, CloseShort.Bucket())
	assert.Equal(t, Bucket(""), Action("hold").Bucket())
}

func TestTradeKey(t *testing.T) {
	tr := validTrade()
	tr.Action = CloseLong
	assert.Equal(t, PositionKey{InstrumentType: Stock, Market: Set, Symbol: "PTT", Bucket: Long}, tr.Key())
	assert.Equal(t, "stock:SET:PTT:long", tr.Key().String())
}

func TestParseMarket(t *testing.T) {
	m, err := ParseMarket("nasdaq")
	require.NoError(t, err)
	assert.Equal(t, Nasdaq, m)
	assert.Equal(t, "USD", m.DefaultCurrency())

	_, err = ParseMarket("NOWHERE")
	assert.Error(t, err)
	assert.Empty(t, NoMarket.DefaultCurrency())
}

func TestParseInstrumentType(t *testing.T) {
	it, err := ParseInstrumentType("Foreign_Stock")
	require.NoError(t, err)
	assert.Equal(t, ForeignStock, it)

	_, err = ParseInstrumentType("bond")
	assert.ErrorContains(t, err, "Must be one of")
}

func TestTradeNormalize(t *testing.T) {
	tr := validTrade()
	tr.Symbol = " ptt "
	tr = tr.Normalize()
	assert.Equal(t, "PTT", tr.Symbol)
	assert.Equal(t, "THB", tr.Currency)

	tr.Currency = "usd"
	assert.Equal(t, "USD", tr.Normalize().Currency)
}

func TestTradeValidate(t *testing.T) {
	require.NoError(t, validTrade().Validate())

	neg := -1.0
	tests := []struct {
		name   string
		modify func(*Trade)
	}{
		{"empty symbol", func(t *Trade) { t.Symbol = "" }},
		{"zero quantity", func(t *Trade) { t.Quantity = 0 }},
		{"negative price", func(t *Trade) { t.Price = -5 }},
		{"negative fees", func(t *Trade) { t.Fees = -0.1 }},
		{"unknown action", func(t *Trade) { t.Action = "hold" }},
		{"unknown type", func(t *Trade) { t.InstrumentType = "bond" }},
		{"unknown market", func(t *Trade) { t.Market = "MARS" }},
		{"negative leverage", func(t *Trade) { t.Leverage = &neg }},
		{"missing timestamp", func(t *Trade) { t.Timestamp = time.Time{} }},
		{"unknown currency", func(t *Trade) { t.Currency = "ZZZ" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := validTrade()
			tt.modify(&tr)
			assert.ErrorIs(t, tr.Validate(), ErrInvalidTrade)
		})
	}
}

func TestTradeValidate_ExtraCurrencies(t *testing.T) {
	tr := validTrade()
	tr.InstrumentType = Crypto
	tr.Market = Binance
	tr = tr.Normalize()

	assert.ErrorIs(t, tr.Validate(), ErrInvalidTrade)
	assert.NoError(t, tr.Validate("USDT"))
}

func TestTradeDecode(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var tr Trade
		err := json.Unmarshal([]byte(`{
			"instrument_type": "crypto", "symbol": "btc", "action": "long",
			"quantity": 0.1, "price": 60000, "timestamp": "2025-01-01T00:00:00Z",
			"market": "binance", "leverage": 3
		}`), &tr)
		require.NoError(t, err)
		assert.Equal(t, Crypto, tr.InstrumentType)
		assert.Equal(t, OpenLong, tr.Action)
		assert.Equal(t, Binance, tr.Market)
		require.NotNil(t, tr.Leverage)
		assert.Equal(t, 3.0, *tr.Leverage)
	})

	t.Run("yaml", func(t *testing.T) {
		var tr Trade
		err := yaml.Unmarshal([]byte(`
instrument_type: tfex
symbol: S50H25
action: short
quantity: 2
price: 900
timestamp: 2025-01-01T00:00:00Z
market: tfex
`), &tr)
		require.NoError(t, err)
		assert.Equal(t, Tfex, tr.InstrumentType)
		assert.Equal(t, OpenShort, tr.Action)
		assert.Equal(t, TfexMarket, tr.Market)
		assert.Nil(t, tr.Leverage)
	})

	t.Run("unknown action", func(t *testing.T) {
		var tr Trade
		assert.Error(t, json.Unmarshal([]byte(`{"action": "hold"}`), &tr))
	})
}
