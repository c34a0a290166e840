package price

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/STTM-NSU/portfolio-tracker/internal/model"
)

func TestYahooSymbol(t *testing.T) {
	tests := []struct {
		symbol   string
		typ      model.InstrumentType
		market   model.Market
		ticker   string
		currency string
	}{
		{"ptt", model.Stock, model.Set, "PTT.BK", "THB"},
		{"PTT", model.Stock, model.NoMarket, "PTT.BK", "THB"},
		{"SABUY", model.Stock, model.Mai, "SABUY.BK", "THB"},
		{"S50H25", model.Tfex, model.TfexMarket, "^SET50.BK", "THB"},
		{"GFM25", model.Tfex, model.TfexMarket, "GC=F", "USD"},
		{"GD10Z24", model.Tfex, model.TfexMarket, "GC=F", "USD"},
		{"SVF25", model.Tfex, model.TfexMarket, "SI=F", "USD"},
		{"BRNF25", model.Tfex, model.TfexMarket, "BZ=F", "USD"},
		{"AAPL", model.ForeignStock, model.Nasdaq, "AAPL", "USD"},
		{"VOD", model.ForeignStock, model.Lse, "VOD.L", "GBP"},
		{"SAP", model.ForeignStock, model.Xetra, "SAP.DE", "EUR"},
		{"MC", model.ForeignStock, model.Euronext, "MC.PA", "EUR"},
		{"0700", model.ForeignStock, model.Hkex, "0700.HK", "HKD"},
		{"7203", model.ForeignStock, model.Tse, "7203.T", "JPY"},
		{"D05", model.ForeignStock, model.Sgx, "D05.SI", "SGD"},
		{"005930", model.ForeignStock, model.Krx, "005930.KS", "KRW"},
		{"BRK.B", model.ForeignStock, model.Nyse, "BRK.B", "USD"},
		{"XAU", model.Gold, model.Comex, "GC=F", "USD"},
		{"xag", model.Gold, model.NoMarket, "SI=F", "USD"},
		{"XPT", model.Gold, model.NoMarket, "PL=F", "USD"},
		{"XPD", model.Gold, model.NoMarket, "PA=F", "USD"},
		{"CL", model.Commodity, model.NoMarket, "CL=F", "USD"},
		{"NG=F", model.Commodity, model.NoMarket, "NG=F", "USD"},
		{"btc", model.Crypto, model.Binance, "BTC-USD", "USD"},
		{"ETHUSDT", model.Crypto, model.Binance, "ETH-USD", "USD"},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			ticker, currency, err := YahooSymbol(tt.symbol, tt.typ, tt.market)
			require.NoError(t, err)
			assert.Equal(t, tt.ticker, ticker)
			assert.Equal(t, tt.currency, currency)
		})
	}
}

func TestYahooSymbol_Unsupported(t *testing.T) {
	_, _, err := YahooSymbol("USDM25", model.Tfex, model.TfexMarket)
	assert.ErrorIs(t, err, ErrUnsupported)

	_, _, err = YahooSymbol("GOLD96.5", model.Gold, model.NoMarket)
	assert.ErrorIs(t, err, ErrUnsupported)

	_, _, err = YahooSymbol(" ", model.Stock, model.Set)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestBinancePair(t *testing.T) {
	assert.Equal(t, "BTCUSDT", BinancePair("btc"))
	assert.Equal(t, "ETHUSDT", BinancePair("ETHUSDT"))
	assert.Equal(t, "USDTUSDT", BinancePair("USDT"))
}
