package price

import (
	"fmt"
	"strings"

	"github.com/STTM-NSU/portfolio-tracker/internal/model"
)

var _yahooSuffixes = map[model.Market]string{
	model.Set:      ".BK",
	model.Mai:      ".BK",
	model.Lse:      ".L",
	model.Xetra:    ".DE",
	model.Euronext: ".PA",
	model.Hkex:     ".HK",
	model.Tse:      ".T",
	model.Sgx:      ".SI",
	model.Krx:      ".KS",
	model.Moex:     ".ME",
}

var _yahooMetals = map[string]string{
	"XAU":    "GC=F",
	"XAUUSD": "GC=F",
	"XAG":    "SI=F",
	"XAGUSD": "SI=F",
	"XPT":    "PL=F",
	"XPD":    "PA=F",
}

// tfex series prefixes and the yahoo instrument that tracks their underlying
var _tfexUnderlyings = []struct {
	prefix, symbol, currency string
}{
	{"S50", "^SET50.BK", "THB"},
	{"GF", "GC=F", "USD"},
	{"GD", "GC=F", "USD"},
	{"SV", "SI=F", "USD"},
	{"BRN", "BZ=F", "USD"},
}

// YahooSymbol maps a ledger symbol to its Yahoo Finance ticker. currency is
// the quote currency when Yahoo does not report one.
func YahooSymbol(symbol string, instrumentType model.InstrumentType, market model.Market) (ticker, currency string, err error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", "", fmt.Errorf("%w: empty symbol", ErrUnsupported)
	}

	switch instrumentType {
	case model.Stock, model.ForeignStock:
		if strings.ContainsAny(symbol, ".^=") {
			return symbol, market.DefaultCurrency(), nil
		}
		if instrumentType == model.Stock && market == model.NoMarket {
			market = model.Set
		}
		return symbol + _yahooSuffixes[market], market.DefaultCurrency(), nil
	case model.Tfex:
		for _, u := range _tfexUnderlyings {
			if strings.HasPrefix(symbol, u.prefix) {
				return u.symbol, u.currency, nil
			}
		}
		return "", "", fmt.Errorf("%w: no yahoo underlying for tfex series %s", ErrUnsupported, symbol)
	case model.Gold:
		if t, ok := _yahooMetals[symbol]; ok {
			return t, "USD", nil
		}
		return "", "", fmt.Errorf("%w: no yahoo ticker for metal %s", ErrUnsupported, symbol)
	case model.Commodity:
		if strings.HasSuffix(symbol, "=F") {
			return symbol, "USD", nil
		}
		return symbol + "=F", "USD", nil
	case model.Crypto:
		base := symbol
		if b, ok := strings.CutSuffix(symbol, "USDT"); ok && b != "" {
			base = b
		}
		return base + "-USD", "USD", nil
	}
	return "", "", fmt.Errorf("%w: instrument type %s", ErrUnsupported, instrumentType)
}

// BinancePair returns the USDT spot pair of a crypto symbol.
func BinancePair(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if strings.HasSuffix(symbol, "USDT") && len(symbol) > 4 {
		return symbol
	}
	return symbol + "USDT"
}
