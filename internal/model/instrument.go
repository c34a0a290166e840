package model

import (
	"fmt"
	"slices"
	"strings"
)

type InstrumentType string

const (
	Stock        InstrumentType = "stock"         // Thai stocks (SET, MAI)
	Tfex         InstrumentType = "tfex"          // Thailand Futures Exchange
	Crypto       InstrumentType = "crypto"        // spot and perpetuals
	ForeignStock InstrumentType = "foreign_stock" // US, EU, Asia
	Gold         InstrumentType = "gold"
	Commodity    InstrumentType = "commodity"
)

var InstrumentTypes = []InstrumentType{Stock, Tfex, Crypto, ForeignStock, Gold, Commodity}

func ParseInstrumentType(s string) (InstrumentType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stock":
		return Stock, nil
	case "tfex":
		return Tfex, nil
	case "crypto":
		return Crypto, nil
	case "foreign_stock", "foreignstock":
		return ForeignStock, nil
	case "gold":
		return Gold, nil
	case "commodity":
		return Commodity, nil
	}
	return "", fmt.Errorf("invalid instrument type: %s. Must be one of: stock, tfex, crypto, foreign_stock, gold, commodity", s)
}

func (t InstrumentType) Valid() bool {
	return slices.Contains(InstrumentTypes, t)
}

// Market is an exchange or venue. The empty Market means "not specified".
type Market string

const (
	NoMarket Market = ""

	Set        Market = "SET"
	Mai        Market = "MAI"
	TfexMarket Market = "TFEX"

	Nyse   Market = "NYSE"
	Nasdaq Market = "NASDAQ"
	Amex   Market = "AMEX"

	Lse      Market = "LSE"
	Euronext Market = "EURONEXT"
	Xetra    Market = "XETRA"

	Hkex Market = "HKEX"
	Tse  Market = "TSE"
	Sgx  Market = "SGX"
	Krx  Market = "KRX"
	Moex Market = "MOEX"

	Binance  Market = "BINANCE"
	Coinbase Market = "COINBASE"
	Bitkub   Market = "BITKUB"
	Htx      Market = "HTX"
	Okx      Market = "OKX"
	Kucoin   Market = "KUCOIN"

	Comex Market = "COMEX"
	Lbma  Market = "LBMA"

	OtherMarket Market = "OTHER"
)

var marketCurrencies = map[Market]string{
	Set:         "THB",
	Mai:         "THB",
	TfexMarket:  "THB",
	Bitkub:      "THB",
	Nyse:        "USD",
	Nasdaq:      "USD",
	Amex:        "USD",
	Coinbase:    "USD",
	Comex:       "USD",
	Lbma:        "USD",
	OtherMarket: "USD",
	Lse:         "GBP",
	Euronext:    "EUR",
	Xetra:       "EUR",
	Hkex:        "HKD",
	Tse:         "JPY",
	Sgx:         "SGD",
	Krx:         "KRW",
	Moex:        "RUB",
	Binance:     "USDT",
	Htx:         "USDT",
	Okx:         "USDT",
	Kucoin:      "USDT",
}

func ParseMarket(s string) (Market, error) {
	m := Market(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := marketCurrencies[m]; !ok {
		return NoMarket, fmt.Errorf("invalid market: %s", s)
	}
	return m, nil
}

func (m Market) Valid() bool {
	_, ok := marketCurrencies[m]
	return ok
}

// DefaultCurrency returns the quote currency of the market, "" for NoMarket.
func (m Market) DefaultCurrency() string {
	return marketCurrencies[m]
}
