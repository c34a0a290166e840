package tools

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatMoney renders an amount with the currency's symbol and fraction. Codes
// go-money does not know (USDT and other tokens) get two decimals and the code.
func FormatMoney(amount float64, currency string) string {
	currency = strings.ToUpper(currency)
	if currency == "" || money.GetCurrency(currency) == nil {
		s := decimal.NewFromFloat(amount).StringFixed(2)
		if currency == "" {
			return s
		}
		return s + " " + currency
	}
	return money.NewFromFloat(amount, currency).Display()
}

// FormatPercent rounds half away from zero to two places.
func FormatPercent(p float64) string {
	return decimal.NewFromFloat(p).StringFixed(2) + "%"
}

// FormatQuantity trims trailing zeros, keeping up to eight decimals.
func FormatQuantity(q float64) string {
	return decimal.NewFromFloat(q).Round(8).String()
}
