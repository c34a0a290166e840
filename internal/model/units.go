package model

import "strings"

// Unit is the quantity unit a trade was entered in. Metals and commodities are
// stored in troy ounces, Thai bullion in baht weight, everything else in shares.
type Unit string

const (
	NoUnit Unit = ""

	Share   Unit = "share"
	TroyOz  Unit = "oz"
	Gram    Unit = "gram"
	Kilo    Unit = "kg"
	BahtWt  Unit = "baht"
	Salung  Unit = "salung"
)

const _salungsPerBaht = 4

const (
	GramsPerTroyOz = 31.1034768
	GramsPerBaht   = 15.244
	GramsPerSalung = 3.811
	GramsPerKilo   = 1000.0
)

var _unitAliases = map[string]Unit{
	"share":   Share,
	"oz":      TroyOz,
	"troy_oz": TroyOz,
	"g":       Gram,
	"gram":    Gram,
	"kg":      Kilo,
	"baht":    BahtWt,
	"salung":  Salung,
}

var _gramsPer = map[Unit]float64{
	TroyOz: GramsPerTroyOz,
	Gram:   1,
	Kilo:   GramsPerKilo,
	BahtWt: GramsPerBaht,
	Salung: GramsPerSalung,
}

// ParseUnit accepts the unit names and their short forms. ok is false for
// unknown names.
func ParseUnit(s string) (Unit, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return NoUnit, true
	}
	u, ok := _unitAliases[s]
	return u, ok
}

// IsThaiGold reports symbols quoted per baht weight.
func IsThaiGold(symbol string) bool {
	switch strings.ToUpper(symbol) {
	case "GOLD96.5", "GOLD99.99":
		return true
	}
	return false
}

// BaseUnit is the unit quantities of the instrument are kept in.
func BaseUnit(t InstrumentType, symbol string) Unit {
	switch {
	case t != Gold && t != Commodity:
		return Share
	case IsThaiGold(symbol):
		return BahtWt
	default:
		return TroyOz
	}
}

// ToBaseUnit converts quantity and unit price entered in unit to the base unit
// of the instrument. Thai gold prices are always quoted per baht weight, so a
// salung purchase converts its quantity only.
func ToBaseUnit(t InstrumentType, symbol string, unit Unit, quantity, price float64) (float64, float64, Unit) {
	base := BaseUnit(t, symbol)
	if unit == NoUnit || unit == base || base == Share {
		return quantity, price, base
	}

	grams, ok := _gramsPer[unit]
	if !ok {
		return quantity, price, base
	}
	if base == BahtWt && unit == Salung {
		return quantity / _salungsPerBaht, price, base
	}
	ratio := grams / _gramsPer[base]
	return quantity * ratio, price / ratio, base
}
