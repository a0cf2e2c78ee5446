package decimalx

import "github.com/shopspring/decimal"

func MustFromString(s string) decimal.Decimal {
	f, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return f
}

// Pct returns value * pct / 100.
func Pct(value, pct decimal.Decimal) decimal.Decimal {
	return value.Mul(pct).Div(decimal.NewFromInt(100))
}
