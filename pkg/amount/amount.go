package amount

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when no ISO code is configured.
const DefaultCurrency = money.USD

// Display formats v in the given ISO currency, rounded to minor units ("$1,250.50").
func Display(v decimal.Decimal, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	return ToMoney(v, currency).Display()
}

// ToMoney converts a decimal major-unit amount into go-money minor units.
func ToMoney(v decimal.Decimal, currency string) *money.Money {
	minor := v.Round(2).Shift(2).IntPart()
	return money.New(minor, currency)
}

// HasAtMostTwoPlaces reports whether v fits in cents.
func HasAtMostTwoPlaces(v decimal.Decimal) bool {
	return v.Equal(v.Round(2))
}
