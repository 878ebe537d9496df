package domain

import "github.com/shopspring/decimal"

// SettlementCurrency is the single currency all amounts are settled in.
// Conversion happens upstream; this engine never sees mixed currencies.
const SettlementCurrency = "PHP"

var minorUnitsPerUnit = decimal.NewFromInt(100)

// AmountFromMinorUnits converts a gateway minor-unit amount (e.g. Stripe
// cents) to the settlement currency's decimal form.
func AmountFromMinorUnits(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(minorUnitsPerUnit)
}

// RoundAmount rounds to the settlement currency's two-decimal precision
func RoundAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}
