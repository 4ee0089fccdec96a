package billing

import (
	"github.com/finops/ffc-billing/internal/domain/exchangerate"
	"github.com/finops/ffc-billing/internal/types"
	"github.com/shopspring/decimal"
)

// CurrencyConversion converts prices from the currency expenses are recorded in
// to the currency the organization is billed in.
type CurrencyConversion struct {
	BaseCurrency    string
	BillingCurrency string
	Rate            decimal.Decimal
	// Rates is the table the rate was taken from, nil when no conversion was needed
	Rates *exchangerate.RateTable
}

// IdentityConversion is used when both currencies match
func IdentityConversion(currency string) *CurrencyConversion {
	return &CurrencyConversion{
		BaseCurrency:    currency,
		BillingCurrency: currency,
		Rate:            decimal.NewFromInt(1),
	}
}

// Convert applies the rate. Both operands and the result are quantized.
func (c *CurrencyConversion) Convert(price decimal.Decimal) decimal.Decimal {
	return types.Quantize(types.Quantize(price).Mul(types.Quantize(c.Rate)))
}

// SourcePrice is the billed share of amount in the expenses currency.
func SourcePrice(amount, percentage decimal.Decimal) decimal.Decimal {
	return types.Quantize(types.ApplyPercentage(amount, percentage))
}

// RefundPrice is the signed price of a refund in the billing currency.
// Refunds always reduce the invoice. Only the operands and the final product are
// quantized, the billed share is converted unrounded.
func RefundPrice(amount, percentage decimal.Decimal, conversion *CurrencyConversion) decimal.Decimal {
	share := types.ApplyPercentage(types.Quantize(amount), types.Quantize(percentage))
	return types.Quantize(share.Mul(types.Quantize(conversion.Rate))).Neg()
}
