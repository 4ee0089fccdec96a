package types

import "github.com/shopspring/decimal"

// DecimalDigits is the number of fractional digits every monetary amount is quantized to.
const DecimalDigits int32 = 4

// Quantize rounds d to DecimalDigits using round-half-even.
func Quantize(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(DecimalDigits)
}

// FormatAmount renders d with exactly DecimalDigits fractional digits.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixedBank(DecimalDigits)
}

var hundred = decimal.NewFromInt(100)

// ApplyPercentage returns amount * percentage / 100.
func ApplyPercentage(amount, percentage decimal.Decimal) decimal.Decimal {
	return amount.Mul(percentage).Div(hundred)
}
