package exchangerate

import (
	"context"

	"github.com/shopspring/decimal"
)

// RateTable maps target currencies to their rate against Base.
// Document keeps the canonical encoding of the upstream payload for audit attachments.
type RateTable struct {
	Base     string
	Rates    map[string]decimal.Decimal
	Document []byte
}

func (t *RateTable) Rate(currency string) (decimal.Decimal, bool) {
	if t == nil {
		return decimal.Zero, false
	}
	rate, ok := t.Rates[currency]
	return rate, ok
}

// Client fetches the latest rate table of a base currency
type Client interface {
	Latest(ctx context.Context, base string) (*RateTable, error)
}
