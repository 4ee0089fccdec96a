package billing

import (
	"bytes"
	"strings"
	"testing"

	"github.com/finops/ffc-billing/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChargeLineBuilder_Build(t *testing.T) {
	b := NewChargeLineBuilder("FFC-PRODUCT")

	line := b.Build(ChargeLineParams{
		VendorExternalID: VendorExternalID("1234567890", 2),
		DatasourceID:     "ds-1",
		DatasourceName:   "Production",
		OrganizationID:   "org-1",
		StartDate:        june(5),
		EndDate:          june(20),
		Price:            decimal.RequireFromString("-6.40005"),
		Description:      "Refund due to active entitlement FENT-1",
	})

	var buf bytes.Buffer
	w := NewChargesWriter(&buf)
	require.NoError(t, w.Write(line))
	require.NoError(t, w.Flush())

	want := `{"externalIds":{"vendor":"1234567890-02","invoice":"-","reference":"ds-1"},` +
		`"search":{"subscription":{"criteria":"subscription.externalIds.vendor","value":"org-1"},` +
		`"item":{"criteria":"item.externalIds.vendor","value":"FFC-PRODUCT"}},` +
		`"period":{"start":"2025-06-05T00:00:00+00:00","end":"2025-06-20T23:59:59+00:00"},` +
		`"price":{"unitPP":"-6.4000","PPx1":"-6.4000"},"quantity":1,` +
		`"description":{"value1":"Production","value2":"Refund due to active entitlement FENT-1"},` +
		`"segment":"COM"}` + "\n"
	assert.Equal(t, want, buf.String())
	assert.Equal(t, 1, w.Lines())
}

func TestChargeLine_UnitPriceRoundTrip(t *testing.T) {
	b := NewChargeLineBuilder("FFC-PRODUCT")
	prices := []string{"0", "0.4", "1234.56785", "-0.00006", "-99.99995", "7.123456789"}

	for _, p := range prices {
		t.Run(p, func(t *testing.T) {
			price := decimal.RequireFromString(p)
			line := b.Build(ChargeLineParams{VendorExternalID: "x-01", StartDate: june(1), EndDate: june(1), Price: price})

			got, err := line.UnitPrice()
			require.NoError(t, err)
			assert.True(t, types.Quantize(price).Equal(got))
			assert.Equal(t, line.Price.UnitPP, line.Price.PPx1)
			assert.False(t, strings.HasPrefix(line.Price.UnitPP, "-0.0000"))
		})
	}
}

func TestChargeLineBuilder_SignedZero(t *testing.T) {
	b := NewChargeLineBuilder("FFC-PRODUCT")
	tests := []struct {
		name   string
		price  string
		refund bool
		want   string
	}{
		{"zero charge", "0", false, "0.0000"},
		{"zero refund", "0", true, "-0.0000"},
		{"negative rounding to zero", "-0.00004", false, "-0.0000"},
		{"refund", "-4", true, "-4.0000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := b.Build(ChargeLineParams{
				VendorExternalID: "x-02",
				StartDate:        june(1),
				EndDate:          june(1),
				Price:            decimal.RequireFromString(tt.price),
				Refund:           tt.refund,
			})
			assert.Equal(t, tt.want, line.Price.UnitPP)
			assert.Equal(t, tt.want, line.Price.PPx1)

			got, err := line.UnitPrice()
			require.NoError(t, err)
			assert.True(t, got.Equal(types.Quantize(decimal.RequireFromString(tt.price))))
		})
	}
}

func TestChargesWriter_NoEscaping(t *testing.T) {
	b := NewChargeLineBuilder("FFC-PRODUCT")
	line := b.Build(ChargeLineParams{
		VendorExternalID: "x-01",
		DatasourceName:   "R&D <sandbox>",
		StartDate:        june(1),
		EndDate:          june(30),
	})

	var buf bytes.Buffer
	w := NewChargesWriter(&buf)
	require.NoError(t, w.Write(line))
	require.NoError(t, w.Flush())

	assert.Contains(t, buf.String(), `"value1":"R&D <sandbox>"`)
}
