package billing

import (
	"bufio"
	"fmt"
	"io"
	"time"

	ierr "github.com/finops/ffc-billing/internal/errors"
	"github.com/finops/ffc-billing/internal/types"
	"github.com/shopspring/decimal"
)

const (
	chargeSegment            = "COM"
	chargeInvoicePlaceholder = "-"
	subscriptionCriteria     = "subscription.externalIds.vendor"
	itemCriteria             = "item.externalIds.vendor"

	// NoChargesDescription marks the line emitted for a datasource without expenses
	NoChargesDescription = "No charges available for this datasource."
)

type ChargeExternalIDs struct {
	Vendor    string `json:"vendor"`
	Invoice   string `json:"invoice"`
	Reference string `json:"reference"`
}

type SearchCriteria struct {
	Criteria string `json:"criteria"`
	Value    string `json:"value"`
}

type ChargeSearch struct {
	Subscription SearchCriteria `json:"subscription"`
	Item         SearchCriteria `json:"item"`
}

type ChargePeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type ChargePrice struct {
	UnitPP string `json:"unitPP"`
	PPx1   string `json:"PPx1"`
}

type ChargeDescription struct {
	Value1 string `json:"value1"`
	Value2 string `json:"value2"`
}

// ChargeLine is one record of a charges file
type ChargeLine struct {
	ExternalIDs ChargeExternalIDs `json:"externalIds"`
	Search      ChargeSearch      `json:"search"`
	Period      ChargePeriod      `json:"period"`
	Price       ChargePrice       `json:"price"`
	Quantity    int               `json:"quantity"`
	Description ChargeDescription `json:"description"`
	Segment     string            `json:"segment"`
}

// UnitPrice parses the quantized unit price back
func (l *ChargeLine) UnitPrice() (decimal.Decimal, error) {
	return decimal.NewFromString(l.Price.UnitPP)
}

// ChargeLineParams describes one charge before formatting
type ChargeLineParams struct {
	VendorExternalID string
	DatasourceID     string
	DatasourceName   string
	OrganizationID   string
	StartDate        time.Time
	EndDate          time.Time
	Price            decimal.Decimal
	Description      string
	// Refund renders a zero price as -0.0000
	Refund bool
}

// ChargeLineBuilder formats charges for the configured ledger item
type ChargeLineBuilder struct {
	externalProductID string
}

func NewChargeLineBuilder(externalProductID string) *ChargeLineBuilder {
	return &ChargeLineBuilder{externalProductID: externalProductID}
}

// Build formats a charge covering whole days from StartDate to EndDate.
// The price is quantized before it is rendered. Negative prices that round to
// zero and zero refunds keep their sign.
func (b *ChargeLineBuilder) Build(p ChargeLineParams) *ChargeLine {
	quantized := types.Quantize(p.Price)
	price := types.FormatAmount(quantized)
	if quantized.IsZero() && (p.Refund || p.Price.IsNegative()) {
		price = "-" + price
	}

	return &ChargeLine{
		ExternalIDs: ChargeExternalIDs{
			Vendor:    p.VendorExternalID,
			Invoice:   chargeInvoicePlaceholder,
			Reference: p.DatasourceID,
		},
		Search: ChargeSearch{
			Subscription: SearchCriteria{Criteria: subscriptionCriteria, Value: p.OrganizationID},
			Item:         SearchCriteria{Criteria: itemCriteria, Value: b.externalProductID},
		},
		Period: ChargePeriod{
			Start: types.FormatChargeTimestamp(types.StartOfDay(p.StartDate)),
			End:   types.FormatChargeTimestamp(types.EndOfDay(p.EndDate)),
		},
		Price:    ChargePrice{UnitPP: price, PPx1: price},
		Quantity: 1,
		Description: ChargeDescription{
			Value1: p.DatasourceName,
			Value2: p.Description,
		},
		Segment: chargeSegment,
	}
}

// VendorExternalID numbers the charges of one datasource: the base charge is 01,
// refunds follow from 02.
func VendorExternalID(linkedDatasourceID string, seq int) string {
	return fmt.Sprintf("%s-%02d", linkedDatasourceID, seq)
}

// ChargesWriter appends charge lines to a line-delimited JSON stream
type ChargesWriter struct {
	w     *bufio.Writer
	lines int
}

func NewChargesWriter(w io.Writer) *ChargesWriter {
	return &ChargesWriter{w: bufio.NewWriter(w)}
}

func (cw *ChargesWriter) Write(lines ...*ChargeLine) error {
	for _, line := range lines {
		data, err := types.JSON.Marshal(line)
		if err != nil {
			return ierr.WithError(err).
				WithHint("Failed to encode charge line").
				Mark(ierr.ErrSystem)
		}
		if _, err := cw.w.Write(append(data, '\n')); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to write charge line").
				Mark(ierr.ErrSystem)
		}
		cw.lines++
	}
	return nil
}

// Lines is the number of lines written so far
func (cw *ChargesWriter) Lines() int {
	return cw.lines
}

func (cw *ChargesWriter) Flush() error {
	if err := cw.w.Flush(); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to flush charges file").
			Mark(ierr.ErrSystem)
	}
	return nil
}
