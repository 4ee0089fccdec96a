package organization

import "context"

// Organization is a metered account of the cost-management product.
type Organization struct {
	ID                   string `json:"id" validate:"required"`
	Name                 string `json:"name"`
	Currency             string `json:"currency" validate:"required"`
	BillingCurrency      string `json:"billing_currency" validate:"required"`
	OperationsExternalID string `json:"operations_external_id"`
}

// NeedsConversion reports whether expenses are recorded in another currency than the one billed.
func (o *Organization) NeedsConversion() bool {
	return o.Currency != o.BillingCurrency
}

// Repository reads organizations from the FinOps registry
type Repository interface {
	ListByBillingCurrency(ctx context.Context, currency string) ([]*Organization, error)
}
