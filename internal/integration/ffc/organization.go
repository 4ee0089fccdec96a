package ffc

import (
	"context"

	"github.com/finops/ffc-billing/internal/domain/organization"
	"github.com/finops/ffc-billing/internal/integration/base"
)

type organizationRepository struct {
	client *Client
}

func NewOrganizationRepository(client *Client) organization.Repository {
	return &organizationRepository{client: client}
}

func (r *organizationRepository) ListByBillingCurrency(ctx context.Context, currency string) ([]*organization.Organization, error) {
	return collection[organization.Organization](r.client, "/organizations", base.Eq("billing_currency", currency)).
		All(ctx)
}
