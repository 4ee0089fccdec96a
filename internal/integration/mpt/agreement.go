package mpt

import (
	"context"

	"github.com/finops/ffc-billing/internal/domain/agreement"
	"github.com/finops/ffc-billing/internal/integration/base"
	"github.com/finops/ffc-billing/internal/types"
)

type agreementRepository struct {
	client *Client
}

func NewAgreementRepository(client *Client) agreement.Repository {
	return &agreementRepository{client: client}
}

// CountActive only asks for the total, no page is transferred
func (r *agreementRepository) CountActive(ctx context.Context, authorizationID string, period types.BillingPeriod) (int, error) {
	start, end := base.Time(period.Start), base.Time(period.End)
	rql := base.Or(
		base.And(
			base.Eq("authorization.id", authorizationID),
			base.Eq("status", "Active"),
			base.Le("audit.active.at", end),
		),
		base.And(
			base.Eq("authorization.id", authorizationID),
			base.Eq("status", "Terminated"),
			base.Le("audit.terminated.at", end),
			base.Ge("audit.terminated.at", start),
		),
	)

	page, err := r.client.getPage(ctx, "/commerce/agreements?"+base.Query(rql, "limit=0"))
	if err != nil {
		return 0, err
	}
	return page.Total, nil
}

func (r *agreementRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*agreement.Agreement, error) {
	query := base.Query(base.Eq("externalIds.vendor", organizationID), base.Select("parameters"))
	return collection[agreement.Agreement](r.client, "/commerce/agreements", query).All(ctx)
}
