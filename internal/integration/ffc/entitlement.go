package ffc

import (
	"context"
	"sort"

	"github.com/finops/ffc-billing/internal/domain/entitlement"
	"github.com/finops/ffc-billing/internal/integration/base"
	"github.com/finops/ffc-billing/internal/types"
)

type entitlementRepository struct {
	client *Client
}

func NewEntitlementRepository(client *Client) entitlement.Repository {
	return &entitlementRepository{client: client}
}

func (r *entitlementRepository) ListActive(ctx context.Context, organizationID, datasourceID, datasourceType string, period types.BillingPeriod) ([]*entitlement.Entitlement, error) {
	query := base.And(
		base.Eq("datasource_id", datasourceID),
		base.Eq("events.redeemed.by.id", organizationID),
		base.Eq("linked_datasource_type", datasourceType),
		base.Lt("events.redeemed.at", base.Time(period.EndDate().AddDate(0, 0, 1))),
		base.Or(
			base.Eq("status", "active"),
			base.Gte("events.terminated.at", base.Time(period.Start)),
		),
	)

	ents, err := collection[entitlement.Entitlement](r.client, "/entitlements", query).All(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(ents, func(i, j int) bool {
		a, _ := ents[i].RedeemedAt()
		b, _ := ents[j].RedeemedAt()
		return a.Before(b)
	})
	return ents, nil
}
