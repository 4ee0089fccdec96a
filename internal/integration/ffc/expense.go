package ffc

import (
	"context"

	"github.com/finops/ffc-billing/internal/domain/expense"
	"github.com/finops/ffc-billing/internal/integration/base"
	"github.com/finops/ffc-billing/internal/types"
)

type expenseRepository struct {
	client *Client
}

func NewExpenseRepository(client *Client) expense.Repository {
	return &expenseRepository{client: client}
}

func (r *expenseRepository) ListDaily(ctx context.Context, organizationID string, period types.BillingPeriod) ([]*expense.DailyExpense, error) {
	query := base.Query(
		base.And(
			base.Eq("organization.id", organizationID),
			base.Eq("year", period.Year()),
			base.Eq("month", int(period.Month())),
		),
		base.OrderBy("linked_datasource_id"),
	)
	return collection[expense.DailyExpense](r.client, "/expenses", query).All(ctx)
}
