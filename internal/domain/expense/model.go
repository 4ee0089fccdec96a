package expense

import (
	"context"

	"github.com/finops/ffc-billing/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// DailyExpense is the cumulative cost of one datasource on one day.
type DailyExpense struct {
	OrganizationID       string          `json:"organization_id"`
	Year                 int             `json:"year"`
	Month                int             `json:"month"`
	Day                  int             `json:"day" validate:"min=1,max=31"`
	LinkedDatasourceID   string          `json:"linked_datasource_id" validate:"required"`
	LinkedDatasourceType string          `json:"linked_datasource_type"`
	DatasourceID         string          `json:"datasource_id"`
	DatasourceName       string          `json:"datasource_name"`
	TotalExpenses        decimal.Decimal `json:"total_expenses"`
}

// Datasource identifies the cloud account an expense belongs to
type Datasource struct {
	LinkedDatasourceID   string
	LinkedDatasourceType string
	DatasourceID         string
	DatasourceName       string
}

func (e *DailyExpense) Datasource() Datasource {
	return Datasource{
		LinkedDatasourceID:   e.LinkedDatasourceID,
		LinkedDatasourceType: e.LinkedDatasourceType,
		DatasourceID:         e.DatasourceID,
		DatasourceName:       e.DatasourceName,
	}
}

// Group holds the expenses of one datasource
type Group struct {
	Datasource Datasource
	Expenses   []*DailyExpense
}

// GroupByDatasource groups expenses per datasource, keeping the order in which
// datasources are first seen.
func GroupByDatasource(expenses []*DailyExpense) []Group {
	keyOf := func(e *DailyExpense) Datasource { return e.Datasource() }

	order := lo.Uniq(lo.Map(expenses, func(e *DailyExpense, _ int) Datasource { return keyOf(e) }))
	grouped := lo.GroupBy(expenses, keyOf)

	return lo.Map(order, func(ds Datasource, _ int) Group {
		return Group{Datasource: ds, Expenses: grouped[ds]}
	})
}

// Repository reads expenses from the FinOps registry
type Repository interface {
	// ListDaily returns the organization's expenses of the period ordered by datasource
	ListDaily(ctx context.Context, organizationID string, period types.BillingPeriod) ([]*DailyExpense, error)
}
