package service

import (
	"context"
	"time"

	"github.com/finops/ffc-billing/internal/domain/billing"
	"github.com/finops/ffc-billing/internal/domain/entitlement"
	"github.com/finops/ffc-billing/internal/domain/expense"
	"github.com/finops/ffc-billing/internal/domain/organization"
	"github.com/finops/ffc-billing/internal/logger"
	"github.com/finops/ffc-billing/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// DatasourceExpenses is everything needed to bill one datasource of one organization
type DatasourceExpenses struct {
	Organization *organization.Organization
	Datasource   expense.Datasource
	Daily        billing.DailyExpenses
	// Percentage is the billed share of the expenses, 4 means 4%
	Percentage decimal.Decimal
	Trial      *billing.TrialWindow
}

// ChargeGenerator produces the charge lines of one datasource for a billing period:
// a base charge followed by one negative charge per refund.
type ChargeGenerator struct {
	period          types.BillingPeriod
	builder         *billing.ChargeLineBuilder
	refunds         *billing.RefundCalculator
	entitlementRepo entitlement.Repository
	resolver        *CurrencyResolver
	logger          *logger.Logger
}

func NewChargeGenerator(
	period types.BillingPeriod,
	externalProductID string,
	entitlementRepo entitlement.Repository,
	resolver *CurrencyResolver,
	logger *logger.Logger,
) *ChargeGenerator {
	return &ChargeGenerator{
		period:          period,
		builder:         billing.NewChargeLineBuilder(externalProductID),
		refunds:         billing.NewRefundCalculator(period),
		entitlementRepo: entitlementRepo,
		resolver:        resolver,
		logger:          logger,
	}
}

func (g *ChargeGenerator) Generate(ctx context.Context, in DatasourceExpenses) ([]*billing.ChargeLine, error) {
	if len(in.Daily) == 0 {
		return []*billing.ChargeLine{
			g.line(in, 1, g.period.StartDate(), g.period.EndDate(), decimal.Zero, billing.NoChargesDescription, false),
		}, nil
	}

	amount := in.Daily.Latest()
	source := billing.SourcePrice(amount, in.Percentage)
	start := g.period.Day(in.Daily.FirstDay())
	end := g.period.Day(in.Daily.LastDay())

	if source.IsZero() {
		return []*billing.ChargeLine{g.line(in, 1, start, end, decimal.Zero, "", false)}, nil
	}

	conversion, err := g.resolver.Resolve(ctx, in.Organization)
	if err != nil {
		return nil, err
	}
	target := conversion.Convert(source)

	g.logger.Infow("datasource base charge",
		"organization_id", in.Organization.ID,
		"linked_datasource_id", in.Datasource.LinkedDatasourceID,
		"datasource_name", in.Datasource.DatasourceName,
		"amount", amount,
		"billed_percentage", in.Percentage,
		"price_in_source_currency", source,
		"exchange_rate", conversion.Rate,
		"price_in_target_currency", target)

	refunds, err := g.datasourceRefunds(ctx, in)
	if err != nil {
		return nil, err
	}

	lines := make([]*billing.ChargeLine, 0, len(refunds)+1)
	lines = append(lines, g.line(in, 1, start, end, target, "", false))
	for i, refund := range refunds {
		price := billing.RefundPrice(refund.Amount, in.Percentage, conversion)
		lines = append(lines, g.line(in, i+2, refund.StartDate, refund.EndDate, price, refund.Description, true))
	}
	return lines, nil
}

func (g *ChargeGenerator) datasourceRefunds(ctx context.Context, in DatasourceExpenses) ([]billing.Refund, error) {
	daily := in.Daily.CarryForward(g.period.LastDay())

	ents, err := g.entitlementRepo.ListActive(ctx,
		in.Organization.ID,
		in.Datasource.DatasourceID,
		in.Datasource.LinkedDatasourceType,
		g.period)
	if err != nil {
		return nil, err
	}

	windows := lo.FilterMap(ents, func(e *entitlement.Entitlement, _ int) (billing.EntitlementWindow, bool) {
		redeemedAt, ok := e.RedeemedAt()
		if !ok {
			return billing.EntitlementWindow{}, false
		}
		return billing.EntitlementWindow{
			ID:           e.ID,
			RedeemedAt:   redeemedAt,
			TerminatedAt: e.TerminatedAt(),
		}, true
	})

	return g.refunds.Calculate(daily, in.Trial, windows), nil
}

func (g *ChargeGenerator) line(in DatasourceExpenses, seq int, start, end time.Time, price decimal.Decimal, description string, refund bool) *billing.ChargeLine {
	return g.builder.Build(billing.ChargeLineParams{
		VendorExternalID: billing.VendorExternalID(in.Datasource.LinkedDatasourceID, seq),
		DatasourceID:     in.Datasource.DatasourceID,
		DatasourceName:   in.Datasource.DatasourceName,
		OrganizationID:   in.Organization.ID,
		StartDate:        start,
		EndDate:          end,
		Price:            price,
		Description:      description,
		Refund:           refund,
	})
}
