package service

import (
	"context"

	"github.com/finops/ffc-billing/internal/cache"
	"github.com/finops/ffc-billing/internal/domain/billing"
	"github.com/finops/ffc-billing/internal/domain/exchangerate"
	"github.com/finops/ffc-billing/internal/domain/organization"
	ierr "github.com/finops/ffc-billing/internal/errors"
	"github.com/finops/ffc-billing/internal/logger"
	"github.com/finops/ffc-billing/internal/types"
)

// CurrencyResolver decides how an organization's expenses are converted to its billing currency.
// Rate tables are fetched at most once per base currency and kept for the resolver's lifetime,
// which is the lifetime of one authorization processor.
type CurrencyResolver struct {
	client exchangerate.Client
	cache  cache.Cache
	logger *logger.Logger
	tables []*exchangerate.RateTable
}

func NewCurrencyResolver(client exchangerate.Client, logger *logger.Logger) *CurrencyResolver {
	return &CurrencyResolver{
		client: client,
		cache:  cache.NewInMemoryCache(0),
		logger: logger,
	}
}

// Resolve returns the identity conversion without any lookup when both currencies match.
func (r *CurrencyResolver) Resolve(ctx context.Context, org *organization.Organization) (*billing.CurrencyConversion, error) {
	if !org.NeedsConversion() {
		r.logger.Debugw("organization doesn't need currency conversion",
			"organization_id", org.ID,
			"currency", org.Currency)
		return billing.IdentityConversion(org.Currency), nil
	}

	table, err := r.rateTable(ctx, org.Currency)
	if err != nil {
		return nil, err
	}

	rate, ok := table.Rate(org.BillingCurrency)
	if !ok {
		return nil, ierr.NewErrorf("no %s rate in the %s exchange rates", org.BillingCurrency, org.Currency).
			WithHintf("Cannot convert expenses of organization %s", org.ID).
			Mark(ierr.ErrExchangeRates)
	}

	return &billing.CurrencyConversion{
		BaseCurrency:    org.Currency,
		BillingCurrency: org.BillingCurrency,
		Rate:            types.Quantize(rate),
		Rates:           table,
	}, nil
}

// RateTables returns the tables used so far, in the order they were first needed
func (r *CurrencyResolver) RateTables() []*exchangerate.RateTable {
	return append([]*exchangerate.RateTable(nil), r.tables...)
}

func (r *CurrencyResolver) rateTable(ctx context.Context, base string) (*exchangerate.RateTable, error) {
	key := cache.GenerateKey(cache.PrefixExchangeRates, base)
	if cached, ok := r.cache.Get(ctx, key); ok {
		return cached.(*exchangerate.RateTable), nil
	}

	table, err := r.client.Latest(ctx, base)
	if err != nil {
		r.logger.Errorw("failed to fetch exchange rates", "base", base, "error", err)
		if ierr.IsExchangeRates(err) {
			return nil, err
		}
		return nil, ierr.WithError(err).
			WithHintf("Failed to fetch exchange rates for %s", base).
			Mark(ierr.ErrExchangeRates)
	}

	r.cache.Set(ctx, key, table, 0)
	r.tables = append(r.tables, table)
	return table, nil
}
