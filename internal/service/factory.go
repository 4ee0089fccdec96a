package service

import (
	"github.com/finops/ffc-billing/internal/config"
	"github.com/finops/ffc-billing/internal/domain/agreement"
	"github.com/finops/ffc-billing/internal/domain/authorization"
	"github.com/finops/ffc-billing/internal/domain/entitlement"
	"github.com/finops/ffc-billing/internal/domain/exchangerate"
	"github.com/finops/ffc-billing/internal/domain/expense"
	"github.com/finops/ffc-billing/internal/domain/journal"
	"github.com/finops/ffc-billing/internal/domain/notification"
	"github.com/finops/ffc-billing/internal/domain/organization"
	"github.com/finops/ffc-billing/internal/logger"
	"github.com/finops/ffc-billing/internal/metrics"
	"github.com/finops/ffc-billing/internal/sentry"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger  *logger.Logger
	Config  *config.Configuration
	Sentry  *sentry.Service
	Metrics *metrics.Metrics

	// Marketplace
	AuthorizationRepo authorization.Repository
	AgreementRepo     agreement.Repository
	JournalRepo       journal.Repository

	// FinOps registry
	OrganizationRepo organization.Repository
	ExpenseRepo      expense.Repository
	EntitlementRepo  entitlement.Repository

	ExchangeRates exchangerate.Client
	Notifier      notification.Sender
}

// NewServiceParams creates a new ServiceParams instance
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	sentry *sentry.Service,
	metrics *metrics.Metrics,
	authorizationRepo authorization.Repository,
	agreementRepo agreement.Repository,
	journalRepo journal.Repository,
	organizationRepo organization.Repository,
	expenseRepo expense.Repository,
	entitlementRepo entitlement.Repository,
	exchangeRates exchangerate.Client,
	notifier notification.Sender,
) ServiceParams {
	return ServiceParams{
		Logger:            logger,
		Config:            config,
		Sentry:            sentry,
		Metrics:           metrics,
		AuthorizationRepo: authorizationRepo,
		AgreementRepo:     agreementRepo,
		JournalRepo:       journalRepo,
		OrganizationRepo:  organizationRepo,
		ExpenseRepo:       expenseRepo,
		EntitlementRepo:   entitlementRepo,
		ExchangeRates:     exchangeRates,
		Notifier:          notifier,
	}
}
