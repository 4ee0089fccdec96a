package testutil

import (
	"context"
	"time"

	"github.com/finops/ffc-billing/internal/config"
	"github.com/finops/ffc-billing/internal/logger"
	"github.com/finops/ffc-billing/internal/metrics"
	"github.com/finops/ffc-billing/internal/sentry"
	"github.com/finops/ffc-billing/internal/validator"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the collaborator fakes used by service tests
type Stores struct {
	AuthorizationRepo *InMemoryAuthorizationStore
	AgreementRepo     *InMemoryAgreementStore
	JournalRepo       *InMemoryJournalStore
	OrganizationRepo  *InMemoryOrganizationStore
	ExpenseRepo       *InMemoryExpenseStore
	EntitlementRepo   *InMemoryEntitlementStore
	ExchangeRates     *MockExchangeRates
	Notifier          *RecordingNotifier
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	stores  Stores
	logger  *logger.Logger
	config  *config.Configuration
	sentry  *sentry.Service
	metrics *metrics.Metrics
	now     time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()
	s.logger = logger.NewNopLogger()
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.config = config.GetDefaultConfig()
	s.config.Billing.ChargesDir = s.T().TempDir()
	s.sentry = sentry.NewSentryService(s.config, s.logger)
	s.metrics = metrics.NewMetrics(s.config)
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		AuthorizationRepo: NewInMemoryAuthorizationStore(),
		AgreementRepo:     NewInMemoryAgreementStore(),
		JournalRepo:       NewInMemoryJournalStore(),
		OrganizationRepo:  NewInMemoryOrganizationStore(),
		ExpenseRepo:       NewInMemoryExpenseStore(),
		EntitlementRepo:   NewInMemoryEntitlementStore(),
		ExchangeRates:     NewMockExchangeRates(),
		Notifier:          NewRecordingNotifier(),
	}
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.AuthorizationRepo.Clear()
	s.stores.AgreementRepo.Clear()
	s.stores.JournalRepo.Clear()
	s.stores.OrganizationRepo.Clear()
	s.stores.ExpenseRepo.Clear()
	s.stores.EntitlementRepo.Clear()
	s.stores.ExchangeRates.Clear()
	s.stores.Notifier.Clear()
}

func (s *BaseServiceTestSuite) ClearStores() {
	s.clearStores()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all collaborator fakes
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetSentry returns a disabled sentry service
func (s *BaseServiceTestSuite) GetSentry() *sentry.Service {
	return s.sentry
}

// GetMetrics returns the metrics of the current test
func (s *BaseServiceTestSuite) GetMetrics() *metrics.Metrics {
	return s.metrics
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now.UTC()
}
