package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/finops/ffc-billing/internal/domain/agreement"
	"github.com/finops/ffc-billing/internal/domain/billing"
	ierr "github.com/finops/ffc-billing/internal/errors"
	"github.com/finops/ffc-billing/internal/testutil"
	"github.com/finops/ffc-billing/internal/types"
	"github.com/stretchr/testify/suite"
)

type BillingRunSuite struct {
	testutil.BaseServiceTestSuite
	service *billingRunService
}

func TestBillingRun(t *testing.T) {
	suite.Run(t, new(BillingRunSuite))
}

func (s *BillingRunSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	params := newTestParams(&s.BaseServiceTestSuite)
	notifications := &notificationService{
		ServiceParams: params,
		now:           func() time.Time { return time.Date(2025, time.July, 10, 0, 0, 0, 0, time.UTC) },
	}
	s.service = NewBillingRunService(params, notifications).(*billingRunService)
	s.service.sleep = func(context.Context, time.Duration) error { return nil }

	st := s.GetStores()
	for i, id := range []string{"AUT-3", "AUT-1", "AUT-2"} {
		org := "ORG-" + id
		agr := "AGR-" + id
		st.AuthorizationRepo.Add(testAuthorization(id, "USD"))
		st.AgreementRepo.SetActiveCount(id, 1)
		st.OrganizationRepo.Add(testOrganization(org, "USD", "USD", agr))
		st.AgreementRepo.AddForOrganization(org, testAgreement(agr, id))
		st.ExpenseRepo.Add(flatExpenses(org, "LDS-"+id, 1, 10+i, "100")...)
	}
}

func (s *BillingRunSuite) request() RunRequest {
	return RunRequest{Year: 2025, Month: time.June, CutoffDay: 5, DryRun: true}
}

func (s *BillingRunSuite) TestRunsEveryAuthorization() {
	s.GetConfig().Billing.MaxConcurrency = 1

	summary, err := s.service.Run(s.GetContext(), s.request())

	s.Require().NoError(err)
	s.Equal("2025-06", summary.Period.String())
	s.NotEmpty(summary.RunID)
	s.Equal([]*billing.ProcessResultInfo{
		billing.NewGeneratedResult("AUT-1", "-"),
		billing.NewGeneratedResult("AUT-2", "-"),
		billing.NewGeneratedResult("AUT-3", "-"),
	}, summary.Results)

	s.Require().NotNil(summary.Notification)
	s.Equal(types.NotificationLevelSuccess, summary.Notification.Level)
	s.Equal(summary.Notification, s.GetStores().Notifier.Sent()[0])
}

func (s *BillingRunSuite) TestResultsAreSortedUnderConcurrency() {
	s.GetConfig().Billing.MaxConcurrency = 3

	summary, err := s.service.Run(s.GetContext(), s.request())

	s.Require().NoError(err)
	s.Require().Len(summary.Results, 3)
	for i, id := range []string{"AUT-1", "AUT-2", "AUT-3"} {
		s.Equal(id, summary.Results[i].AuthorizationID)
	}
}

// inFlightAgreements records how many CountActive calls overlap. Each call
// holds until the expected peak is reached, or gives up after a timeout.
type inFlightAgreements struct {
	agreement.Repository
	expectedPeak int32
	current      atomic.Int32
	peak         atomic.Int32
}

func (r *inFlightAgreements) CountActive(ctx context.Context, authorizationID string, period types.BillingPeriod) (int, error) {
	n := r.current.Add(1)
	defer r.current.Add(-1)

	for {
		peak := r.peak.Load()
		if n <= peak || r.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	deadline := time.Now().Add(500 * time.Millisecond)
	for r.peak.Load() < r.expectedPeak && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	return r.Repository.CountActive(ctx, authorizationID, period)
}

func (s *BillingRunSuite) TestConcurrencyIsBounded() {
	s.GetConfig().Billing.MaxConcurrency = 2

	st := s.GetStores()
	for _, id := range []string{"AUT-4", "AUT-5"} {
		org := "ORG-" + id
		agr := "AGR-" + id
		st.AuthorizationRepo.Add(testAuthorization(id, "USD"))
		st.AgreementRepo.SetActiveCount(id, 1)
		st.OrganizationRepo.Add(testOrganization(org, "USD", "USD", agr))
		st.AgreementRepo.AddForOrganization(org, testAgreement(agr, id))
		st.ExpenseRepo.Add(flatExpenses(org, "LDS-"+id, 1, 10, "100")...)
	}

	tracker := &inFlightAgreements{Repository: st.AgreementRepo, expectedPeak: 2}
	s.service.AgreementRepo = tracker

	summary, err := s.service.Run(s.GetContext(), s.request())

	s.Require().NoError(err)
	s.Require().Len(summary.Results, 5)
	for i, id := range []string{"AUT-1", "AUT-2", "AUT-3", "AUT-4", "AUT-5"} {
		s.Equal(billing.NewGeneratedResult(id, "-"), summary.Results[i])
	}
	s.Equal(int32(2), tracker.peak.Load())
	s.Zero(tracker.current.Load())
}

func (s *BillingRunSuite) TestSingleAuthorization() {
	req := s.request()
	req.AuthorizationID = "AUT-2"

	summary, err := s.service.Run(s.GetContext(), req)

	s.Require().NoError(err)
	s.Equal([]*billing.ProcessResultInfo{billing.NewGeneratedResult("AUT-2", "-")}, summary.Results)
	s.Len(s.GetStores().Notifier.Sent(), 1)
}

func (s *BillingRunSuite) TestUnknownAuthorization() {
	req := s.request()
	req.AuthorizationID = "AUT-404"

	_, err := s.service.Run(s.GetContext(), req)

	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))
	s.Empty(s.GetStores().Notifier.Sent())
}

func (s *BillingRunSuite) TestSubmitsJournals() {
	st := s.GetStores()
	st.JournalRepo.QueueStatuses(types.JournalStatusValidated)
	req := s.request()
	req.DryRun = false
	req.AuthorizationID = "AUT-1"

	summary, err := s.service.Run(s.GetContext(), req)

	s.Require().NoError(err)
	s.Equal([]*billing.ProcessResultInfo{billing.NewGeneratedResult("AUT-1", "BJO-0000-0001")}, summary.Results)
	s.Equal([]string{"BJO-0000-0001"}, st.JournalRepo.Submitted)
}

func (s *BillingRunSuite) TestFailuresAreReported() {
	st := s.GetStores()
	st.AgreementRepo.SetActiveCount("AUT-2", 0)
	st.OrganizationRepo.Clear()
	st.OrganizationRepo.Add(testOrganization("ORG-EUR", "EUR", "USD", "AGR-AUT-1"))
	st.AgreementRepo.AddForOrganization("ORG-EUR", testAgreement("AGR-AUT-1", "AUT-1"))
	st.ExpenseRepo.Add(flatExpenses("ORG-EUR", "LDS-EUR", 1, 3, "10")...)

	summary, err := s.service.Run(s.GetContext(), s.request())

	s.Require().NoError(err)
	s.Require().Len(summary.Results, 3)
	s.Equal(types.ProcessResultError, summary.Results[0].Result)
	s.Equal(billing.NewSkippedResult("AUT-2", "", "No active agreement for authorization AUT-2"), summary.Results[1])
	s.Equal(billing.NewSkippedResult("AUT-3", "", "No charges for this authorization."), summary.Results[2])

	s.Require().NotNil(summary.Notification)
	s.Equal(types.NotificationLevelError, summary.Notification.Level)
	s.Len(summary.Notification.Details.Rows, 3)
}

func (s *BillingRunSuite) TestNothingGeneratedSendsNothing() {
	st := s.GetStores()
	for _, id := range []string{"AUT-1", "AUT-2", "AUT-3"} {
		st.AgreementRepo.SetActiveCount(id, 0)
	}

	summary, err := s.service.Run(s.GetContext(), s.request())

	s.Require().NoError(err)
	s.Nil(summary.Notification)
	s.Empty(st.Notifier.Sent())
}

func (s *BillingRunSuite) TestInvalidRequest() {
	tests := []struct {
		name   string
		mutate func(*RunRequest)
	}{
		{name: "cutoff day too large", mutate: func(r *RunRequest) { r.CutoffDay = 29 }},
		{name: "cutoff day missing", mutate: func(r *RunRequest) { r.CutoffDay = 0 }},
		{name: "month out of range", mutate: func(r *RunRequest) { r.Month = 13 }},
		{name: "year out of range", mutate: func(r *RunRequest) { r.Year = 99 }},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			req := s.request()
			tt.mutate(&req)

			_, err := s.service.Run(s.GetContext(), req)

			s.Require().Error(err)
			s.True(ierr.IsValidation(err))
		})
	}
}
