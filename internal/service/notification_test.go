package service

import (
	"strings"
	"testing"
	"time"

	"github.com/finops/ffc-billing/internal/domain/billing"
	"github.com/finops/ffc-billing/internal/testutil"
	"github.com/finops/ffc-billing/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

func TestClassifyResults(t *testing.T) {
	generated := billing.NewGeneratedResult("AUT-1", "BJO-1")
	skipped := billing.NewSkippedResult("AUT-2", "", "No charges for this authorization.")
	failed := billing.NewErrorResult("AUT-3", "", "500 - boom")

	tests := []struct {
		name      string
		results   []*billing.ProcessResultInfo
		today     int
		wantLevel types.NotificationLevel
		wantOK    bool
	}{
		{
			name:      "all generated",
			results:   []*billing.ProcessResultInfo{generated, skipped},
			today:     3,
			wantLevel: types.NotificationLevelSuccess,
			wantOK:    true,
		},
		{
			name:      "errors before cutoff",
			results:   []*billing.ProcessResultInfo{generated, failed},
			today:     4,
			wantLevel: types.NotificationLevelInProgress,
			wantOK:    true,
		},
		{
			name:      "errors on cutoff day",
			results:   []*billing.ProcessResultInfo{generated, failed},
			today:     5,
			wantLevel: types.NotificationLevelError,
			wantOK:    true,
		},
		{
			name:      "errors after cutoff without any journal",
			results:   []*billing.ProcessResultInfo{failed},
			today:     20,
			wantLevel: types.NotificationLevelError,
			wantOK:    true,
		},
		{
			name:    "only skipped",
			results: []*billing.ProcessResultInfo{skipped},
			today:   1,
		},
		{
			name:  "no results",
			today: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, ok := ClassifyResults(tt.results, tt.today, 5)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantLevel, level)
		})
	}
}

func TestBuildNotification(t *testing.T) {
	results := []*billing.ProcessResultInfo{
		billing.NewGeneratedResult("AUT-1", "BJO-1"),
		billing.NewSkippedResult("AUT-2", "", ""),
		billing.NewErrorResult("AUT-3", "BJO-3", "cannot submit the journal BJO-3 it doesn't get validated"),
	}

	t.Run("success", func(t *testing.T) {
		n := BuildNotification(types.NotificationLevelSuccess, testPeriod, results[:2])

		assert.Equal(t, types.NotificationLevelSuccess, n.Level)
		assert.Equal(t, "June 2025 Billing Finalized.", n.Title)
		assert.Equal(t, "Journals for the June 2025 billing cycle have been successfully generated. "+
			"The following journal objects were created:", n.Text)
		assert.Equal(t, []string{"Authorization", "Journal"}, n.Details.Header)
		assert.Equal(t, [][]string{{"AUT-1", "BJO-1"}, {"AUT-2", "-"}}, n.Details.Rows)
	})

	t.Run("in progress", func(t *testing.T) {
		n := BuildNotification(types.NotificationLevelInProgress, testPeriod, results)

		assert.Equal(t, "Journals for the June-2025 billing cycle are in progress.", n.Title)
		assert.Equal(t, "Journals for the June-2025 billing cycle are in progress. Current status:", n.Text)
		assert.Equal(t, []string{"Authorization", "Journal", "Status", "Message"}, n.Details.Header)
		assert.Equal(t, []string{"AUT-2", "-", "JOURNAL_SKIPPED", "-"}, n.Details.Rows[1])
	})

	t.Run("error", func(t *testing.T) {
		n := BuildNotification(types.NotificationLevelError, testPeriod, results)

		assert.Equal(t, "The billing process for June-2025 was completed with Errors.", n.Title)
		assert.Equal(t, "The generation of some journals for the June 2025 billing cycle failed:", n.Text)
		assert.Len(t, n.Details.Rows, 3)
		assert.Equal(t, []string{
			"AUT-3",
			"BJO-3",
			"ERROR",
			"cannot submit the journal BJO-3 it doesn't get validated",
		}, n.Details.Rows[2])
		assert.Equal(t, "JOURNAL_GENERATED", n.Details.Rows[0][2])
	})
}

func TestWrapMessage(t *testing.T) {
	msg := strings.TrimSpace(strings.Repeat("upstream ", 30))

	wrapped := wrapMessage(msg)

	parts := strings.Split(wrapped, "\n\n")
	assert.Greater(t, len(parts), 1)
	for _, part := range parts {
		assert.LessOrEqual(t, len(part), messageWidth)
	}
	assert.Equal(t, msg, strings.Join(parts, " "))
	assert.Equal(t, "short message", wrapMessage("short message"))
}

type NotificationServiceSuite struct {
	testutil.BaseServiceTestSuite
	service *notificationService
	today   time.Time
}

func TestNotificationService(t *testing.T) {
	suite.Run(t, new(NotificationServiceSuite))
}

func (s *NotificationServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.today = time.Date(2025, time.July, 3, 9, 0, 0, 0, time.UTC)
	s.service = &notificationService{
		ServiceParams: newTestParams(&s.BaseServiceTestSuite),
		now:           func() time.Time { return s.today },
	}
}

func (s *NotificationServiceSuite) TestSendsSuccess() {
	results := []*billing.ProcessResultInfo{billing.NewGeneratedResult("AUT-1", "BJO-1")}

	n, err := s.service.Notify(s.GetContext(), testPeriod, 5, results)

	s.Require().NoError(err)
	s.Require().NotNil(n)
	s.Equal(types.NotificationLevelSuccess, n.Level)
	sent := s.GetStores().Notifier.Sent()
	s.Require().Len(sent, 1)
	s.Equal(n, sent[0])
}

func (s *NotificationServiceSuite) TestErrorsBeforeCutoffAreInProgress() {
	results := []*billing.ProcessResultInfo{billing.NewErrorResult("AUT-1", "", "500 - boom")}

	n, err := s.service.Notify(s.GetContext(), testPeriod, 5, results)

	s.Require().NoError(err)
	s.Equal(types.NotificationLevelInProgress, n.Level)
	s.Len(s.GetStores().Notifier.Sent(), 1)
}

func (s *NotificationServiceSuite) TestErrorsAfterCutoff() {
	s.today = time.Date(2025, time.July, 6, 9, 0, 0, 0, time.UTC)
	results := []*billing.ProcessResultInfo{billing.NewErrorResult("AUT-1", "", "500 - boom")}

	n, err := s.service.Notify(s.GetContext(), testPeriod, 5, results)

	s.Require().NoError(err)
	s.Equal(types.NotificationLevelError, n.Level)
}

func (s *NotificationServiceSuite) TestNothingToNotify() {
	results := []*billing.ProcessResultInfo{billing.NewSkippedResult("AUT-1", "BJO-1", "")}

	n, err := s.service.Notify(s.GetContext(), testPeriod, 5, results)

	s.Require().NoError(err)
	s.Nil(n)
	s.Empty(s.GetStores().Notifier.Sent())
}
