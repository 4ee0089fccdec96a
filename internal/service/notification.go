package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/finops/ffc-billing/internal/domain/billing"
	"github.com/finops/ffc-billing/internal/domain/notification"
	"github.com/finops/ffc-billing/internal/types"
	"github.com/mitchellh/go-wordwrap"
	"github.com/samber/lo"
)

const messageWidth = 80

type notificationTexts struct {
	title string
	text  string
}

// texts are formatted with the month name and the year
var levelTexts = map[types.NotificationLevel]notificationTexts{
	types.NotificationLevelSuccess: {
		title: "%[1]s %[2]d Billing Finalized.",
		text: "Journals for the %[1]s %[2]d billing cycle have been successfully generated. " +
			"The following journal objects were created:",
	},
	types.NotificationLevelInProgress: {
		title: "Journals for the %[1]s-%[2]d billing cycle are in progress.",
		text:  "Journals for the %[1]s-%[2]d billing cycle are in progress. Current status:",
	},
	types.NotificationLevelError: {
		title: "The billing process for %[1]s-%[2]d was completed with Errors.",
		text:  "The generation of some journals for the %[1]s %[2]d billing cycle failed:",
	},
}

// NotificationService reports the outcome of a billing run to operators
type NotificationService interface {
	// Notify sends the run summary and returns it, or nil when there is nothing to report
	Notify(ctx context.Context, period types.BillingPeriod, cutoffDay int, results []*billing.ProcessResultInfo) (*notification.Notification, error)
}

type notificationService struct {
	ServiceParams
	now func() time.Time
}

func NewNotificationService(params ServiceParams) NotificationService {
	return &notificationService{ServiceParams: params, now: time.Now}
}

func (s *notificationService) Notify(
	ctx context.Context,
	period types.BillingPeriod,
	cutoffDay int,
	results []*billing.ProcessResultInfo,
) (*notification.Notification, error) {
	today := s.now().Day()
	level, ok := ClassifyResults(results, today, cutoffDay)

	s.Logger.Infow("billing results",
		"billing_period", period.String(),
		"cutoff_day", cutoffDay,
		"today", today,
		"generated", countResults(results, types.ProcessResultJournalGenerated),
		"skipped", countResults(results, types.ProcessResultJournalSkipped),
		"errors", countResults(results, types.ProcessResultError))

	if !ok {
		s.Logger.Infow("nothing to notify", "billing_period", period.String())
		return nil, nil
	}

	n := BuildNotification(level, period, results)
	switch level {
	case types.NotificationLevelSuccess:
		s.Logger.Infow(n.Title)
	case types.NotificationLevelInProgress:
		s.Logger.Warnw(n.Title)
	default:
		s.Logger.Errorw(n.Title)
	}

	if err := s.Notifier.Send(ctx, n); err != nil {
		return n, err
	}
	return n, nil
}

// ClassifyResults picks the notification level of a run. ok is false when no journal
// was generated and nothing failed.
func ClassifyResults(results []*billing.ProcessResultInfo, today, cutoffDay int) (types.NotificationLevel, bool) {
	succeeded := countResults(results, types.ProcessResultJournalGenerated) > 0
	failed := countResults(results, types.ProcessResultError) > 0

	switch {
	case failed && today < cutoffDay:
		return types.NotificationLevelInProgress, true
	case failed:
		return types.NotificationLevelError, true
	case succeeded:
		return types.NotificationLevelSuccess, true
	}
	return "", false
}

// BuildNotification renders the title, text and per-authorization table of a level
func BuildNotification(level types.NotificationLevel, period types.BillingPeriod, results []*billing.ProcessResultInfo) *notification.Notification {
	texts := levelTexts[level]
	month, year := period.Month().String(), period.Year()

	details := &notification.Details{}
	if level == types.NotificationLevelSuccess {
		details.Header = []string{"Authorization", "Journal"}
		for _, r := range results {
			details.Rows = append(details.Rows, []string{r.AuthorizationID, orDash(r.JournalID)})
		}
	} else {
		details.Header = []string{"Authorization", "Journal", "Status", "Message"}
		for _, r := range results {
			details.Rows = append(details.Rows, []string{
				r.AuthorizationID,
				orDash(r.JournalID),
				r.Result.Label(),
				wrapMessage(orDash(r.Message)),
			})
		}
	}

	return &notification.Notification{
		Level:   level,
		Title:   fmt.Sprintf(texts.title, month, year),
		Text:    fmt.Sprintf(texts.text, month, year),
		Details: details,
	}
}

func countResults(results []*billing.ProcessResultInfo, want types.ProcessResult) int {
	return lo.CountBy(results, func(r *billing.ProcessResultInfo) bool {
		return r.Result == want
	})
}

func wrapMessage(msg string) string {
	return strings.Join(strings.Split(wordwrap.WrapString(msg, messageWidth), "\n"), "\n\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
