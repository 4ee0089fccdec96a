package service

import (
	"context"
	"sort"
	"time"

	"github.com/finops/ffc-billing/internal/domain/authorization"
	"github.com/finops/ffc-billing/internal/domain/billing"
	"github.com/finops/ffc-billing/internal/domain/notification"
	"github.com/finops/ffc-billing/internal/types"
	"github.com/finops/ffc-billing/internal/validator"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/semaphore"
)

// RunRequest selects what a billing run processes
type RunRequest struct {
	Year  int        `validate:"min=2000,max=9999"`
	Month time.Month `validate:"min=1,max=12"`
	// AuthorizationID restricts the run to one authorization, all of the product when empty
	AuthorizationID string
	DryRun          bool
	CutoffDay       int `validate:"min=1,max=28"`
}

// RunSummary is the outcome of a billing run
type RunSummary struct {
	RunID        string
	Period       types.BillingPeriod
	Results      []*billing.ProcessResultInfo
	Notification *notification.Notification
}

// BillingRunService drives the billing of a period over every authorization
type BillingRunService interface {
	Run(ctx context.Context, req RunRequest) (*RunSummary, error)
}

type billingRunService struct {
	ServiceParams
	notifications NotificationService
	sleep         SleepFunc
}

func NewBillingRunService(params ServiceParams, notifications NotificationService) BillingRunService {
	return &billingRunService{
		ServiceParams: params,
		notifications: notifications,
	}
}

// Run processes the authorizations concurrently, bounded by billing.max_concurrency.
// Failures of single authorizations are part of the summary, only a failure to
// list the authorizations fails the run.
func (s *billingRunService) Run(ctx context.Context, req RunRequest) (*RunSummary, error) {
	if err := validator.ValidateRequest(&req); err != nil {
		return nil, err
	}

	period := types.NewBillingPeriod(req.Year, req.Month)
	runID := types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_RUN)
	log := s.Logger.With("run_id", runID, "billing_period", period.String())

	auths, err := s.authorizations(ctx, req.AuthorizationID)
	if err != nil {
		return nil, err
	}
	log.Infow("processing authorizations",
		"count", len(auths),
		"product_id", s.Config.Billing.ProductID,
		"dry_run", req.DryRun)

	sem := semaphore.NewWeighted(int64(s.Config.Billing.MaxConcurrency))
	tasks := pool.NewWithResults[*billing.ProcessResultInfo]()
	for _, auth := range auths {
		processor := NewAuthorizationProcessor(s.ServiceParams, auth, period, ProcessorOptions{
			DryRun:    req.DryRun,
			Semaphore: sem,
			Sleep:     s.sleep,
			RunID:     runID,
		})
		tasks.Go(func() *billing.ProcessResultInfo {
			return processor.Process(ctx)
		})
	}

	results := tasks.Wait()
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].AuthorizationID < results[j].AuthorizationID
	})

	summary := &RunSummary{RunID: runID, Period: period, Results: results}

	summary.Notification, err = s.notifications.Notify(ctx, period, req.CutoffDay, results)
	if err != nil {
		log.Errorw("failed to send billing notification", "error", err)
	}

	if err := s.Metrics.Push(ctx); err != nil {
		log.Warnw("failed to push billing metrics", "error", err)
	}

	return summary, nil
}

func (s *billingRunService) authorizations(ctx context.Context, id string) ([]*authorization.Authorization, error) {
	if id != "" {
		auth, err := s.AuthorizationRepo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return []*authorization.Authorization{auth}, nil
	}
	return s.AuthorizationRepo.List(ctx, s.Config.Billing.ProductID)
}
