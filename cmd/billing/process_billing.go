package main

import (
	"context"
	"fmt"
	"time"

	"github.com/finops/ffc-billing/internal/config"
	ierr "github.com/finops/ffc-billing/internal/errors"
	"github.com/finops/ffc-billing/internal/httpclient"
	"github.com/finops/ffc-billing/internal/integration/exchangerates"
	"github.com/finops/ffc-billing/internal/integration/ffc"
	"github.com/finops/ffc-billing/internal/integration/mpt"
	"github.com/finops/ffc-billing/internal/integration/teams"
	"github.com/finops/ffc-billing/internal/logger"
	"github.com/finops/ffc-billing/internal/metrics"
	"github.com/finops/ffc-billing/internal/sentry"
	"github.com/finops/ffc-billing/internal/service"
	"github.com/finops/ffc-billing/internal/validator"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

const (
	minCutoffDay = 1
	maxCutoffDay = 28
)

type processBillingFlags struct {
	dryRun          bool
	authorizationID string
	year            int
	month           int
	cutoffDay       int
}

func newProcessBillingCmd() *cobra.Command {
	previous := time.Now().UTC().AddDate(0, -1, 0)
	flags := processBillingFlags{
		year:  previous.Year(),
		month: int(previous.Month()),
	}

	cmd := &cobra.Command{
		Use:   "process-billing",
		Short: "Generate the charges of a billing period and submit the journals",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("cutoff-day") {
				return checkCutoffDay(flags.cutoffDay)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcessBilling(cmd.Context(), cmd.Flags().Changed("cutoff-day"), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Write the charges files locally without touching journals")
	cmd.Flags().StringVar(&flags.authorizationID, "authorization", "", "Process only this authorization")
	cmd.Flags().IntVar(&flags.year, "year", flags.year, "Billing year, defaults to the previous month's year")
	cmd.Flags().IntVar(&flags.month, "month", flags.month, "Billing month (1-12), defaults to the previous month")
	cmd.Flags().IntVar(&flags.cutoffDay, "cutoff-day", 0, "Day of month after which failures are reported as errors (1-28)")

	return cmd
}

func checkCutoffDay(day int) error {
	if day < minCutoffDay || day > maxCutoffDay {
		return ierr.NewErrorf("invalid cutoff day %d", day).
			WithHintf("The cutoff day must be between %d and %d", minCutoffDay, maxCutoffDay).
			Mark(ierr.ErrValidation)
	}
	return nil
}

func runProcessBilling(ctx context.Context, cutoffSet bool, flags processBillingFlags) error {
	var (
		cfg     *config.Configuration
		log     *logger.Logger
		billing service.BillingRunService
	)

	app := fx.New(
		fx.NopLogger,
		fx.Provide(
			config.NewConfig,
			logger.NewLogger,
			httpclient.NewDefaultClient,
			metrics.NewMetrics,

			mpt.NewClient,
			mpt.NewAuthorizationRepository,
			mpt.NewAgreementRepository,
			mpt.NewJournalRepository,

			ffc.NewClient,
			ffc.NewOrganizationRepository,
			ffc.NewExpenseRepository,
			ffc.NewEntitlementRepository,

			exchangerates.NewClient,
			teams.NewSender,

			service.NewServiceParams,
			service.NewNotificationService,
			service.NewBillingRunService,
		),
		sentry.Module(),
		fx.Invoke(validator.NewValidator),
		fx.Populate(&cfg, &log, &billing),
	)
	if err := app.Err(); err != nil {
		return err
	}

	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.Stop(stopCtx); err != nil {
			log.Warnw("failed to stop application", "error", err)
		}
	}()

	cutoffDay := flags.cutoffDay
	if !cutoffSet {
		cutoffDay = cfg.Billing.DefaultCutoffDay
	}

	summary, err := billing.Run(ctx, service.RunRequest{
		Year:            flags.year,
		Month:           time.Month(flags.month),
		AuthorizationID: flags.authorizationID,
		DryRun:          flags.dryRun,
		CutoffDay:       cutoffDay,
	})
	if err != nil {
		log.Errorw("billing run failed", "error", fmt.Sprintf("%+v", err))
		return err
	}

	for _, r := range summary.Results {
		log.Infow("authorization result",
			"run_id", summary.RunID,
			"authorization_id", r.AuthorizationID,
			"result", r.Result.Label(),
			"journal_id", r.JournalID,
			"message", r.Message)
	}
	_ = log.Sync()
	return nil
}
