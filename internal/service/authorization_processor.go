package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/finops/ffc-billing/internal/domain/agreement"
	"github.com/finops/ffc-billing/internal/domain/authorization"
	"github.com/finops/ffc-billing/internal/domain/billing"
	"github.com/finops/ffc-billing/internal/domain/exchangerate"
	"github.com/finops/ffc-billing/internal/domain/expense"
	"github.com/finops/ffc-billing/internal/domain/journal"
	"github.com/finops/ffc-billing/internal/domain/organization"
	ierr "github.com/finops/ffc-billing/internal/errors"
	"github.com/finops/ffc-billing/internal/httpclient"
	"github.com/finops/ffc-billing/internal/logger"
	"github.com/finops/ffc-billing/internal/types"
	"github.com/samber/lo"
	"golang.org/x/sync/semaphore"
)

const (
	chargesContentType   = "application/jsonl"
	rateTableContentType = "application/json"

	skipReasonAgreementCount     = "agreement_count"
	skipReasonOtherAuthorization = "other_authorization"
)

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// ProcessorOptions tunes one authorization run
type ProcessorOptions struct {
	// DryRun generates the charges file but never changes the ledger
	DryRun bool
	// Semaphore bounds concurrent runs, nil means unbounded
	Semaphore *semaphore.Weighted
	// Sleep is used between validation polls, defaults to a context-aware timer
	Sleep SleepFunc
	// RunID correlates the logs of one billing run
	RunID string
}

// InvalidOrganization is an organization left out of the charges file because
// it does not have exactly one agreement.
type InvalidOrganization struct {
	Organization *organization.Organization
	Agreements   []*agreement.Agreement
}

// AuthorizationProcessor runs the billing of one authorization for one period.
// All its steps run sequentially once the semaphore slot is held.
type AuthorizationProcessor struct {
	ServiceParams
	authorization *authorization.Authorization
	period        types.BillingPeriod
	opts          ProcessorOptions
	resolver      *CurrencyResolver
	generator     *ChargeGenerator
	logger        *logger.Logger

	invalidOrganizations []InvalidOrganization
}

func NewAuthorizationProcessor(
	params ServiceParams,
	auth *authorization.Authorization,
	period types.BillingPeriod,
	opts ProcessorOptions,
) *AuthorizationProcessor {
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}

	log := params.Logger.With(
		"authorization_id", auth.ID,
		"billing_period", period.String(),
		"run_id", opts.RunID,
		"dry_run", opts.DryRun,
	)
	resolver := NewCurrencyResolver(params.ExchangeRates, log)

	return &AuthorizationProcessor{
		ServiceParams: params,
		authorization: auth,
		period:        period,
		opts:          opts,
		resolver:      resolver,
		generator: NewChargeGenerator(
			period,
			params.Config.Billing.ExternalProductID,
			params.EntitlementRepo,
			resolver,
			log,
		),
		logger: log,
	}
}

// InvalidOrganizations lists the organizations skipped for a wrong number of agreements
func (p *AuthorizationProcessor) InvalidOrganizations() []InvalidOrganization {
	return p.invalidOrganizations
}

// Process never fails: every error, panics included, becomes an ERROR result.
func (p *AuthorizationProcessor) Process(ctx context.Context) (result *billing.ProcessResultInfo) {
	if p.opts.Semaphore != nil {
		if err := p.opts.Semaphore.Acquire(ctx, 1); err != nil {
			return p.resultFromError(ierr.WithError(err).
				WithHint("Cancelled while waiting for a processing slot").
				Mark(ierr.ErrSystem))
		}
		defer p.opts.Semaphore.Release(1)
	}

	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.setState(types.ProcessStateFailed)
			p.logger.Errorw("authorization processing panicked", "panic", r, "stack", string(debug.Stack()))
			p.Sentry.CaptureException(fmt.Errorf("panic: %v", r), p.sentryTags(""))
			result = billing.NewErrorResult(p.authorization.ID, "", fmt.Sprint(r))
		}
		p.Metrics.ObserveResult(result.Result, time.Since(started))
		p.logger.Infow("authorization processed",
			"result", result.Result,
			"journal_id", result.JournalID,
			"message", result.Message,
			"invalid_organizations", lo.Map(p.invalidOrganizations, func(o InvalidOrganization, _ int) string {
				return o.Organization.ID
			}),
			"elapsed", time.Since(started))
	}()

	res, err := p.run(ctx)
	if err != nil {
		return p.resultFromError(err)
	}
	return res
}

func (p *AuthorizationProcessor) run(ctx context.Context) (*billing.ProcessResultInfo, error) {
	authID := p.authorization.ID
	p.setState(types.ProcessStateStart)

	p.setState(types.ProcessStateCheckActiveAgreements)
	count, err := p.AgreementRepo.CountActive(ctx, authID, p.period)
	if err != nil {
		return nil, err
	}
	p.logger.Infow("active agreements found", "count", count)
	if count == 0 {
		p.setState(types.ProcessStateSkip)
		return billing.NewSkippedResult(authID, "",
			fmt.Sprintf("No active agreement for authorization %s", authID)), nil
	}

	var existing *journal.Journal
	if !p.opts.DryRun {
		p.setState(types.ProcessStateCheckExistingJournal)
		existing, err = p.evaluateJournal(ctx)
		if err != nil {
			return nil, err
		}
	}

	if existing != nil {
		switch existing.Status {
		case types.JournalStatusValidated:
			p.setState(types.ProcessStateJournalAlreadyValidated)
			if err := p.JournalRepo.Submit(ctx, existing.ID); err != nil {
				return nil, err
			}
			return billing.NewGeneratedResult(authID, existing.ID), nil
		case types.JournalStatusDraft:
		default:
			p.setState(types.ProcessStateJournalExistsNonDraft)
			return billing.NewSkippedResult(authID, existing.ID, ""), nil
		}
	}

	p.setState(types.ProcessStateGenerateCharges)
	path, err := p.chargesFilePath()
	if err != nil {
		return nil, err
	}
	if !p.opts.DryRun {
		defer p.removeChargesFile(path)
	}

	p.logger.Infow("generating charges file", "path", path, "currency", p.authorization.Currency)
	lines, err := p.writeChargesFile(ctx, path)
	if err != nil {
		return nil, err
	}
	if lines == 0 {
		p.setState(types.ProcessStateNoCharges)
		return billing.NewSkippedResult(authID, "", "No charges for this authorization."), nil
	}
	p.Metrics.AddChargeLines(lines)

	if p.opts.DryRun {
		p.logger.Infow("dry run, charges file kept", "path", path, "lines", lines)
		return billing.NewGeneratedResult(authID, "-"), nil
	}

	p.setState(types.ProcessStateUploadAndValidate)
	j, err := p.completeJournal(ctx, path, existing)
	if err != nil {
		return nil, err
	}
	return billing.NewGeneratedResult(authID, j.ID), nil
}

// evaluateJournal returns nil when the period has no journal yet
func (p *AuthorizationProcessor) evaluateJournal(ctx context.Context) (*journal.Journal, error) {
	externalID := p.period.JournalExternalID()
	j, err := p.JournalRepo.GetByExternalID(ctx, p.authorization.ID, externalID)
	if err != nil {
		if ierr.IsNotFound(err) {
			p.logger.Infow("no journal found", "external_id", externalID)
			return nil, nil
		}
		return nil, err
	}

	if !j.Status.IsKnown() {
		msg := fmt.Sprintf("Found the journal %s with status %s", j.ID, j.Status)
		p.logger.Errorw(msg)
		return nil, ierr.NewJournalStatusError(msg, j.ID)
	}

	p.logger.Infow("journal already exists", "journal_id", j.ID, "status", j.Status)
	return j, nil
}

func (p *AuthorizationProcessor) chargesFilePath() (string, error) {
	name := fmt.Sprintf("charges_%s_%d_%02d.jsonl", p.authorization.ID, p.period.Year(), int(p.period.Month()))
	if !p.opts.DryRun {
		return filepath.Join(os.TempDir(), name), nil
	}

	dir := p.Config.Billing.ChargesDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", ierr.WithError(err).
				WithHint("Cannot resolve the working directory for the charges file").
				Mark(ierr.ErrSystem)
		}
		dir = wd
	}
	return filepath.Join(dir, name), nil
}

func (p *AuthorizationProcessor) removeChargesFile(path string) {
	err := os.Remove(path)
	switch {
	case err == nil:
		p.logger.Debugw("charges file removed", "path", path)
	case os.IsNotExist(err):
		p.logger.Debugw("charges file not found during cleanup, ignoring", "path", path)
	default:
		p.logger.Warnw("failed to cleanup charges file", "path", path, "error", err)
	}
}

// writeChargesFile returns the number of lines written
func (p *AuthorizationProcessor) writeChargesFile(ctx context.Context, path string) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHintf("Failed to create charges file %s", path).
			Mark(ierr.ErrSystem)
	}
	defer f.Close()

	orgs, err := p.OrganizationRepo.ListByBillingCurrency(ctx, p.authorization.Currency)
	if err != nil {
		return 0, err
	}

	w := billing.NewChargesWriter(f)
	for _, org := range orgs {
		lines, err := p.organizationCharges(ctx, org)
		if err != nil {
			return 0, err
		}
		if err := w.Write(lines...); err != nil {
			return 0, err
		}
	}
	if err := w.Flush(); err != nil {
		return 0, err
	}
	return w.Lines(), nil
}

func (p *AuthorizationProcessor) organizationCharges(ctx context.Context, org *organization.Organization) ([]*billing.ChargeLine, error) {
	log := p.logger.With("organization_id", org.ID)
	log.Infow("processing organization", "name", org.Name, "agreement_id", org.OperationsExternalID)

	if org.OperationsExternalID == p.Config.Billing.SentinelAgreementID {
		log.Infow("skipping placeholder organization", "agreement_id", org.OperationsExternalID)
		return nil, nil
	}

	agreements, err := p.AgreementRepo.ListByOrganization(ctx, org.ID)
	if err != nil {
		return nil, err
	}
	if len(agreements) != 1 {
		log.Warnw("unexpected number of agreements, expected 1", "count", len(agreements))
		p.invalidOrganizations = append(p.invalidOrganizations, InvalidOrganization{
			Organization: org,
			Agreements:   agreements,
		})
		p.Metrics.IncOrganizationSkipped(skipReasonAgreementCount)
		return nil, nil
	}

	agr := agreements[0]
	if agr.Authorization.ID != p.authorization.ID {
		log.Infow("skipping organization, its agreement belongs to another authorization",
			"agreement_id", agr.ID,
			"other_authorization_id", agr.Authorization.ID)
		p.Metrics.IncOrganizationSkipped(skipReasonOtherAuthorization)
		return nil, nil
	}

	pct, err := agr.BilledPercentage(p.Config.Billing.BilledPercentage())
	if err != nil {
		return nil, ierr.WithError(err).
			WithMessagef("organization %s", org.ID).
			Mark(ierr.ErrValidation)
	}
	trial, err := agr.TrialPeriod()
	if err != nil {
		return nil, ierr.WithError(err).
			WithMessagef("organization %s", org.ID).
			Mark(ierr.ErrValidation)
	}
	var trialWindow *billing.TrialWindow
	if trial != nil {
		trialWindow = &billing.TrialWindow{Start: trial.Start, End: trial.End}
	}

	expenses, err := p.ExpenseRepo.ListDaily(ctx, org.ID, p.period)
	if err != nil {
		return nil, err
	}

	var lines []*billing.ChargeLine
	for _, group := range expense.GroupByDatasource(expenses) {
		daily := billing.NewDailyExpenses(group.Expenses)
		log.Debugw("expenses for datasource",
			"linked_datasource_id", group.Datasource.LinkedDatasourceID,
			"days", len(daily))

		charges, err := p.generator.Generate(ctx, DatasourceExpenses{
			Organization: org,
			Datasource:   group.Datasource,
			Daily:        daily,
			Percentage:   pct,
			Trial:        trialWindow,
		})
		if err != nil {
			return nil, err
		}
		lines = append(lines, charges...)
	}
	return lines, nil
}

// completeJournal creates the journal when missing, attaches the rate tables, uploads
// the charges and submits the journal once the ledger has validated it.
func (p *AuthorizationProcessor) completeJournal(ctx context.Context, path string, existing *journal.Journal) (*journal.Journal, error) {
	j := existing
	if j == nil {
		dueDate := p.period.JournalDueDate()
		created, err := p.JournalRepo.Create(ctx, &journal.Journal{
			Name:          p.period.JournalName(),
			ExternalIDs:   journal.ExternalIDs{Vendor: p.period.JournalExternalID()},
			Authorization: journal.Reference{ID: p.authorization.ID},
			DueDate:       &dueDate,
		})
		if err != nil {
			return nil, err
		}
		p.logger.Infow("new journal created", "journal_id", created.ID)
		j = created
	}

	for _, table := range p.resolver.RateTables() {
		if err := p.attachExchangeRates(ctx, j.ID, table); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Failed to read charges file %s", path).
			Mark(ierr.ErrSystem)
	}
	err = p.JournalRepo.UploadCharges(ctx, j.ID, &journal.File{
		Name:        filepath.Base(path),
		ContentType: chargesContentType,
		Data:        data,
	})
	if err != nil {
		return nil, err
	}

	validated, err := p.waitForValidation(ctx, j.ID)
	if err != nil {
		return nil, err
	}
	if !validated {
		p.setState(types.ProcessStateValidationTimeout)
		msg := fmt.Sprintf("cannot submit the journal %s it doesn't get validated", j.ID)
		p.logger.Infow(msg)
		return nil, ierr.NewJournalSubmitError(msg, j.ID)
	}

	p.setState(types.ProcessStateValidated)
	p.logger.Infow("submitting the journal", "journal_id", j.ID)
	if err := p.JournalRepo.Submit(ctx, j.ID); err != nil {
		return nil, err
	}
	return j, nil
}

// attachExchangeRates keeps one attachment per base currency, named after the hash of
// the table so an unchanged table is never uploaded twice.
func (p *AuthorizationProcessor) attachExchangeRates(ctx context.Context, journalID string, table *exchangerate.RateTable) error {
	sum := sha256.Sum256(table.Document)
	prefix := table.Base + "_"
	name := prefix + hex.EncodeToString(sum[:])

	current, err := p.JournalRepo.FindAttachment(ctx, journalID, prefix)
	switch {
	case err == nil:
		if current.Name == name {
			p.logger.Debugw("exchange rates already attached", "attachment", name)
			return nil
		}
		if err := p.JournalRepo.DeleteAttachment(ctx, journalID, current.ID); err != nil {
			return err
		}
	case !ierr.IsNotFound(err):
		return err
	}

	_, err = p.JournalRepo.CreateAttachment(ctx, journalID,
		&journal.Attachment{Name: name, Description: journal.AttachmentDescription},
		&journal.File{Name: name + ".json", ContentType: rateTableContentType, Data: table.Document},
	)
	return err
}

// waitForValidation polls the journal once per delay of the configured schedule,
// sleeping for the delay after every check that does not find it validated.
func (p *AuthorizationProcessor) waitForValidation(ctx context.Context, journalID string) (bool, error) {
	b := backoff.WithContext(newScheduleBackOff(p.Config.Billing.ValidationBackoff), ctx)

	for attempt := 1; ; attempt++ {
		wait := b.NextBackOff()
		if wait == backoff.Stop {
			return false, nil
		}

		j, err := p.JournalRepo.Get(ctx, journalID)
		if err != nil {
			return false, err
		}
		if j.Status == types.JournalStatusValidated {
			return true, nil
		}
		p.logger.Debugw("journal not validated yet", "journal_id", journalID, "attempt", attempt, "status", j.Status)

		if err := p.opts.Sleep(ctx, wait); err != nil {
			return false, err
		}
	}
}

func (p *AuthorizationProcessor) resultFromError(err error) *billing.ProcessResultInfo {
	authID := p.authorization.ID
	journalID, _ := ierr.JournalIDFromErr(err)

	if ierr.IsJournalStatus(err) {
		p.logger.Warnw("journal cannot be processed", "journal_id", journalID, "error", err)
		return billing.NewSkippedResult(authID, journalID, err.Error())
	}

	p.setState(types.ProcessStateFailed)
	switch httpErr, isHTTP := httpclient.IsHTTPError(err); {
	case ierr.IsJournalSubmit(err):
		p.logger.Warnw("journal was not submitted", "journal_id", journalID, "error", err)
	case isHTTP:
		p.logger.Errorw("upstream request failed",
			"status", httpErr.StatusCode,
			"response", string(httpErr.Response))
	default:
		p.logger.Errorw("an error occurred", "error", fmt.Sprintf("%+v", err))
	}

	p.Sentry.CaptureException(err, p.sentryTags(journalID))
	return billing.NewErrorResult(authID, journalID, err.Error())
}

func (p *AuthorizationProcessor) sentryTags(journalID string) map[string]string {
	tags := map[string]string{
		"authorization_id": p.authorization.ID,
		"billing_period":   p.period.String(),
	}
	if journalID != "" {
		tags["journal_id"] = journalID
	}
	return tags
}

func (p *AuthorizationProcessor) setState(state types.ProcessState) {
	p.logger.Infow("authorization state", "state", state)
}

// scheduleBackOff hands out a fixed list of delays, then stops
type scheduleBackOff struct {
	delays []time.Duration
	next   int
}

func newScheduleBackOff(delays []time.Duration) *scheduleBackOff {
	return &scheduleBackOff{delays: delays}
}

func (b *scheduleBackOff) NextBackOff() time.Duration {
	if b.next >= len(b.delays) {
		return backoff.Stop
	}
	d := b.delays[b.next]
	b.next++
	return d
}

func (b *scheduleBackOff) Reset() {
	b.next = 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
