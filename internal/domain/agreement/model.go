package agreement

import (
	"context"
	"strings"
	"time"

	ierr "github.com/finops/ffc-billing/internal/errors"
	"github.com/finops/ffc-billing/internal/types"
	"github.com/shopspring/decimal"
)

// Fulfillment parameters read by the billing run
const (
	ParamTrialStartDate   = "trialStartDate"
	ParamTrialEndDate     = "trialEndDate"
	ParamBilledPercentage = "billedPercentage"
)

type Reference struct {
	ID string `json:"id" validate:"required"`
}

type Parameter struct {
	ExternalID string `json:"externalId"`
	Value      string `json:"value"`
}

type Parameters struct {
	Ordering    []Parameter `json:"ordering"`
	Fulfillment []Parameter `json:"fulfillment"`
}

// Agreement links one organization to exactly one authorization.
type Agreement struct {
	ID            string     `json:"id" validate:"required"`
	Status        string     `json:"status"`
	Authorization Reference  `json:"authorization"`
	Parameters    Parameters `json:"parameters"`
}

// TrialPeriod is the closed range of calendar days an organization was on trial.
type TrialPeriod struct {
	Start time.Time
	End   time.Time
}

// FulfillmentValue returns the value of a fulfillment parameter, or "" when unset.
func (a *Agreement) FulfillmentValue(externalID string) string {
	for _, p := range a.Parameters.Fulfillment {
		if p.ExternalID == externalID && p.Value != "" {
			return strings.TrimSpace(p.Value)
		}
	}
	return ""
}

// TrialPeriod returns nil when either trial date is missing.
func (a *Agreement) TrialPeriod() (*TrialPeriod, error) {
	rawStart := a.FulfillmentValue(ParamTrialStartDate)
	rawEnd := a.FulfillmentValue(ParamTrialEndDate)
	if rawStart == "" || rawEnd == "" {
		return nil, nil
	}

	start, err := types.ParseDate(rawStart)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Agreement %s has an invalid trial start date %q", a.ID, rawStart).
			Mark(ierr.ErrValidation)
	}
	end, err := types.ParseDate(rawEnd)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Agreement %s has an invalid trial end date %q", a.ID, rawEnd).
			Mark(ierr.ErrValidation)
	}

	return &TrialPeriod{Start: start, End: end}, nil
}

// BilledPercentage returns the agreement's percentage or fallback when none is set.
func (a *Agreement) BilledPercentage(fallback decimal.Decimal) (decimal.Decimal, error) {
	raw := a.FulfillmentValue(ParamBilledPercentage)
	if raw == "" {
		return fallback, nil
	}

	pct, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, ierr.WithError(err).
			WithHintf("Agreement %s has an invalid billed percentage %q", a.ID, raw).
			Mark(ierr.ErrValidation)
	}
	return pct, nil
}

// Repository reads agreements from the marketplace
type Repository interface {
	// CountActive counts agreements of the authorization active during the period,
	// including the ones terminated within it.
	CountActive(ctx context.Context, authorizationID string, period types.BillingPeriod) (int, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]*Agreement, error)
}
