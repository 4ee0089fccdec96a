package entitlement

import (
	"context"
	"time"

	"github.com/finops/ffc-billing/internal/types"
)

type Event struct {
	At time.Time `json:"at"`
}

type Events struct {
	Redeemed   *Event `json:"redeemed,omitempty"`
	Terminated *Event `json:"terminated,omitempty"`
}

// Entitlement is a time-bounded grant of refunded usage for one datasource.
type Entitlement struct {
	ID     string `json:"id" validate:"required"`
	Status string `json:"status"`
	Events Events `json:"events"`
}

// RedeemedAt is false when the entitlement was never redeemed
func (e *Entitlement) RedeemedAt() (time.Time, bool) {
	if e.Events.Redeemed == nil || e.Events.Redeemed.At.IsZero() {
		return time.Time{}, false
	}
	return e.Events.Redeemed.At, true
}

// TerminatedAt is nil while the entitlement is still active
func (e *Entitlement) TerminatedAt() *time.Time {
	if e.Events.Terminated == nil || e.Events.Terminated.At.IsZero() {
		return nil
	}
	at := e.Events.Terminated.At
	return &at
}

// Repository reads entitlements from the FinOps registry
type Repository interface {
	// ListActive returns entitlements redeemed by the organization for the datasource
	// that were active at some point of the period, oldest redemption first.
	ListActive(ctx context.Context, organizationID, datasourceID, datasourceType string, period types.BillingPeriod) ([]*Entitlement, error)
}
