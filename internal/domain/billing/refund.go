package billing

import (
	"fmt"
	"sort"
	"time"

	"github.com/finops/ffc-billing/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const refundDateLayout = "02 Jan 2006"

// Refund is an amount to give back for a range of days, before the billed percentage
// and currency conversion are applied.
type Refund struct {
	Amount      decimal.Decimal
	StartDate   time.Time
	EndDate     time.Time
	Description string
}

// TrialWindow is the closed range of calendar days an organization was on trial
type TrialWindow struct {
	Start time.Time
	End   time.Time
}

// EntitlementWindow is one redemption of an entitlement. TerminatedAt is nil while it is still active.
type EntitlementWindow struct {
	ID           string
	RedeemedAt   time.Time
	TerminatedAt *time.Time
}

// DayRange is a closed range of days of month
type DayRange struct {
	From int
	To   int
}

// RefundCalculator turns daily expenses into refund lines for trial and entitlement days.
// Trial days take precedence: a day claimed by the trial is never refunded again by an
// entitlement, and a day claimed by one entitlement is never refunded by another.
type RefundCalculator struct {
	period types.BillingPeriod
}

func NewRefundCalculator(period types.BillingPeriod) *RefundCalculator {
	return &RefundCalculator{period: period}
}

// Calculate returns the trial refund first, then one refund per contiguous range of
// entitlement days in ascending start order.
func (c *RefundCalculator) Calculate(daily DailyExpenses, trial *TrialWindow, entitlements []EntitlementWindow) []Refund {
	var refunds []Refund
	claimed := make(map[int]struct{})

	if trial != nil {
		if refund, days, ok := c.trialRefund(daily, *trial); ok {
			refunds = append(refunds, refund)
			for _, day := range days {
				claimed[day] = struct{}{}
			}
		}
	}

	var entitlementRefunds []Refund
	for _, ent := range entitlements {
		days := c.EntitlementDays(ent, claimed)
		for _, day := range days {
			claimed[day] = struct{}{}
		}
		for _, r := range SplitIntoRanges(days) {
			entitlementRefunds = append(entitlementRefunds, Refund{
				Amount:      daily.SumRange(r.From, r.To),
				StartDate:   c.period.Day(r.From),
				EndDate:     c.period.Day(r.To),
				Description: fmt.Sprintf("Refund due to active entitlement %s", ent.ID),
			})
		}
	}

	sort.SliceStable(entitlementRefunds, func(i, j int) bool {
		return entitlementRefunds[i].StartDate.Before(entitlementRefunds[j].StartDate)
	})

	return append(refunds, entitlementRefunds...)
}

func (c *RefundCalculator) trialRefund(daily DailyExpenses, trial TrialWindow) (Refund, []int, bool) {
	from, to, ok := c.period.Clamp(trial.Start, trial.End)
	if !ok {
		return Refund{}, nil, false
	}

	days := types.DaysOfMonth(from, to)
	return Refund{
		Amount:    daily.Sum(days...),
		StartDate: from,
		EndDate:   to,
		Description: fmt.Sprintf(
			"Refund due to trial period (from %s to %s)",
			trial.Start.Format(refundDateLayout),
			trial.End.Format(refundDateLayout),
		),
	}, days, true
}

// EntitlementDays lists the days of the period the entitlement was active, leaving out
// the ones already claimed. An open-ended entitlement runs until the end of the period.
func (c *RefundCalculator) EntitlementDays(ent EntitlementWindow, claimed map[int]struct{}) []int {
	end := c.period.End
	if ent.TerminatedAt != nil {
		end = *ent.TerminatedAt
	}

	from, to, ok := c.period.Clamp(ent.RedeemedAt, end)
	if !ok {
		return nil
	}

	return lo.Filter(types.DaysOfMonth(from, to), func(day int, _ int) bool {
		_, taken := claimed[day]
		return !taken
	})
}

// SplitIntoRanges partitions days into maximal runs of consecutive days.
func SplitIntoRanges(days []int) []DayRange {
	if len(days) == 0 {
		return nil
	}

	sorted := lo.Uniq(days)
	sort.Ints(sorted)

	ranges := []DayRange{{From: sorted[0], To: sorted[0]}}
	for _, day := range sorted[1:] {
		last := &ranges[len(ranges)-1]
		if day == last.To+1 {
			last.To = day
			continue
		}
		ranges = append(ranges, DayRange{From: day, To: day})
	}
	return ranges
}
