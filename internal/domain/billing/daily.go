package billing

import (
	"sort"

	"github.com/finops/ffc-billing/internal/domain/expense"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// DailyExpenses maps a day of month to the expense recorded for that day.
// Days without a record are absent, not zero.
type DailyExpenses map[int]decimal.Decimal

// NewDailyExpenses indexes expense records by day. A later record for the same day wins.
func NewDailyExpenses(records []*expense.DailyExpense) DailyExpenses {
	daily := make(DailyExpenses, len(records))
	for _, r := range records {
		daily[r.Day] = r.TotalExpenses
	}
	return daily
}

// Days returns the recorded days in ascending order
func (d DailyExpenses) Days() []int {
	days := d.keys()
	sort.Ints(days)
	return days
}

func (d DailyExpenses) FirstDay() int {
	if len(d) == 0 {
		return 0
	}
	return lo.Min(d.keys())
}

func (d DailyExpenses) LastDay() int {
	if len(d) == 0 {
		return 0
	}
	return lo.Max(d.keys())
}

func (d DailyExpenses) keys() []int {
	return lo.Keys(map[int]decimal.Decimal(d))
}

// Latest is the amount of the most recent recorded day
func (d DailyExpenses) Latest() decimal.Decimal {
	if len(d) == 0 {
		return decimal.Zero
	}
	return d[d.LastDay()]
}

// Amount returns the amount of a day, zero when missing
func (d DailyExpenses) Amount(day int) decimal.Decimal {
	return d[day]
}

// Sum adds the amounts of the given days; missing days count as zero.
func (d DailyExpenses) Sum(days ...int) decimal.Decimal {
	total := decimal.Zero
	for _, day := range days {
		total = total.Add(d[day])
	}
	return total
}

// SumRange adds the amounts of the closed day range [from, to].
func (d DailyExpenses) SumRange(from, to int) decimal.Decimal {
	total := decimal.Zero
	for day := from; day <= to; day++ {
		total = total.Add(d[day])
	}
	return total
}

// CarryForward returns a copy where every day after the latest recorded one, up to lastDay,
// repeats the latest amount. Gaps before the latest day are left untouched.
func (d DailyExpenses) CarryForward(lastDay int) DailyExpenses {
	out := make(DailyExpenses, lastDay)
	for day, amount := range d {
		out[day] = amount
	}
	if len(d) == 0 {
		return out
	}

	latestDay := d.LastDay()
	latest := d[latestDay]
	for day := latestDay + 1; day <= lastDay; day++ {
		out[day] = latest
	}
	return out
}
