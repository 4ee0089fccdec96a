package billing

import (
	"testing"

	"github.com/finops/ffc-billing/internal/domain/expense"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewDailyExpenses(t *testing.T) {
	daily := NewDailyExpenses([]*expense.DailyExpense{
		{Day: 3, TotalExpenses: decimal.NewFromInt(30)},
		{Day: 1, TotalExpenses: decimal.NewFromInt(10)},
		{Day: 3, TotalExpenses: decimal.NewFromInt(33)},
	})

	assert.Equal(t, []int{1, 3}, daily.Days())
	assert.Equal(t, 1, daily.FirstDay())
	assert.Equal(t, 3, daily.LastDay())
	assert.Equal(t, "33", daily.Latest().String())
	assert.Equal(t, "43", daily.Sum(1, 2, 3).String())
	assert.Equal(t, "43", daily.SumRange(1, 3).String())
}

func TestDailyExpenses_CarryForward(t *testing.T) {
	daily := DailyExpenses{
		2: decimal.NewFromInt(20),
		5: decimal.NewFromInt(50),
	}

	filled := daily.CarryForward(8)

	assert.Equal(t, []int{2, 5, 6, 7, 8}, filled.Days())
	assert.Equal(t, "50", filled.Amount(8).String())
	assert.True(t, filled.Amount(3).IsZero(), "gaps before the latest day stay empty")
	assert.Len(t, daily, 2, "the source map is left untouched")
}

func TestDailyExpenses_Empty(t *testing.T) {
	var daily DailyExpenses

	assert.Empty(t, daily.Days())
	assert.Zero(t, daily.LastDay())
	assert.True(t, daily.Latest().IsZero())
	assert.Empty(t, daily.CarryForward(30))
}
