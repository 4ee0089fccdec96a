package testutil

import (
	"context"
	"sync"

	"github.com/finops/ffc-billing/internal/domain/exchangerate"
	ierr "github.com/finops/ffc-billing/internal/errors"
	"github.com/finops/ffc-billing/internal/types"
	"github.com/shopspring/decimal"
)

// MockExchangeRates implements exchangerate.Client over fixed tables and counts calls per base
type MockExchangeRates struct {
	mu     sync.Mutex
	tables map[string]*exchangerate.RateTable
	calls  map[string]int
	err    error
}

func NewMockExchangeRates() *MockExchangeRates {
	return &MockExchangeRates{
		tables: make(map[string]*exchangerate.RateTable),
		calls:  make(map[string]int),
	}
}

// SetRates registers the table of a base currency, rates given as decimal strings
func (m *MockExchangeRates) SetRates(base string, rates map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	table := &exchangerate.RateTable{Base: base, Rates: make(map[string]decimal.Decimal, len(rates))}
	for cur, raw := range rates {
		table.Rates[cur] = decimal.RequireFromString(raw)
	}
	table.Document, _ = types.JSON.Marshal(map[string]any{
		"base_code":        base,
		"conversion_rates": rates,
	})
	m.tables[base] = table
}

// Fail makes every call return err
func (m *MockExchangeRates) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockExchangeRates) Latest(_ context.Context, base string) (*exchangerate.RateTable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[base]++
	if m.err != nil {
		return nil, m.err
	}
	table, ok := m.tables[base]
	if !ok {
		return nil, ierr.NewErrorf("no exchange rates for %s", base).
			Mark(ierr.ErrExchangeRates)
	}
	return table, nil
}

// Calls returns how many times rates of base were fetched
func (m *MockExchangeRates) Calls(base string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[base]
}

// TotalCalls returns the number of fetches for any base
func (m *MockExchangeRates) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

func (m *MockExchangeRates) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables = make(map[string]*exchangerate.RateTable)
	m.calls = make(map[string]int)
	m.err = nil
}
