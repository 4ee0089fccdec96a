package testutil

import (
	"context"
	"sync"

	"github.com/finops/ffc-billing/internal/domain/entitlement"
	"github.com/finops/ffc-billing/internal/domain/expense"
	"github.com/finops/ffc-billing/internal/domain/organization"
	"github.com/finops/ffc-billing/internal/types"
)

// InMemoryOrganizationStore implements organization.Repository
type InMemoryOrganizationStore struct {
	mu    sync.RWMutex
	items []*organization.Organization
}

func NewInMemoryOrganizationStore() *InMemoryOrganizationStore {
	return &InMemoryOrganizationStore{}
}

func (s *InMemoryOrganizationStore) Add(orgs ...*organization.Organization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, orgs...)
}

func (s *InMemoryOrganizationStore) ListByBillingCurrency(_ context.Context, currency string) ([]*organization.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*organization.Organization
	for _, o := range s.items {
		if o.BillingCurrency == currency {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *InMemoryOrganizationStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}

// InMemoryExpenseStore implements expense.Repository
type InMemoryExpenseStore struct {
	mu    sync.RWMutex
	items []*expense.DailyExpense
}

func NewInMemoryExpenseStore() *InMemoryExpenseStore {
	return &InMemoryExpenseStore{}
}

func (s *InMemoryExpenseStore) Add(expenses ...*expense.DailyExpense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, expenses...)
}

// ListDaily keeps insertion order, tests add records already ordered by datasource
func (s *InMemoryExpenseStore) ListDaily(_ context.Context, organizationID string, period types.BillingPeriod) ([]*expense.DailyExpense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*expense.DailyExpense
	for _, e := range s.items {
		if e.OrganizationID == organizationID && e.Year == period.Year() && e.Month == int(period.Month()) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *InMemoryExpenseStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}

type entitlementKey struct {
	organizationID string
	datasourceID   string
	datasourceType string
}

// InMemoryEntitlementStore implements entitlement.Repository
type InMemoryEntitlementStore struct {
	mu    sync.RWMutex
	items map[entitlementKey][]*entitlement.Entitlement
	Calls int
}

func NewInMemoryEntitlementStore() *InMemoryEntitlementStore {
	return &InMemoryEntitlementStore{items: make(map[entitlementKey][]*entitlement.Entitlement)}
}

func (s *InMemoryEntitlementStore) Add(organizationID, datasourceID, datasourceType string, ents ...*entitlement.Entitlement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entitlementKey{organizationID, datasourceID, datasourceType}
	s.items[key] = append(s.items[key], ents...)
}

func (s *InMemoryEntitlementStore) ListActive(_ context.Context, organizationID, datasourceID, datasourceType string, _ types.BillingPeriod) ([]*entitlement.Entitlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	key := entitlementKey{organizationID, datasourceID, datasourceType}
	return append([]*entitlement.Entitlement(nil), s.items[key]...), nil
}

func (s *InMemoryEntitlementStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[entitlementKey][]*entitlement.Entitlement)
	s.Calls = 0
}
