package service

import (
	"bytes"
	"testing"
	"time"

	"github.com/finops/ffc-billing/internal/domain/agreement"
	"github.com/finops/ffc-billing/internal/domain/authorization"
	"github.com/finops/ffc-billing/internal/domain/billing"
	"github.com/finops/ffc-billing/internal/domain/expense"
	"github.com/finops/ffc-billing/internal/domain/organization"
	"github.com/finops/ffc-billing/internal/testutil"
	"github.com/finops/ffc-billing/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testPeriod = types.NewBillingPeriod(2025, time.June)

func newTestParams(s *testutil.BaseServiceTestSuite) ServiceParams {
	st := s.GetStores()
	return NewServiceParams(
		s.GetLogger(),
		s.GetConfig(),
		s.GetSentry(),
		s.GetMetrics(),
		st.AuthorizationRepo,
		st.AgreementRepo,
		st.JournalRepo,
		st.OrganizationRepo,
		st.ExpenseRepo,
		st.EntitlementRepo,
		st.ExchangeRates,
		st.Notifier,
	)
}

func testAuthorization(id, currency string) *authorization.Authorization {
	return &authorization.Authorization{ID: id, Name: "Authorization " + id, Currency: currency}
}

func testOrganization(id, currency, billingCurrency, agreementID string) *organization.Organization {
	return &organization.Organization{
		ID:                   id,
		Name:                 "Organization " + id,
		Currency:             currency,
		BillingCurrency:      billingCurrency,
		OperationsExternalID: agreementID,
	}
}

func testAgreement(id, authorizationID string, fulfillment ...agreement.Parameter) *agreement.Agreement {
	return &agreement.Agreement{
		ID:            id,
		Status:        "Active",
		Authorization: agreement.Reference{ID: authorizationID},
		Parameters:    agreement.Parameters{Fulfillment: fulfillment},
	}
}

func trialParameters(start, end string) []agreement.Parameter {
	return []agreement.Parameter{
		{ExternalID: agreement.ParamTrialStartDate, Value: start},
		{ExternalID: agreement.ParamTrialEndDate, Value: end},
	}
}

// flatExpenses records the same amount for every day of [from, to]
func flatExpenses(organizationID, linkedDatasourceID string, from, to int, amount string) []*expense.DailyExpense {
	var out []*expense.DailyExpense
	for day := from; day <= to; day++ {
		out = append(out, &expense.DailyExpense{
			OrganizationID:       organizationID,
			Year:                 testPeriod.Year(),
			Month:                int(testPeriod.Month()),
			Day:                  day,
			LinkedDatasourceID:   linkedDatasourceID,
			LinkedDatasourceType: "aws_cnr",
			DatasourceID:         "DS-" + linkedDatasourceID,
			DatasourceName:       "Datasource " + linkedDatasourceID,
			TotalExpenses:        mustDecimal(amount),
		})
	}
	return out
}

func flatDaily(from, to int, amount string) billing.DailyExpenses {
	daily := billing.DailyExpenses{}
	for day := from; day <= to; day++ {
		daily[day] = mustDecimal(amount)
	}
	return daily
}

func parseChargeLines(t *testing.T, data []byte) []billing.ChargeLine {
	t.Helper()
	var lines []billing.ChargeLine
	for _, raw := range bytes.Split(bytes.TrimSpace(data), []byte("\n")) {
		if len(raw) == 0 {
			continue
		}
		var line billing.ChargeLine
		require.NoError(t, types.JSON.Unmarshal(raw, &line))
		lines = append(lines, line)
	}
	return lines
}

func at(day int) time.Time {
	return testPeriod.Day(day)
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
