package ffc

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/finops/ffc-billing/internal/config"
	"github.com/finops/ffc-billing/internal/logger"
	"github.com/finops/ffc-billing/internal/testutil"
	"github.com/finops/ffc-billing/internal/types"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/suite"
)

type ClientSuite struct {
	suite.Suite
	ctx        context.Context
	cfg        *config.Configuration
	httpClient *testutil.MockHTTPClient
	client     *Client
	period     types.BillingPeriod
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.ctx = context.Background()
	s.httpClient = testutil.NewMockHTTPClient()
	s.cfg = config.GetDefaultConfig()
	s.cfg.FFC.BaseURL = "https://ops.example.com/ops/v1"
	s.client = NewClient(s.cfg, s.httpClient, logger.NewNopLogger())
	s.period = types.NewBillingPeriod(2025, time.June)
}

func (s *ClientSuite) bearer(i int) string {
	return strings.TrimPrefix(s.httpClient.Requests()[i].Headers["Authorization"], "Bearer ")
}

func (s *ClientSuite) TestToken_Claims() {
	s.httpClient.RegisterJSONResponse("/organizations?eq(billing_currency,USD)&limit=50&offset=0", `{"items":[],"total":0}`)

	_, err := NewOrganizationRepository(s.client).ListByBillingCurrency(s.ctx, "USD")
	s.Require().NoError(err)

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(s.bearer(0), claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.FFC.OperationsSecret), nil
	})
	s.Require().NoError(err)
	s.True(token.Valid)
	s.Equal(jwt.SigningMethodHS256.Alg(), token.Method.Alg())
	s.Equal(s.cfg.FFC.Sub, claims.Subject)
	s.Equal(tokenTTL, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func (s *ClientSuite) TestUnauthorizedRetriesOnceWithNewToken() {
	issued := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	s.client.tokens.now = func() time.Time {
		issued = issued.Add(time.Minute)
		return issued
	}

	route := "/organizations?eq(billing_currency,EUR)&limit=50&offset=0"
	s.httpClient.RegisterResponse(route, testutil.MockResponse{StatusCode: http.StatusUnauthorized, Body: []byte("expired")})
	s.httpClient.RegisterJSONResponse(route, `{"items":[{"id":"ORG-1","currency":"USD","billing_currency":"EUR"}],"total":1}`)

	orgs, err := NewOrganizationRepository(s.client).ListByBillingCurrency(s.ctx, "EUR")
	s.Require().NoError(err)
	s.Require().Len(orgs, 1)
	s.True(orgs[0].NeedsConversion())

	s.Require().Len(s.httpClient.Requests(), 2)
	s.NotEqual(s.bearer(0), s.bearer(1))
}

func (s *ClientSuite) TestUnauthorizedTwiceFails() {
	route := "/organizations?eq(billing_currency,EUR)&limit=50&offset=0"
	s.httpClient.RegisterResponse(route, testutil.MockResponse{StatusCode: http.StatusUnauthorized, Body: []byte("nope")})

	_, err := NewOrganizationRepository(s.client).ListByBillingCurrency(s.ctx, "EUR")
	s.Require().Error(err)
	s.Len(s.httpClient.Requests(), 2)
}

func (s *ClientSuite) TestExpenses_ListDaily() {
	s.httpClient.RegisterJSONResponse(
		"/expenses?and(eq(organization.id,ORG-1),eq(year,2025),eq(month,6))&order_by(linked_datasource_id)&limit=50&offset=0",
		`{"items":[
			{"organization_id":"ORG-1","year":2025,"month":6,"day":1,"linked_datasource_id":"111","linked_datasource_type":"aws_cnr","datasource_id":"ds-1","datasource_name":"Prod","total_expenses":"12.5"},
			{"organization_id":"ORG-1","year":2025,"month":6,"day":2,"linked_datasource_id":"111","linked_datasource_type":"aws_cnr","datasource_id":"ds-1","datasource_name":"Prod","total_expenses":13.25}
		],"total":2}`)

	expenses, err := NewExpenseRepository(s.client).ListDaily(s.ctx, "ORG-1", s.period)
	s.Require().NoError(err)
	s.Require().Len(expenses, 2)
	s.Equal("12.5", expenses[0].TotalExpenses.String())
	s.Equal("13.25", expenses[1].TotalExpenses.String())
	s.Equal("111", expenses[1].LinkedDatasourceID)
}

func (s *ClientSuite) TestEntitlements_ListActive() {
	s.httpClient.RegisterJSONResponse("&limit=50&offset=0", `{"items":[
		{"id":"FENT-2","status":"active","events":{"redeemed":{"at":"2025-06-15T10:00:00.5Z"}}},
		{"id":"FENT-1","status":"terminated","events":{"redeemed":{"at":"2025-06-01T08:22:44.126636Z"},"terminated":{"at":"2025-06-10T00:00:00Z"}}}
	],"total":2}`)

	ents, err := NewEntitlementRepository(s.client).ListActive(s.ctx, "ORG-1", "ds-1", "aws_cnr", s.period)
	s.Require().NoError(err)
	s.Require().Len(ents, 2)
	s.Equal("FENT-1", ents[0].ID)
	s.Require().NotNil(ents[0].TerminatedAt())
	s.Nil(ents[1].TerminatedAt())

	s.Equal("https://ops.example.com/ops/v1/entitlements?and(eq(datasource_id,ds-1),eq(events.redeemed.by.id,ORG-1),"+
		"eq(linked_datasource_type,aws_cnr),lt(events.redeemed.at,2025-07-01T00:00:00Z),"+
		"or(eq(status,active),gte(events.terminated.at,2025-06-01T00:00:00Z)))&limit=50&offset=0",
		s.httpClient.Requests()[0].URL)
}
