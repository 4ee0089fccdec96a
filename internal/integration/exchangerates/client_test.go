package exchangerates

import (
	"context"
	"net/http"
	"testing"

	"github.com/finops/ffc-billing/internal/config"
	ierr "github.com/finops/ffc-billing/internal/errors"
	"github.com/finops/ffc-billing/internal/logger"
	"github.com/finops/ffc-billing/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*testutil.MockHTTPClient, *Client) {
	t.Helper()
	httpClient := testutil.NewMockHTTPClient()
	cfg := config.GetDefaultConfig()
	cfg.ExchangeRates.BaseURL = "https://rates.example.com/v6/key/"
	return httpClient, NewClient(cfg, httpClient, logger.NewNopLogger()).(*Client)
}

func TestClient_Latest(t *testing.T) {
	httpClient, client := newTestClient(t)
	httpClient.RegisterJSONResponse("/v6/key/latest/USD",
		`{"result":"success","base_code":"USD","conversion_rates":{"USD":1,"EUR":0.9123456,"GBP":0.79}}`)

	table, err := client.Latest(context.Background(), "USD")
	require.NoError(t, err)

	rate, ok := table.Rate("EUR")
	require.True(t, ok)
	assert.Equal(t, "0.9123456", rate.String())
	_, ok = table.Rate("JPY")
	assert.False(t, ok)

	assert.Equal(t, "https://rates.example.com/v6/key/latest/USD", httpClient.Requests()[0].URL)
	assert.Equal(t,
		`{"base_code":"USD","conversion_rates":{"EUR":0.9123456,"GBP":0.79,"USD":1},"result":"success"}`,
		string(table.Document))
}

func TestClient_LatestWithoutRates(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty object", body: `{}`},
		{name: "error payload", body: `{"result":"error","error-type":"unsupported-code"}`},
		{name: "not json", body: `<html></html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpClient, client := newTestClient(t)
			httpClient.RegisterJSONResponse("/latest/XXX", tt.body)

			_, err := client.Latest(context.Background(), "XXX")
			require.Error(t, err)
			assert.True(t, ierr.IsExchangeRates(err))
		})
	}
}

func TestClient_LatestHTTPError(t *testing.T) {
	httpClient, client := newTestClient(t)
	httpClient.RegisterResponse("/latest/USD", testutil.MockResponse{StatusCode: http.StatusBadGateway, Body: []byte("bad gateway")})

	_, err := client.Latest(context.Background(), "USD")
	require.Error(t, err)
	assert.Equal(t, "502 - bad gateway", err.Error())
}
