package exchangerates

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/finops/ffc-billing/internal/config"
	"github.com/finops/ffc-billing/internal/domain/exchangerate"
	ierr "github.com/finops/ffc-billing/internal/errors"
	"github.com/finops/ffc-billing/internal/httpclient"
	"github.com/finops/ffc-billing/internal/logger"
	"github.com/finops/ffc-billing/internal/types"
	"github.com/shopspring/decimal"
)

// Client fetches rate tables from an exchangerate-api compatible service
type Client struct {
	httpClient httpclient.Client
	baseURL    string
	logger     *logger.Logger
}

func NewClient(cfg *config.Configuration, httpClient httpclient.Client, logger *logger.Logger) exchangerate.Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.ExchangeRates.BaseURL, "/"),
		logger:     logger,
	}
}

// Latest returns an ErrExchangeRates error when the service answers without rates
func (c *Client) Latest(ctx context.Context, base string) (*exchangerate.RateTable, error) {
	resp, err := c.httpClient.Send(ctx, &httpclient.Request{
		Method:  http.MethodGet,
		URL:     fmt.Sprintf("%s/latest/%s", c.baseURL, base),
		Headers: map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		return nil, err
	}

	return parseRateTable(base, resp.Body)
}

func parseRateTable(base string, body []byte) (*exchangerate.RateTable, error) {
	var document map[string]any
	if err := types.JSON.Unmarshal(body, &document); err != nil || len(document) == 0 {
		return nil, ierr.NewErrorf("no exchange rates returned for %s", base).
			WithHintf("Exchange rates service returned an unreadable payload for %s", base).
			Mark(ierr.ErrExchangeRates)
	}

	var payload struct {
		ConversionRates map[string]decimal.Decimal `json:"conversion_rates"`
	}
	if err := types.JSON.Unmarshal(body, &payload); err != nil || len(payload.ConversionRates) == 0 {
		return nil, ierr.NewErrorf("no exchange rates returned for %s", base).
			WithHintf("Exchange rates service returned no conversion rates for %s", base).
			Mark(ierr.ErrExchangeRates)
	}

	canonical, err := types.JSON.Marshal(document)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to encode exchange rates").
			Mark(ierr.ErrSystem)
	}

	return &exchangerate.RateTable{
		Base:     base,
		Rates:    payload.ConversionRates,
		Document: canonical,
	}, nil
}
