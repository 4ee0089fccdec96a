package ffc

import (
	"context"
	"net/http"
	"strings"

	"github.com/finops/ffc-billing/internal/config"
	ierr "github.com/finops/ffc-billing/internal/errors"
	"github.com/finops/ffc-billing/internal/httpclient"
	"github.com/finops/ffc-billing/internal/integration/base"
	"github.com/finops/ffc-billing/internal/logger"
	"github.com/finops/ffc-billing/internal/types"
	jsoniter "github.com/json-iterator/go"
)

// Client talks to the FinOps operations API
type Client struct {
	httpClient httpclient.Client
	baseURL    string
	tokens     *tokenSource
	pageSize   int
	logger     *logger.Logger
}

func NewClient(cfg *config.Configuration, httpClient httpclient.Client, logger *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.FFC.BaseURL, "/"),
		tokens:     newTokenSource(cfg.FFC.Sub, cfg.FFC.OperationsSecret),
		pageSize:   cfg.FFC.PageSize,
		logger:     logger,
	}
}

// Do sends a request to path. A 401 answer gets one retry with a fresh token.
func (c *Client) Do(ctx context.Context, method, path string, req *httpclient.Request) (*httpclient.Response, error) {
	if req == nil {
		req = &httpclient.Request{}
	}
	req.Method = method
	req.URL = c.baseURL + path

	token, err := c.tokens.Token()
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, req, token)
	if httpErr, ok := httpclient.IsHTTPError(err); ok && httpErr.StatusCode == http.StatusUnauthorized {
		c.logger.Debugw("operations API token rejected, issuing a new one", "path", path)
		if token, err = c.tokens.Refresh(); err != nil {
			return nil, err
		}
		resp, err = c.send(ctx, req, token)
	}
	return resp, err
}

func (c *Client) send(ctx context.Context, req *httpclient.Request, token string) (*httpclient.Response, error) {
	headers := make(map[string]string, len(req.Headers)+2)
	for k, v := range req.Headers {
		headers[k] = v
	}
	headers["Authorization"] = "Bearer " + token
	headers["Accept"] = "application/json"

	attempt := *req
	attempt.Headers = headers
	return c.httpClient.Send(ctx, &attempt)
}

func (c *Client) getPage(ctx context.Context, path string) (*base.Page, error) {
	resp, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return parsePage(resp.Body)
}

type pageEnvelope struct {
	Items  []jsoniter.RawMessage `json:"items"`
	Total  int                   `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

func parsePage(body []byte) (*base.Page, error) {
	var env pageEnvelope
	if err := types.JSON.Unmarshal(body, &env); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to decode operations API response").
			Mark(ierr.ErrValidation)
	}
	return &base.Page{Items: env.Items, Total: env.Total}, nil
}

func collection[T any](c *Client, endpoint, query string) *base.Collection[T] {
	return base.NewCollection[T](c, parsePage, endpoint, query, c.pageSize)
}
