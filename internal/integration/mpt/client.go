package mpt

import (
	"context"
	"fmt"
	"strings"

	"github.com/finops/ffc-billing/internal/config"
	ierr "github.com/finops/ffc-billing/internal/errors"
	"github.com/finops/ffc-billing/internal/httpclient"
	"github.com/finops/ffc-billing/internal/integration/base"
	"github.com/finops/ffc-billing/internal/logger"
	"github.com/finops/ffc-billing/internal/types"
	jsoniter "github.com/json-iterator/go"
)

const apiVersion = "v1"

// Client talks to the marketplace platform API
type Client struct {
	httpClient httpclient.Client
	baseURL    string
	token      string
	pageSize   int
	logger     *logger.Logger
}

func NewClient(cfg *config.Configuration, httpClient httpclient.Client, logger *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    fmt.Sprintf("%s/%s", strings.TrimRight(cfg.MPT.BaseURL, "/"), apiVersion),
		token:      cfg.MPT.APIToken,
		pageSize:   cfg.MPT.PageSize,
		logger:     logger,
	}
}

// Do sends a request to path with the API token applied
func (c *Client) Do(ctx context.Context, method, path string, req *httpclient.Request) (*httpclient.Response, error) {
	if req == nil {
		req = &httpclient.Request{}
	}
	req.Method = method
	req.URL = c.baseURL + path
	if req.Headers == nil {
		req.Headers = make(map[string]string)
	}
	req.Headers["Authorization"] = "Bearer " + c.token
	req.Headers["Accept"] = "application/json"

	resp, err := c.httpClient.Send(ctx, req)
	if err != nil {
		c.logger.Debugw("marketplace request failed", "method", method, "path", path, "error", err)
		return nil, err
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.Do(ctx, "GET", path, nil)
	if err != nil {
		return err
	}
	return decode(resp.Body, out)
}

func (c *Client) getPage(ctx context.Context, path string) (*base.Page, error) {
	resp, err := c.Do(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}
	return parsePage(resp.Body)
}

type pageEnvelope struct {
	Meta struct {
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	} `json:"$meta"`
	Data []jsoniter.RawMessage `json:"data"`
}

// parsePage reads the data/$meta.pagination envelope of collection responses
func parsePage(body []byte) (*base.Page, error) {
	var env pageEnvelope
	if err := decode(body, &env); err != nil {
		return nil, err
	}
	return &base.Page{Items: env.Data, Total: env.Meta.Pagination.Total}, nil
}

func decode(body []byte, out any) error {
	if err := types.JSON.Unmarshal(body, out); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to decode marketplace response").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func collection[T any](c *Client, endpoint, query string) *base.Collection[T] {
	return base.NewCollection[T](c, parsePage, endpoint, query, c.pageSize)
}
