package base

import (
	"context"
	"fmt"
	"net/http"

	ierr "github.com/finops/ffc-billing/internal/errors"
	"github.com/finops/ffc-billing/internal/httpclient"
	"github.com/finops/ffc-billing/internal/types"
	"github.com/finops/ffc-billing/internal/validator"
	jsoniter "github.com/json-iterator/go"
)

// Requester sends a request to an API with its authentication applied.
// Paths are relative to the API base URL.
type Requester interface {
	Do(ctx context.Context, method, path string, req *httpclient.Request) (*httpclient.Response, error)
}

// Page is one page of a collection endpoint
type Page struct {
	Items []jsoniter.RawMessage
	Total int
}

// PageParser extracts the items and the total count from a collection response
type PageParser func(body []byte) (*Page, error)

// Collection iterates an offset/limit paginated endpoint.
// Iteration stops once limit+offset reaches the reported total.
type Collection[T any] struct {
	requester Requester
	parse     PageParser
	endpoint  string
	query     string
	limit     int
}

func NewCollection[T any](requester Requester, parse PageParser, endpoint, query string, limit int) *Collection[T] {
	if limit <= 0 {
		limit = 50
	}
	return &Collection[T]{
		requester: requester,
		parse:     parse,
		endpoint:  endpoint,
		query:     query,
		limit:     limit,
	}
}

// All fetches every page and decodes each item
func (c *Collection[T]) All(ctx context.Context) ([]*T, error) {
	var items []*T
	offset := 0

	for {
		page, err := c.fetch(ctx, offset)
		if err != nil {
			return nil, err
		}

		for _, raw := range page.Items {
			item, err := Decode[T](raw)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}

		if page.Total <= c.limit+offset {
			return items, nil
		}
		offset += c.limit
	}
}

func (c *Collection[T]) fetch(ctx context.Context, offset int) (*Page, error) {
	path := fmt.Sprintf("%s?%s", c.endpoint, Query(c.query, fmt.Sprintf("limit=%d", c.limit), fmt.Sprintf("offset=%d", offset)))

	resp, err := c.requester.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return c.parse(resp.Body)
}

// Decode unmarshals one item and checks it carries every required field
func Decode[T any](raw []byte) (*T, error) {
	var item T
	if err := types.JSON.Unmarshal(raw, &item); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to decode API payload").
			Mark(ierr.ErrValidation)
	}
	if err := validator.ValidateRequest(&item); err != nil {
		return nil, err
	}
	return &item, nil
}

// First returns the first item of a page, or ErrNotFound when the page is empty
func First[T any](page *Page, what string) (*T, error) {
	if len(page.Items) == 0 {
		return nil, ierr.NewErrorf("%s not found", what).
			Mark(ierr.ErrNotFound)
	}
	return Decode[T](page.Items[0])
}
