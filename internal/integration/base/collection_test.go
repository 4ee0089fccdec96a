package base

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	ierr "github.com/finops/ffc-billing/internal/errors"
	"github.com/finops/ffc-billing/internal/httpclient"
	"github.com/finops/ffc-billing/internal/types"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID string `json:"id" validate:"required"`
}

type fakeRequester struct {
	total int
	paths []string
	fail  error
}

func (f *fakeRequester) Do(ctx context.Context, method, path string, req *httpclient.Request) (*httpclient.Response, error) {
	f.paths = append(f.paths, path)
	if f.fail != nil {
		return nil, f.fail
	}

	var limit, offset int
	_, _ = fmt.Sscanf(path[strings.Index(path, "limit="):], "limit=%d&offset=%d", &limit, &offset)

	var items []map[string]string
	for i := offset; i < offset+limit && i < f.total; i++ {
		items = append(items, map[string]string{"id": fmt.Sprintf("ID-%d", i)})
	}
	body, _ := types.JSON.Marshal(map[string]any{"items": items, "total": f.total})
	return &httpclient.Response{StatusCode: 200, Body: body}, nil
}

func parseItems(body []byte) (*Page, error) {
	var payload struct {
		Items []jsoniter.RawMessage `json:"items"`
		Total int                   `json:"total"`
	}
	if err := types.JSON.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return &Page{Items: payload.Items, Total: payload.Total}, nil
}

func TestCollection_All(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		wantPages int
	}{
		{name: "empty", total: 0, wantPages: 1},
		{name: "single page", total: 2, wantPages: 1},
		{name: "partial last page", total: 5, wantPages: 3},
		{name: "exact pages", total: 4, wantPages: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRequester{total: tt.total}
			items, err := NewCollection[item](r, parseItems, "/organizations", Eq("billing_currency", "USD"), 2).All(context.Background())
			require.NoError(t, err)

			assert.Len(t, items, tt.total)
			assert.Len(t, r.paths, tt.wantPages)
			assert.Equal(t, "/organizations?eq(billing_currency,USD)&limit=2&offset=0", r.paths[0])
			if tt.total > 0 {
				assert.Equal(t, "ID-0", items[0].ID)
				assert.Equal(t, fmt.Sprintf("ID-%d", tt.total-1), items[len(items)-1].ID)
			}
		})
	}
}

func TestCollection_PropagatesErrors(t *testing.T) {
	r := &fakeRequester{fail: httpclient.NewError(500, []byte("boom"))}
	_, err := NewCollection[item](r, parseItems, "/organizations", "", 2).All(context.Background())
	require.Error(t, err)

	httpErr, ok := httpclient.IsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, 500, httpErr.StatusCode)
}

func TestDecode_MissingRequiredField(t *testing.T) {
	_, err := Decode[item]([]byte(`{"name":"no id"}`))
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestFirst(t *testing.T) {
	_, err := First[item](&Page{}, "journal")
	assert.True(t, ierr.IsNotFound(err))

	got, err := First[item](&Page{Items: []jsoniter.RawMessage{[]byte(`{"id":"JRN-1"}`)}, Total: 1}, "journal")
	require.NoError(t, err)
	assert.Equal(t, "JRN-1", got.ID)
}

func TestRQL(t *testing.T) {
	end := time.Date(2025, time.June, 30, 23, 59, 59, 0, time.UTC)
	got := Or(
		And(Eq("authorization.id", "AUT-1"), Eq("status", "Active"), Le("audit.active.at", Time(end))),
		And(Eq("status", "Terminated"), Le("audit.terminated.at", Time(end))),
	)
	assert.Equal(t,
		"or(and(eq(authorization.id,AUT-1),eq(status,Active),le(audit.active.at,2025-06-30T23:59:59Z)),"+
			"and(eq(status,Terminated),le(audit.terminated.at,2025-06-30T23:59:59Z)))",
		got)

	assert.Equal(t, "like(name,USD_*)", Like("name", "USD_*"))
	assert.Equal(t, "a&select=parameters", Query("a", "", Select("parameters")))
}
