package testutil

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/finops/ffc-billing/internal/httpclient"
)

// MockHTTPClient implements a mock HTTP client for testing
type MockHTTPClient struct {
	mu       sync.Mutex
	routes   map[string][]MockResponse
	requests []*httpclient.Request
}

// MockResponse represents a mock HTTP response
type MockResponse struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
}

// NewMockHTTPClient creates a new mock HTTP client
func NewMockHTTPClient() *MockHTTPClient {
	return &MockHTTPClient{
		routes: make(map[string][]MockResponse),
	}
}

// RegisterResponse registers a mock response for requests whose URL ends with route.
// Registering the same route again queues the responses; the last one keeps being served.
func (m *MockHTTPClient) RegisterResponse(route string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[route] = append(m.routes[route], resp)
}

// RegisterJSONResponse is a helper to register a 200 JSON response
func (m *MockHTTPClient) RegisterJSONResponse(route string, body string) {
	m.RegisterResponse(route, MockResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(body),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	})
}

// Send implements the httpclient.Client interface
func (m *MockHTTPClient) Send(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	// longest matching route wins
	routes := make([]string, 0, len(m.routes))
	for route := range m.routes {
		routes = append(routes, route)
	}
	sort.Slice(routes, func(i, j int) bool { return len(routes[i]) > len(routes[j]) })

	var matched string
	var found bool
	for _, route := range routes {
		if strings.HasSuffix(req.URL, route) {
			matched = route
			found = true
			break
		}
	}

	if !found {
		return nil, httpclient.NewError(http.StatusNotFound, []byte("Not Found"))
	}

	queue := m.routes[matched]
	resp := queue[0]
	if len(queue) > 1 {
		m.routes[matched] = queue[1:]
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, httpclient.NewError(resp.StatusCode, resp.Body)
	}

	return &httpclient.Response{
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
		Headers:    resp.Headers,
	}, nil
}

// Requests returns every request sent so far
func (m *MockHTTPClient) Requests() []*httpclient.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*httpclient.Request(nil), m.requests...)
}

// Clear removes all registered responses and recorded requests
func (m *MockHTTPClient) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = make(map[string][]MockResponse)
	m.requests = nil
}
