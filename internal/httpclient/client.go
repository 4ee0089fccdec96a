package httpclient

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/finops/ffc-billing/internal/config"
	ierr "github.com/finops/ffc-billing/internal/errors"
	"github.com/finops/ffc-billing/internal/logger"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// Request represents an HTTP request
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
	// ContentType defaults to application/json when a body is present
	ContentType string
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
}

// Client interface for making HTTP requests
type Client interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// DefaultClient implements the Client interface on top of a retrying transport.
// Connection failures, 429 and 5xx responses are retried with exponential backoff.
type DefaultClient struct {
	client  *retryablehttp.Client
	limiter *rate.Limiter
}

// NewDefaultClient creates a new DefaultClient
func NewDefaultClient(cfg *config.Configuration, log *logger.Logger) Client {
	client := retryablehttp.NewClient()
	client.RetryMax = cfg.HTTP.RetryMax
	if cfg.HTTP.RetryWaitMin > 0 {
		client.RetryWaitMin = cfg.HTTP.RetryWaitMin
	}
	if cfg.HTTP.RetryWaitMax > 0 {
		client.RetryWaitMax = cfg.HTTP.RetryWaitMax
	}
	client.HTTPClient.Timeout = cfg.HTTP.Timeout
	if client.HTTPClient.Timeout == 0 {
		client.HTTPClient.Timeout = 30 * time.Second
	}
	client.Logger = log.GetRetryableHTTPLogger()
	// hand the last response back instead of a generic "giving up" error
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	var limiter *rate.Limiter
	if cfg.HTTP.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.HTTP.RequestsPerSecond), 1)
	}

	return &DefaultClient{
		client:  client,
		limiter: limiter,
	}
}

// Send makes an HTTP request and returns the response
func (c *DefaultClient) Send(ctx context.Context, req *Request) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Request cancelled while waiting for the rate limiter").
				Mark(ierr.ErrHTTPClient)
		}
	}

	var body interface{}
	if req.Body != nil {
		body = req.Body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Please check the request payload").
			Mark(ierr.ErrHTTPClient)
	}

	if req.Body != nil {
		contentType := req.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		httpReq.Header.Set("Content-Type", contentType)
	}

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Request to %s failed", req.URL).
			Mark(ierr.ErrHTTPClient)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read the response body").
			Mark(ierr.ErrHTTPClient)
	}

	headers := make(map[string]string)
	for k, v := range resp.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	// Return HTTP error for non-2xx responses
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, NewError(resp.StatusCode, respBody)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Headers:    headers,
	}, nil
}
