// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mia-platform/utilkit/internal/logger"
)

const (
	// DefaultTimeout bounds a whole request, from dialing to the end of the body.
	DefaultTimeout = 30 * time.Minute
	// DefaultUserAgent is a desktop browser user agent, some origins block unknown clients.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	loggerName = "utilkit:httpclient"

	contentTypeJSON = "application/json"
)

// defaultHeaders are sent with every request, they cannot be overridden by callers.
var defaultHeaders = map[string]string{
	"Accept":     "*/*",
	"Connection": "Keep-Alive",
}

// shared is the process wide client, built on first use.
var shared = sync.OnceValue(func() *Client {
	return New()
})

// Client sends requests and returns raw response bodies.
// It is immutable once built and safe for concurrent use.
type Client struct {
	rest         *resty.Client
	failOnStatus bool
}

// New builds a Client with the default timeout, user agent and headers, changed by opts.
func New(opts ...Option) *Client {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}

	rest := resty.New().
		SetCookieJar(nil).
		SetTimeout(s.timeout).
		SetLogger(restyLogger{log: s.logger}).
		SetHeader("User-Agent", s.userAgent).
		SetHeaders(defaultHeaders)

	//nolint:contextcheck // the token source outlives any single request
	if transport := newTransport(context.Background(), s); transport != nil {
		rest.SetTransport(transport)
	}

	return &Client{
		rest:         rest,
		failOnStatus: s.failOnStatus,
	}
}

// Default returns the shared client used by the package level Get and PostJSON.
func Default() *Client {
	return shared()
}

// Get sends a GET request to url with the shared client and returns the response body.
func Get(ctx context.Context, url string) ([]byte, error) {
	return Default().Get(ctx, url)
}

// PostJSON sends payload encoded as JSON to url with the shared client and returns the
// response body.
func PostJSON(ctx context.Context, url string, payload any) ([]byte, error) {
	return Default().PostJSON(ctx, url, payload)
}

// Get sends a GET request to url and returns the response body.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	return c.execute(ctx, c.rest.R(), http.MethodGet, url)
}

// PostJSON encodes payload as JSON, sends it with a POST request to url and returns the
// response body. Encoding failures are reported before any connection is made.
func (c *Client) PostJSON(ctx context.Context, url string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, newRequestError(http.MethodPost, url, 0, ErrSerialization, err)
	}

	request := c.rest.R().
		SetHeader("Content-Type", contentTypeJSON).
		SetBody(body)
	return c.execute(ctx, request, http.MethodPost, url)
}

// execute sends request and reads the whole body of the response.
func (c *Client) execute(ctx context.Context, request *resty.Request, method, url string) ([]byte, error) {
	log := logger.Named(ctx, loggerName)
	start := time.Now()

	response, err := request.
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Execute(method, url)
	if err != nil {
		log.Debug("request failed", "method", method, "url", url, "error", err.Error())
		return nil, newRequestError(method, url, 0, ErrTransport, err)
	}

	rawBody := response.RawBody()
	defer rawBody.Close()

	statusCode := response.StatusCode()
	body, err := io.ReadAll(rawBody)
	if err != nil {
		log.Debug("reading response body failed", "method", method, "url", url, "statusCode", statusCode, "error", err.Error())
		return nil, newRequestError(method, url, statusCode, ErrBodyRead, err)
	}

	log.Trace("request completed",
		"method", method,
		"url", url,
		"statusCode", statusCode,
		"bytes", len(body),
		"responseTime", float64(time.Since(start).Microseconds())/1000,
	)

	if c.failOnStatus && !isSuccess(statusCode) {
		return nil, newRequestError(method, url, statusCode, ErrStatus, statusError(method, url, response.Status()))
	}

	return body, nil
}

func isSuccess(statusCode int) bool {
	return statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices
}

func statusError(method, url, status string) error {
	return fmt.Errorf("%s %s: %s", method, url, status)
}
