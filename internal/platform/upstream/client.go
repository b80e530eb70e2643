// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package upstream is the outbound HTTP client for the external Folio backend.

Every call carries the static service API key and, when the caller has one,
the bearer credential. The package does not interpret response bodies; it
returns status and raw bytes so the proxy layer can relay or normalize them.

Calls are one-shot. There are no retries: a failure is surfaced to the
browser, which decides whether to try again.
*/
package upstream

import (
	"bytes"
	stdctx "context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/taibuivan/folio/internal/platform/constants"
	"github.com/taibuivan/folio/internal/platform/ctxutil"
)

// maxResponseBytes caps how much of a backend response is buffered.
const maxResponseBytes = 4 << 20

// Client forwards gateway calls to the backend.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Options configures a [Client].
type Options struct {
	// BaseURL is the backend origin, without a trailing slash.
	BaseURL string

	// APIKey is sent as x-api-key. An empty key is still sent.
	APIKey string

	// Timeout bounds each call, including reading the body.
	Timeout time.Duration

	// Transport overrides the default transport (tests).
	Transport http.RoundTripper
}

// NewClient constructs a backend [Client].
func NewClient(options Options) *Client {
	return &Client{
		baseURL: options.BaseURL,
		apiKey:  options.APIKey,
		httpClient: &http.Client{
			Timeout:   options.Timeout,
			Transport: options.Transport,
		},
	}
}

// Call describes a single outbound request.
type Call struct {
	Method string
	Path   string
	Query  url.Values

	// Body is sent verbatim; nil sends no body.
	Body []byte

	// Token is attached as 'Authorization: Bearer <token>' when non-empty.
	Token string

	// NoStore asks intermediaries between the gateway and the backend not to cache.
	NoStore bool
}

// Response is the backend's answer, fully buffered.
type Response struct {
	Status int
	Body   []byte
}

// OK reports whether the backend answered with a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// URL returns the absolute backend URL for a call.
func (client *Client) URL(call Call) string {
	target := client.baseURL + call.Path
	if len(call.Query) > 0 {
		target += "?" + call.Query.Encode()
	}
	return target
}

/*
Do performs the call and buffers the response.

Parameters:
  - context: Request-scoped context; cancellation aborts the call.
  - call: The outbound request description.

Returns:
  - *Response: Status and body for any HTTP answer, including 4xx/5xx
  - error: Transport failures only (DNS, connection, timeout, oversize body)
*/
func (client *Client) Do(context stdctx.Context, call Call) (*Response, error) {
	var body io.Reader
	if call.Body != nil {
		body = bytes.NewReader(call.Body)
	}

	request, err := http.NewRequestWithContext(context, call.Method, client.URL(call), body)
	if err != nil {
		return nil, fmt.Errorf("upstream: build request: %w", err)
	}

	header := request.Header
	header.Set(constants.HeaderContentType, constants.ContentTypeJSON)
	header.Set(constants.HeaderAPIKey, client.apiKey)

	if call.Token != "" {
		header.Set(constants.HeaderAuthorization, constants.BearerPrefix+call.Token)
	}

	if call.NoStore {
		header.Set(constants.HeaderCacheControl, constants.NoStoreCacheControl)
		header.Set(constants.HeaderPragma, "no-cache")
		header.Set(constants.HeaderExpires, "0")
	}

	if requestID := ctxutil.GetRequestID(context); requestID != "" {
		header.Set(constants.HeaderXRequestID, requestID)
	}

	startTime := time.Now()
	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("upstream: %s %s: %w", call.Method, call.Path, err)
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("upstream: read body: %w", err)
	}
	if len(payload) > maxResponseBytes {
		return nil, fmt.Errorf("upstream: response body exceeds %d bytes", maxResponseBytes)
	}

	ctxutil.GetLogger(context).DebugContext(context, "upstream_call_finished",
		slog.String("upstream_method", call.Method),
		slog.String("upstream_path", call.Path),
		slog.Int("upstream_status", response.StatusCode),
		slog.Bool("authenticated", call.Token != ""),
		slog.Int64("upstream_latency_ms", time.Since(startTime).Milliseconds()),
	)

	return &Response{Status: response.StatusCode, Body: payload}, nil
}

// Ping reports whether the backend is reachable. Any HTTP answer counts.
func (client *Client) Ping(context stdctx.Context) error {
	pingCtx, cancel := stdctx.WithTimeout(context, 2*time.Second)
	defer cancel()

	request, err := http.NewRequestWithContext(pingCtx, http.MethodHead, client.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("upstream: build ping: %w", err)
	}
	request.Header.Set(constants.HeaderAPIKey, client.apiKey)

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("upstream: ping failed: %w", err)
	}
	_ = response.Body.Close()

	return nil
}
