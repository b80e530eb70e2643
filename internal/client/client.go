// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package client calls the Folio gateway's like endpoints from non-browser
callers.

Browsers authenticate with the auth_token cookie. Everything else, including
folioctl, uses the gateway's bearer-header fallback: a [Client] built with a
token sends it as 'Authorization: Bearer <token>'.

[*Client] satisfies [likes.LikeClient], so it can drive a [likes.Toggler].
*/
package client

import (
	stdctx "context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/taibuivan/folio/internal/likes"
	"github.com/taibuivan/folio/internal/platform/constants"
)

// maxBodyBytes caps how much of a gateway answer is read.
const maxBodyBytes = 1 << 20

// Client is a gateway API client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Options configures a [Client].
type Options struct {
	// GatewayURL is the gateway origin, e.g. https://folio.dev.
	GatewayURL string

	// Token is the bearer credential. Empty sends anonymous calls.
	Token string

	// Timeout bounds each call.
	Timeout time.Duration
}

// New constructs a [Client].
func New(options Options) *Client {
	return &Client{
		baseURL:    strings.TrimRight(options.GatewayURL, "/"),
		token:      options.Token,
		httpClient: &http.Client{Timeout: options.Timeout},
	}
}

// # Errors

// StatusError is a non-2xx answer from the gateway.
type StatusError struct {
	Status  int
	Message string
	Detail  string
}

func (e *StatusError) Error() string {
	if reason := e.Reason(); reason != "" {
		return fmt.Sprintf("gateway: status %d: %s", e.Status, reason)
	}
	return fmt.Sprintf("gateway: status %d", e.Status)
}

// StatusCode returns the gateway's HTTP status.
func (e *StatusError) StatusCode() int { return e.Status }

// Reason returns the envelope's error text, falling back to detail.
func (e *StatusError) Reason() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Detail
}

// # Like Endpoints

// LikeStatus is the answer of GET /api/portfolios/{id}/like-status.
type LikeStatus struct {
	IsLiked   bool `json:"is_liked"`
	LikeCount *int `json:"like_count,omitempty"`
}

type likeResponse struct {
	LikeCount *int `json:"like_count"`
}

// LikeStatus reports whether the caller likes a portfolio.
func (client *Client) LikeStatus(context stdctx.Context, id string) (LikeStatus, error) {
	var status LikeStatus
	err := client.do(context, http.MethodGet, likePath(id, "like-status"), &status)
	return status, err
}

// Like likes a portfolio.
func (client *Client) Like(context stdctx.Context, id string) (likes.Outcome, error) {
	return client.toggle(context, http.MethodPost, id)
}

// Unlike removes the caller's like.
func (client *Client) Unlike(context stdctx.Context, id string) (likes.Outcome, error) {
	return client.toggle(context, http.MethodDelete, id)
}

func (client *Client) toggle(context stdctx.Context, method, id string) (likes.Outcome, error) {
	var response likeResponse
	if err := client.do(context, method, likePath(id, "like"), &response); err != nil {
		return likes.Outcome{}, err
	}
	return likes.Outcome{LikeCount: response.LikeCount}, nil
}

func likePath(id, action string) string {
	return "/api/portfolios/" + url.PathEscape(id) + "/" + action
}

// # Transport

// do sends a bodyless call and decodes a 2xx JSON answer into target.
func (client *Client) do(context stdctx.Context, method, path string, target any) error {
	request, err := http.NewRequestWithContext(context, method, client.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("gateway: build request: %w", err)
	}

	request.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)
	if client.token != "" {
		request.Header.Set(constants.HeaderAuthorization, constants.BearerPrefix+client.token)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("gateway: %s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("gateway: read body: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return statusError(response.StatusCode, body)
	}

	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("gateway: decode response: %w", err)
	}
	return nil
}

// statusError parses the gateway envelope defensively.
func statusError(status int, body []byte) *StatusError {
	var envelope struct {
		Error  string `json:"error"`
		Detail any    `json:"detail"`
	}
	_ = json.Unmarshal(body, &envelope)

	failure := &StatusError{Status: status, Message: envelope.Error}
	if detail, ok := envelope.Detail.(string); ok {
		failure.Detail = detail
	}
	return failure
}
