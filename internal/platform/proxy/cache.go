// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package proxy

import (
	stdctx "context"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/folio/internal/platform/constants"
	"github.com/taibuivan/folio/internal/platform/ctxutil"
	"github.com/taibuivan/folio/internal/platform/upstream"
)

// # Anonymous Response Cache

// ResponseCache stores relayed 200 bodies for public, anonymous reads.
//
// Implementations must treat a miss as (nil, false, nil). Errors are
// logged by the caller and degrade to a direct backend call.
type ResponseCache interface {
	Get(context stdctx.Context, key string) ([]byte, bool, error)
	Set(context stdctx.Context, key string, body []byte, ttl time.Duration) error
}

// cacheEligible reports whether a call may be served from the cache.
//
// Only anonymous GETs on routes explicitly marked cacheable qualify, so a
// response personalised by a credential is never shared between users.
func (proxy *Proxy) cacheEligible(route Route, call upstream.Call, authenticated bool) bool {
	return proxy.cache != nil &&
		proxy.ttl > 0 &&
		route.Cacheable &&
		!route.NoStore &&
		!authenticated &&
		call.Method == http.MethodGet
}

// cacheKey identifies a backend resource including its query string.
func (proxy *Proxy) cacheKey(call upstream.Call) string {
	key := constants.RedisPrefixResponse + call.Path
	if len(call.Query) > 0 {
		key += "?" + call.Query.Encode()
	}
	return key
}

// cachedDo serves a call from the cache, collapsing concurrent misses into a
// single backend call.
func (proxy *Proxy) cachedDo(request *http.Request, call upstream.Call) (*upstream.Response, error) {
	ctx := request.Context()
	logger := ctxutil.GetLogger(ctx)
	key := proxy.cacheKey(call)

	body, found, err := proxy.cache.Get(ctx, key)
	if err != nil {
		logger.WarnContext(ctx, "response_cache_get_failed", slog.String("key", key), slog.Any("error", err))
	} else if found {
		return &upstream.Response{Status: http.StatusOK, Body: body}, nil
	}

	result, err, _ := proxy.group.Do(key, func() (any, error) {
		// Detached from the first caller's cancellation: other callers share this result.
		callCtx, cancel := stdctx.WithTimeout(stdctx.WithoutCancel(ctx), constants.GlobalRequestTimeout)
		defer cancel()

		response, err := proxy.client.Do(callCtx, call)
		if err != nil {
			return nil, err
		}

		if response.Status == http.StatusOK && len(response.Body) > 0 {
			if err := proxy.cache.Set(callCtx, key, response.Body, proxy.ttl); err != nil {
				logger.WarnContext(ctx, "response_cache_set_failed", slog.String("key", key), slog.Any("error", err))
			}
		}
		return response, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*upstream.Response), nil
}
