// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package proxy_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/folio/internal/platform/apperr"
	"github.com/taibuivan/folio/internal/platform/middleware"
	"github.com/taibuivan/folio/internal/platform/proxy"
	"github.com/taibuivan/folio/internal/platform/upstream"
	"github.com/taibuivan/folio/pkg/pagination"
)

// # Test Fixtures

type backendCall struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	APIKey        string
	Body          string
}

// fakeBackend records calls and answers with a fixed status and body.
type fakeBackend struct {
	server *httptest.Server
	mu     sync.Mutex
	calls  []backendCall
}

func newFakeBackend(t *testing.T, status int, body string) *fakeBackend {
	t.Helper()

	backend := &fakeBackend{}
	backend.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)

		backend.mu.Lock()
		backend.calls = append(backend.calls, backendCall{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			APIKey:        r.Header.Get("x-api-key"),
			Body:          string(raw),
		})
		backend.mu.Unlock()

		if status != http.StatusNoContent {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(backend.server.Close)

	return backend
}

func (backend *fakeBackend) Calls() []backendCall {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	return append([]backendCall(nil), backend.calls...)
}

func newProxy(baseURL string, cache proxy.ResponseCache) *proxy.Proxy {
	client := upstream.NewClient(upstream.Options{BaseURL: baseURL, APIKey: "svc-key", Timeout: 2 * time.Second})
	return proxy.New(client, cache, time.Minute)
}

func serve(handler http.Handler, request *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	middleware.Credential()(handler).ServeHTTP(recorder, request)
	return recorder
}

func decode(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

// # Relay

/*
TestHandle_RelaysVerbatimWithCredential verifies the cookie credential is
forwarded as a bearer token and the body is relayed unchanged.
*/
func TestHandle_RelaysVerbatimWithCredential(t *testing.T) {
	backend := newFakeBackend(t, http.StatusOK, `{"id":"u1","name":"Tai"}`)
	handler := newProxy(backend.server.URL, nil).Handle(proxy.Route{Path: proxy.Static("/api/auth/me")})

	request := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	request.AddCookie(&http.Cookie{Name: "auth_token", Value: "abc"})
	recorder := serve(handler, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, `{"id":"u1","name":"Tai"}`, recorder.Body.String())

	calls := backend.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer abc", calls[0].Authorization)
	assert.Equal(t, "svc-key", calls[0].APIKey)
	assert.Equal(t, "/api/auth/me", calls[0].Path)
}

/*
TestHandle_ForwardsBodyAndQuery verifies body relay and query forwarding.
*/
func TestHandle_ForwardsBodyAndQuery(t *testing.T) {
	backend := newFakeBackend(t, http.StatusOK, `{"id":"p1"}`)
	handler := newProxy(backend.server.URL, nil).Handle(proxy.Route{
		Path:          proxy.Static("/api/portfolios"),
		QueryFunc:     pagination.Query,
		ForwardBody:   true,
		SuccessStatus: http.StatusCreated,
	})

	request := httptest.NewRequest(http.MethodPost, "/api/portfolios?limit=5&ignored=x", strings.NewReader(`{"title":"Folio"}`))
	recorder := serve(handler, request)

	assert.Equal(t, http.StatusCreated, recorder.Code)

	calls := backend.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.Equal(t, "limit=5&page=1", calls[0].Query)
	assert.Equal(t, `{"title":"Folio"}`, calls[0].Body)
	assert.Empty(t, calls[0].Authorization)
}

/*
TestHandle_RejectsMalformedBody verifies the backend is never called with invalid JSON.
*/
func TestHandle_RejectsMalformedBody(t *testing.T) {
	backend := newFakeBackend(t, http.StatusOK, `{}`)
	handler := newProxy(backend.server.URL, nil).Handle(proxy.Route{
		Path:        proxy.Static("/api/portfolios"),
		ForwardBody: true,
	})

	recorder := serve(handler, httptest.NewRequest(http.MethodPost, "/api/portfolios", strings.NewReader(`{"title":`)))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Empty(t, backend.Calls())
}

/*
TestHandle_NoStoreAndEmptyBody verifies cache-suppression headers and the
success envelope used when the backend answers without a body.
*/
func TestHandle_NoStoreAndEmptyBody(t *testing.T) {
	backend := newFakeBackend(t, http.StatusNoContent, "")
	handler := newProxy(backend.server.URL, nil).Handle(proxy.Route{
		Path:         proxy.Static("/api/feedbacks/f1"),
		NoStore:      true,
		EmptyMessage: "Feedback deleted",
	})

	recorder := serve(handler, httptest.NewRequest(http.MethodDelete, "/api/feedbacks/f1", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "no-cache, no-store, must-revalidate", recorder.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", recorder.Header().Get("Pragma"))
	assert.Equal(t, "0", recorder.Header().Get("Expires"))

	body := decode(t, recorder)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Feedback deleted", body["message"])
}

/*
TestHandle_OnSuccessHook verifies the hook runs only on 2xx answers.
*/
func TestHandle_OnSuccessHook(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusForbidden} {
		backend := newFakeBackend(t, status, `{"success":true}`)

		var ran bool
		handler := newProxy(backend.server.URL, nil).Handle(proxy.Route{
			Path: proxy.Static("/api/auth/withdraw"),
			OnSuccess: func(http.ResponseWriter, *http.Request, *upstream.Response) {
				ran = true
			},
		})

		serve(handler, httptest.NewRequest(http.MethodDelete, "/api/auth/withdraw", nil))
		assert.Equal(t, status == http.StatusOK, ran, "status %d", status)
	}
}

/*
TestHandle_TemplatePath verifies URL parameters are validated and spliced.
*/
func TestHandle_TemplatePath(t *testing.T) {
	backend := newFakeBackend(t, http.StatusOK, `{"is_liked":true}`)
	router := chi.NewRouter()
	router.Get("/portfolios/{id}/like-status", newProxy(backend.server.URL, nil).Handle(proxy.Route{
		Path:    proxy.Template("/api/portfolios/%s/like-status", "id"),
		NoStore: true,
	}))

	recorder := serve(router, httptest.NewRequest(http.MethodGet, "/portfolios/p-42/like-status", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = serve(router, httptest.NewRequest(http.MethodGet, "/portfolios/../like-status", nil))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	calls := backend.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/api/portfolios/p-42/like-status", calls[0].Path)
}

/*
TestHandle_PathFailure verifies a plain path error maps to the route's 500
message while an application error keeps its own status.
*/
func TestHandle_PathFailure(t *testing.T) {
	backend := newFakeBackend(t, http.StatusOK, `{}`)
	relay := newProxy(backend.server.URL, nil)

	handler := relay.Handle(proxy.Route{
		Path:           func(*http.Request) (string, error) { return "", errors.New("boom") },
		FailureMessage: "Failed to fetch portfolio",
	})
	recorder := serve(handler, httptest.NewRequest(http.MethodGet, "/api/portfolios/p-1", nil))
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Equal(t, "Failed to fetch portfolio", decode(t, recorder)["error"])

	handler = relay.Handle(proxy.Route{
		Path: func(*http.Request) (string, error) { return "", apperr.Unauthorized("Login required") },
	})
	recorder = serve(handler, httptest.NewRequest(http.MethodGet, "/api/users/me/portfolios", nil))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "Login required", decode(t, recorder)["error"])

	assert.Empty(t, backend.Calls())
}

/*
TestHandle_PublicRouteDropsCredential verifies public routes are called anonymously.
*/
func TestHandle_PublicRouteDropsCredential(t *testing.T) {
	backend := newFakeBackend(t, http.StatusOK, `{"url":"https://github.com/login"}`)
	handler := newProxy(backend.server.URL, nil).Handle(proxy.Route{
		Path:   proxy.Static("/api/auth/sso/github"),
		Public: true,
	})

	request := httptest.NewRequest(http.MethodGet, "/api/auth/sso/github", nil)
	request.AddCookie(&http.Cookie{Name: "auth_token", Value: "abc"})
	serve(handler, request)

	calls := backend.Calls()
	require.Len(t, calls, 1)
	assert.Empty(t, calls[0].Authorization)
}

// # Error Normalization

/*
TestHandle_NormalizesErrors covers the 4xx/5xx/exception taxonomy.
*/
func TestHandle_NormalizesErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantStatus  int
		wantMessage string
	}{
		{"detail_string", http.StatusBadRequest, `{"detail":"Title is required"}`, http.StatusBadRequest, "Title is required"},
		{"error_field", http.StatusConflict, `{"error":"Already liked"}`, http.StatusConflict, "Already liked"},
		{"unparseable", http.StatusNotFound, `<html>nope</html>`, http.StatusNotFound, "Failed to like portfolio"},
		{"unauthorized_empty", http.StatusUnauthorized, ``, http.StatusUnauthorized, "Failed to like portfolio"},
		{"server_error_hidden", http.StatusBadGateway, `{"detail":"db at 10.0.0.3 down"}`, http.StatusBadGateway, "Failed to like portfolio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend(t, tt.status, tt.body)
			handler := newProxy(backend.server.URL, nil).Handle(proxy.Route{
				Path:           proxy.Static("/api/portfolios/p1/like"),
				NoStore:        true,
				FailureMessage: "Failed to like portfolio",
			})

			recorder := serve(handler, httptest.NewRequest(http.MethodPost, "/api/portfolios/p1/like", nil))

			assert.Equal(t, tt.wantStatus, recorder.Code)
			body := decode(t, recorder)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantMessage, body["error"])
			assert.NotContains(t, recorder.Body.String(), "10.0.0.3")
		})
	}
}

/*
TestHandle_NetworkFailure verifies transport errors become a generic 500.
*/
func TestHandle_NetworkFailure(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	baseURL := backend.URL
	backend.Close()

	handler := newProxy(baseURL, nil).Handle(proxy.Route{
		Path:           proxy.Static("/api/auth/check-oauth-status"),
		FailureMessage: "Failed to check OAuth status",
	})

	recorder := serve(handler, httptest.NewRequest(http.MethodPost, "/api/auth/check-oauth-status", nil))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	body := decode(t, recorder)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Failed to check OAuth status", body["error"])
	assert.NotContains(t, recorder.Body.String(), "127.0.0.1")
}

/*
TestHandle_NonJSONSuccess verifies an unreadable success body is not relayed.
*/
func TestHandle_NonJSONSuccess(t *testing.T) {
	backend := newFakeBackend(t, http.StatusOK, `not json`)
	handler := newProxy(backend.server.URL, nil).Handle(proxy.Route{Path: proxy.Static("/api/portfolios")})

	recorder := serve(handler, httptest.NewRequest(http.MethodGet, "/api/portfolios", nil))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}

// # Response Cache

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func (cache *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	body, ok := cache.entries[key]
	return body, ok, nil
}

func (cache *memoryCache) Set(_ context.Context, key string, body []byte, _ time.Duration) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.entries[key] = body
	return nil
}

/*
TestHandle_CachesAnonymousReads verifies anonymous cacheable GETs hit the
backend once while credentialed GETs always go through.
*/
func TestHandle_CachesAnonymousReads(t *testing.T) {
	backend := newFakeBackend(t, http.StatusOK, `{"data":[]}`)
	cache := &memoryCache{entries: map[string][]byte{}}
	handler := newProxy(backend.server.URL, cache).Handle(proxy.Route{
		Path:      proxy.Static("/api/portfolios"),
		QueryFunc: pagination.Query,
		Cacheable: true,
	})

	for range 3 {
		recorder := serve(handler, httptest.NewRequest(http.MethodGet, "/api/portfolios", nil))
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, `{"data":[]}`, recorder.Body.String())
	}
	assert.Len(t, backend.Calls(), 1)
	assert.Contains(t, cache.entries, "gateway:response:/api/portfolios?limit=10&page=1")

	for range 2 {
		request := httptest.NewRequest(http.MethodGet, "/api/portfolios", nil)
		request.Header.Set("Authorization", "Bearer abc")
		serve(handler, request)
	}
	assert.Len(t, backend.Calls(), 3)
}

/*
TestHandle_CollapsesConcurrentMisses verifies concurrent anonymous misses
share one backend call.
*/
func TestHandle_CollapsesConcurrentMisses(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = io.WriteString(w, `{"data":[]}`)
	}))
	defer backend.Close()

	cache := &memoryCache{entries: map[string][]byte{}}
	handler := newProxy(backend.URL, cache).Handle(proxy.Route{
		Path:      proxy.Static("/api/portfolios"),
		Cacheable: true,
	})

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serve(handler, httptest.NewRequest(http.MethodGet, "/api/portfolios", nil))
		}()
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

/*
TestHandle_CacheFailureDegrades verifies cache errors fall through to the backend.
*/
func TestHandle_CacheFailureDegrades(t *testing.T) {
	backend := newFakeBackend(t, http.StatusOK, `{"data":[]}`)
	handler := newProxy(backend.server.URL, brokenCache{}).Handle(proxy.Route{
		Path:      proxy.Static("/api/portfolios"),
		Cacheable: true,
	})

	for range 2 {
		recorder := serve(handler, httptest.NewRequest(http.MethodGet, "/api/portfolios", nil))
		assert.Equal(t, http.StatusOK, recorder.Code)
	}
	assert.Len(t, backend.Calls(), 2)
}

/*
TestRedisResponseCache_Unreachable verifies connectivity errors are reported
as errors rather than misses.
*/
func TestRedisResponseCache_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	cache := proxy.NewRedisResponseCache(client)

	_, found, err := cache.Get(context.Background(), "gateway:response:/api/portfolios")
	assert.False(t, found)
	assert.ErrorContains(t, err, "redis_response_get_failed")

	err = cache.Set(context.Background(), "gateway:response:/api/portfolios", []byte(`{}`), time.Second)
	assert.ErrorContains(t, err, "redis_response_set_failed")
}
