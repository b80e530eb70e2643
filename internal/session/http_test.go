// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/folio/internal/platform/middleware"
	"github.com/taibuivan/folio/internal/platform/proxy"
	"github.com/taibuivan/folio/internal/platform/upstream"
	"github.com/taibuivan/folio/internal/session"
)

// # Test Fixtures

type fixture struct {
	router  http.Handler
	backend *httptest.Server

	mu             sync.Mutex
	authorizations []string
	status         int
}

func newFixture(t *testing.T, secure bool) *fixture {
	t.Helper()

	fx := &fixture{status: http.StatusOK}
	fx.backend = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fx.mu.Lock()
		fx.authorizations = append(fx.authorizations, r.Header.Get("Authorization"))
		status := fx.status
		fx.mu.Unlock()

		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"id":"u-1"}`)
	}))
	t.Cleanup(fx.backend.Close)

	client := upstream.NewClient(upstream.Options{BaseURL: fx.backend.URL, APIKey: "k", Timeout: 2 * time.Second})
	handler := session.NewHandler(proxy.New(client, nil, 0), session.Options{
		Cookies:       session.Cookies{Secure: secure},
		FeedPath:      "/feed",
		AuthErrorPath: "/auth/error",
	})

	router := chi.NewRouter()
	router.Use(middleware.Credential())
	router.Mount("/api/auth", handler.Routes())
	router.Get("/auth/callback", handler.Callback)
	fx.router = router

	return fx
}

func (fx *fixture) do(request *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	fx.router.ServeHTTP(recorder, request)
	return recorder
}

func (fx *fixture) setStatus(status int) {
	fx.mu.Lock()
	defer fx.mu.Unlock()
	fx.status = status
}

func (fx *fixture) Authorizations() []string {
	fx.mu.Lock()
	defer fx.mu.Unlock()
	return append([]string(nil), fx.authorizations...)
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, cookie := range cookies {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

// # Cookie Endpoints

/*
TestSetCookie_RoundTrip verifies that a token stored through set-cookie is
relayed as a bearer credential on the next proxied call.
*/
func TestSetCookie_RoundTrip(t *testing.T) {
	fx := newFixture(t, false)

	recorder := fx.do(httptest.NewRequest(http.MethodPost, "/api/auth/set-cookie", strings.NewReader(`{"token":"abc","user_id":"u-1"}`)))
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"success":true,"message":"Authentication successful"}`, recorder.Body.String())

	cookies := recorder.Result().Cookies()
	token := cookieByName(cookies, "auth_token")
	require.NotNil(t, token)
	assert.Equal(t, "abc", token.Value)
	assert.True(t, token.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, token.SameSite)
	assert.Equal(t, "/", token.Path)
	assert.Equal(t, 7*24*60*60, token.MaxAge)
	assert.False(t, token.Secure)

	userID := cookieByName(cookies, "user_id")
	require.NotNil(t, userID)
	assert.Equal(t, "u-1", userID.Value)
	assert.False(t, userID.HttpOnly)

	next := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	for _, cookie := range cookies {
		next.AddCookie(cookie)
	}
	recorder = fx.do(next)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, []string{"Bearer abc"}, fx.Authorizations())
}

/*
TestSetCookie_MissingToken verifies that no cookie is written without a token.
*/
func TestSetCookie_MissingToken(t *testing.T) {
	fx := newFixture(t, false)

	for _, body := range []string{`{"user_id":"u-1"}`, `{"token":"   "}`, `{"token":`} {
		recorder := fx.do(httptest.NewRequest(http.MethodPost, "/api/auth/set-cookie", strings.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, recorder.Code, body)
		assert.Empty(t, recorder.Header().Values("Set-Cookie"), body)
	}
}

/*
TestSetCookie_SecureInProduction verifies the Secure attribute.
*/
func TestSetCookie_SecureInProduction(t *testing.T) {
	fx := newFixture(t, true)

	recorder := fx.do(httptest.NewRequest(http.MethodPost, "/api/auth/set-cookie", strings.NewReader(`{"token":"abc"}`)))
	require.Equal(t, http.StatusOK, recorder.Code)

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Secure)
}

/*
TestLogout_Idempotent verifies that logout clears both cookies every time
and never calls the backend.
*/
func TestLogout_Idempotent(t *testing.T) {
	fx := newFixture(t, false)

	for range 2 {
		recorder := fx.do(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.JSONEq(t, `{"success":true,"message":"Logout successful"}`, recorder.Body.String())

		cookies := recorder.Result().Cookies()
		for _, name := range []string{"auth_token", "user_id"} {
			cookie := cookieByName(cookies, name)
			require.NotNil(t, cookie, name)
			assert.Empty(t, cookie.Value)
			assert.Negative(t, cookie.MaxAge)
		}
		assert.Contains(t, strings.Join(recorder.Header().Values("Set-Cookie"), ";"), "Max-Age=0")
	}

	assert.Empty(t, fx.Authorizations())
}

// # OAuth Callback

func TestCallback(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantLocation string
		wantCookies  bool
	}{
		{"success", "?token=abc&user_id=u-1&provider=github", "/feed", true},
		{"provider_error", "?error=access_denied&message=Denied+by+user", "/auth/error?message=Denied+by+user", false},
		{"missing_token", "?provider=github", "/auth/error?message=Authentication+failed", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, false)

			recorder := fx.do(httptest.NewRequest(http.MethodGet, "/auth/callback"+tt.query, nil))

			assert.Equal(t, http.StatusFound, recorder.Code)
			assert.Equal(t, tt.wantLocation, recorder.Header().Get("Location"))

			token := cookieByName(recorder.Result().Cookies(), "auth_token")
			if tt.wantCookies {
				require.NotNil(t, token)
				assert.Equal(t, "abc", token.Value)
			} else {
				assert.Nil(t, token)
			}
		})
	}
}

// # Relayed Endpoints

/*
TestWithdraw_ClearsCookiesOnSuccess verifies cookies are only dropped when
the backend accepted the withdrawal.
*/
func TestWithdraw_ClearsCookiesOnSuccess(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusForbidden} {
		fx := newFixture(t, false)
		fx.setStatus(status)

		request := httptest.NewRequest(http.MethodDelete, "/api/auth/withdraw", nil)
		request.AddCookie(&http.Cookie{Name: "auth_token", Value: "abc"})
		recorder := fx.do(request)

		assert.Equal(t, status, recorder.Code)
		cleared := cookieByName(recorder.Result().Cookies(), "auth_token") != nil
		assert.Equal(t, status == http.StatusOK, cleared, "status %d", status)
		assert.Equal(t, []string{"Bearer abc"}, fx.Authorizations())
	}
}

/*
TestSSOGitHub_IsPublic verifies the SSO entry point works without a session.
*/
func TestSSOGitHub_IsPublic(t *testing.T) {
	fx := newFixture(t, false)

	recorder := fx.do(httptest.NewRequest(http.MethodGet, "/api/auth/sso/github", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, []string{""}, fx.Authorizations())
}
