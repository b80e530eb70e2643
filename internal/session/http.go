// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session owns the browser session: the cookie endpoints, the OAuth
callback, and the account routes whose outcome changes the session.

# Architecture

The gateway is the only party that ever reads the auth_token cookie. Pages
hand a freshly issued token to set-cookie (or arrive through the OAuth
callback), and from then on every proxied call picks the credential up from
the cookie without page script touching it.

  - set-cookie, logout, callback: handled locally, never forwarded.
  - me, OAuth link management, withdraw, GitHub SSO: relayed to the backend.
*/
package session

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/folio/internal/platform/ctxutil"
	"github.com/taibuivan/folio/internal/platform/proxy"
	requestutil "github.com/taibuivan/folio/internal/platform/request"
	"github.com/taibuivan/folio/internal/platform/respond"
	"github.com/taibuivan/folio/internal/platform/upstream"
	"github.com/taibuivan/folio/internal/platform/validate"
)

// # Definitions & Constructors

// Options configures a [Handler].
type Options struct {
	Cookies Cookies

	// FeedPath is where a successful OAuth callback lands.
	FeedPath string

	// AuthErrorPath is where a failed OAuth callback lands, with ?message=.
	AuthErrorPath string
}

// Handler implements the session and account-lifecycle endpoints.
type Handler struct {
	proxy   *proxy.Proxy
	options Options
}

// NewHandler constructs a [Handler].
func NewHandler(relay *proxy.Proxy, options Options) *Handler {
	return &Handler{proxy: relay, options: options}
}

// Routes returns the router mounted at /api/auth.
//
// # Endpoints
//   - POST   /set-cookie          : Stores a token in the session cookies.
//   - POST   /logout              : Clears the session cookies.
//   - GET    /me                  : Current user.
//   - POST   /check-oauth-status  : OAuth link status.
//   - POST   /refresh-oauth       : Refreshes the OAuth link.
//   - POST   /disconnect-oauth    : Removes the OAuth link.
//   - DELETE /withdraw            : Deletes the account, then clears cookies.
//   - GET    /sso/github          : GitHub SSO entry URL.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Local endpoints
	router.Post("/set-cookie", handler.setCookie)
	router.Post("/logout", handler.logout)

	// Relayed endpoints
	router.Get("/me", handler.proxy.Handle(proxy.Route{
		Path:           proxy.Static("/api/auth/me"),
		FailureMessage: "Failed to get current user",
	}))
	router.Post("/check-oauth-status", handler.proxy.Handle(proxy.Route{
		Path:           proxy.Static("/api/auth/check-oauth-status"),
		FailureMessage: "Failed to check OAuth status",
	}))
	router.Post("/refresh-oauth", handler.proxy.Handle(proxy.Route{
		Path:           proxy.Static("/api/auth/refresh-oauth"),
		FailureMessage: "Failed to refresh OAuth",
	}))
	router.Post("/disconnect-oauth", handler.proxy.Handle(proxy.Route{
		Path:           proxy.Static("/api/auth/disconnect-oauth"),
		FailureMessage: "Failed to disconnect OAuth",
	}))
	router.Delete("/withdraw", handler.proxy.Handle(proxy.Route{
		Path:           proxy.Static("/api/auth/withdraw"),
		EmptyMessage:   "Account withdrawn",
		FailureMessage: "Failed to withdraw account",
		OnSuccess:      handler.clearOnSuccess,
	}))
	router.Get("/sso/github", handler.proxy.Handle(proxy.Route{
		Path:           proxy.Static("/api/auth/sso/github"),
		Public:         true,
		FailureMessage: "Failed to start GitHub sign-in",
	}))

	return router
}

// # Request Payloads

type setCookieRequest struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

/*
setCookie stores a backend-issued token in the session cookies.

POST /api/auth/set-cookie

Request:
  - Body: setCookieRequest (Token, UserID)

Response:
  - 200: { success:true, message:"Authentication successful" }
  - 400: ErrInvalidJSON or missing token; no cookie is written
*/
func (handler *Handler) setCookie(writer http.ResponseWriter, request *http.Request) {
	var input setCookieRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required("token", input.Token)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.options.Cookies.Set(writer, input.Token, input.UserID)

	ctxutil.GetLogger(request.Context()).InfoContext(request.Context(), "session_established")
	respond.Message(writer, http.StatusOK, "Authentication successful")
}

/*
logout clears the session cookies. The backend is not notified.

POST /api/auth/logout

Response:
  - 200: { success:true, message:"Logout successful" }
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	handler.options.Cookies.Clear(writer)
	respond.Message(writer, http.StatusOK, "Logout successful")
}

/*
Callback completes a browser OAuth round trip.

GET /auth/callback?token=&user_id=&provider=&error=&message=

Response:
  - 302 to FeedPath with both cookies set
  - 302 to AuthErrorPath?message= when the provider reported an error or
    no token was issued
*/
func (handler *Handler) Callback(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()
	logger := ctxutil.GetLogger(request.Context())

	if failure := query.Get("error"); failure != "" || query.Get("token") == "" {
		message := query.Get("message")
		if message == "" {
			message = "Authentication failed"
		}

		logger.WarnContext(request.Context(), "oauth_callback_failed",
			slog.String("provider", query.Get("provider")),
			slog.String("reason", failure),
		)
		http.Redirect(writer, request, handler.options.AuthErrorPath+"?message="+url.QueryEscape(message), http.StatusFound)
		return
	}

	handler.options.Cookies.Set(writer, query.Get("token"), query.Get("user_id"))

	logger.InfoContext(request.Context(), "oauth_callback_succeeded", slog.String("provider", query.Get("provider")))
	http.Redirect(writer, request, handler.options.FeedPath, http.StatusFound)
}

// clearOnSuccess drops the session once the backend has deleted the account.
func (handler *Handler) clearOnSuccess(writer http.ResponseWriter, _ *http.Request, _ *upstream.Response) {
	handler.options.Cookies.Clear(writer)
}
