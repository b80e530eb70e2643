// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account relays the user profile routes mounted at /api/users.
*/
package account

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/folio/internal/platform/apperr"
	"github.com/taibuivan/folio/internal/platform/constants"
	"github.com/taibuivan/folio/internal/platform/ctxutil"
	"github.com/taibuivan/folio/internal/platform/proxy"
	requestutil "github.com/taibuivan/folio/internal/platform/request"
	"github.com/taibuivan/folio/internal/platform/sec"
	"github.com/taibuivan/folio/internal/platform/validate"
)

// Handler implements the /api/users endpoints.
type Handler struct {
	proxy *proxy.Proxy
}

// NewHandler constructs a [Handler].
func NewHandler(relay *proxy.Proxy) *Handler {
	return &Handler{proxy: relay}
}

// Routes returns the router mounted at /api/users.
//
// # Endpoints
//   - PATCH /me             : Updates the current user's profile.
//   - GET   /me/portfolios  : Portfolios owned by the current user.
//   - GET   /{id}/portfolios: Portfolios owned by any user.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Patch("/me", handler.proxy.Handle(proxy.Route{
		Path:           proxy.Static("/api/users/me"),
		ForwardBody:    true,
		FailureMessage: "Failed to update profile",
	}))
	router.Get("/me/portfolios", handler.proxy.Handle(proxy.Route{
		Path:           currentUserPortfolios,
		FailureMessage: "Failed to fetch user portfolios",
	}))
	router.Get("/{id}/portfolios", handler.proxy.Handle(proxy.Route{
		Path:           proxy.Template("/api/users/%s/portfolios", "id"),
		Cacheable:      true,
		FailureMessage: "Failed to fetch user portfolios",
	}))

	return router
}

/*
currentUserPortfolios resolves /api/users/me/portfolios to the owner's id.

The id comes from the bearer token's subject claim. When the token cannot be
decoded the user_id cookie written at sign-in is used instead.

Returns:
  - string: /api/users/{uid}/portfolios
  - error: apperr.Unauthorized if no user id can be resolved
*/
func currentUserPortfolios(request *http.Request) (string, error) {
	userID := resolveUserID(request)
	if userID == "" {
		return "", apperr.Unauthorized("Login required")
	}

	validator := &validate.Validator{}
	if err := validator.PathSegment("user_id", userID).Err(); err != nil {
		return "", err
	}

	return fmt.Sprintf("/api/users/%s/portfolios", url.PathEscape(userID)), nil
}

func resolveUserID(request *http.Request) string {
	if credential, ok := requestutil.Credential(request); ok {
		subject, err := sec.Subject(credential.Token)
		if err == nil {
			return subject
		}
		ctxutil.GetLogger(request.Context()).DebugContext(request.Context(), "token_subject_unavailable", slog.Any("error", err))
	}

	if cookie, err := request.Cookie(constants.UserIDCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
