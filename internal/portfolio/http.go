// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package portfolio relays the portfolio catalogue and like endpoints.

Like state and single-portfolio reads are freshness sensitive: a stale
like count makes the optimistic client cache reconcile to the wrong value.
Those routes are marked no-store in both directions.
*/
package portfolio

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/folio/internal/platform/proxy"
	"github.com/taibuivan/folio/pkg/pagination"
)

// Handler implements the /api/portfolios endpoints.
type Handler struct {
	proxy *proxy.Proxy
}

// NewHandler constructs a [Handler].
func NewHandler(relay *proxy.Proxy) *Handler {
	return &Handler{proxy: relay}
}

// Register adds the portfolio routes to a router mounted at /api/portfolios.
//
// # Endpoints
//   - GET    /                : Paginated list (?page, ?limit).
//   - POST   /                : Create (201).
//   - GET    /{id}            : Single portfolio.
//   - PATCH  /{id}            : Update.
//   - DELETE /{id}            : Delete.
//   - POST   /{id}/like       : Like.
//   - DELETE /{id}/like       : Unlike.
//   - GET    /{id}/like-status: Whether the caller likes it.
func (handler *Handler) Register(router chi.Router) {
	router.Get("/", handler.proxy.Handle(proxy.Route{
		Path:           proxy.Static("/api/portfolios"),
		QueryFunc:      pagination.Query,
		Cacheable:      true,
		FailureMessage: "Failed to fetch portfolios",
	}))
	router.Post("/", handler.proxy.Handle(proxy.Route{
		Path:           proxy.Static("/api/portfolios"),
		ForwardBody:    true,
		SuccessStatus:  http.StatusCreated,
		FailureMessage: "Failed to create portfolio",
	}))

	router.Get("/{id}", handler.proxy.Handle(proxy.Route{
		Path:           proxy.Template("/api/portfolios/%s", "id"),
		NoStore:        true,
		FailureMessage: "Failed to fetch portfolio",
	}))
	router.Patch("/{id}", handler.proxy.Handle(proxy.Route{
		Path:           proxy.Template("/api/portfolios/%s", "id"),
		ForwardBody:    true,
		FailureMessage: "Failed to update portfolio",
	}))
	router.Delete("/{id}", handler.proxy.Handle(proxy.Route{
		Path:           proxy.Template("/api/portfolios/%s", "id"),
		NoStore:        true,
		EmptyMessage:   "Portfolio deleted",
		FailureMessage: "Failed to delete portfolio",
	}))

	router.Post("/{id}/like", handler.proxy.Handle(proxy.Route{
		Path:           proxy.Template("/api/portfolios/%s/like", "id"),
		NoStore:        true,
		FailureMessage: "Failed to like portfolio",
	}))
	router.Delete("/{id}/like", handler.proxy.Handle(proxy.Route{
		Path:           proxy.Template("/api/portfolios/%s/like", "id"),
		NoStore:        true,
		FailureMessage: "Failed to unlike portfolio",
	}))
	router.Get("/{id}/like-status", handler.proxy.Handle(proxy.Route{
		Path:           proxy.Template("/api/portfolios/%s/like-status", "id"),
		NoStore:        true,
		FailureMessage: "Failed to check like status",
	}))
}
