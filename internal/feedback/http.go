// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package feedback relays portfolio feedback.

The browser addresses feedback through its portfolio
(/api/portfolios/{id}/feedbacks); the backend keeps a flat /api/feedbacks
collection. Creation therefore moves the portfolio id from the path into the
JSON body.
*/
package feedback

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/folio/internal/platform/proxy"
	requestutil "github.com/taibuivan/folio/internal/platform/request"
	"github.com/taibuivan/folio/internal/platform/validate"
	"github.com/taibuivan/folio/pkg/pagination"
)

// FieldPortfolioID is the body field the backend reads the target portfolio from.
const FieldPortfolioID = "portfolio_id"

// Handler implements the feedback endpoints.
type Handler struct {
	proxy *proxy.Proxy
}

// NewHandler constructs a [Handler].
func NewHandler(relay *proxy.Proxy) *Handler {
	return &Handler{proxy: relay}
}

// RegisterPortfolioScoped adds the feedback routes nested under a portfolio.
//
// # Endpoints
//   - GET  /{id}/feedbacks : Feedback on a portfolio.
//   - POST /{id}/feedbacks : Leaves feedback on a portfolio.
func (handler *Handler) RegisterPortfolioScoped(router chi.Router) {
	router.Get("/{id}/feedbacks", handler.proxy.Handle(proxy.Route{
		Path:           proxy.Template("/api/feedbacks/portfolios/%s/feedbacks", "id"),
		QueryFunc:      pagination.Query,
		Cacheable:      true,
		FailureMessage: "Failed to fetch feedbacks",
	}))
	router.Post("/{id}/feedbacks", handler.proxy.Handle(proxy.Route{
		Path:           proxy.Static("/api/feedbacks"),
		Body:           injectPortfolioID,
		FailureMessage: "Failed to create feedback",
	}))
}

// Routes returns the router mounted at /api/feedbacks.
//
// # Endpoints
//   - PATCH  /{id} : Edits a feedback entry.
//   - DELETE /{id} : Deletes a feedback entry.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Patch("/{id}", handler.proxy.Handle(proxy.Route{
		Path:           proxy.Template("/api/feedbacks/%s", "id"),
		ForwardBody:    true,
		FailureMessage: "Failed to update feedback",
	}))
	router.Delete("/{id}", handler.proxy.Handle(proxy.Route{
		Path:           proxy.Template("/api/feedbacks/%s", "id"),
		EmptyMessage:   "Feedback deleted",
		FailureMessage: "Failed to delete feedback",
	}))

	return router
}

// injectPortfolioID sets portfolio_id from the path, overriding any value in the body.
func injectPortfolioID(request *http.Request, body []byte) ([]byte, error) {
	payload := map[string]any{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
			return nil, validate.RequiredError("body", "Must be a JSON object")
		}
	}

	portfolioID := requestutil.Param(request, "id")
	validator := &validate.Validator{}
	if err := validator.PathSegment("id", portfolioID).Err(); err != nil {
		return nil, err
	}
	payload[FieldPortfolioID] = portfolioID

	return json.Marshal(payload)
}
