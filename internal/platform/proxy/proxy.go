// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package proxy turns a declarative [Route] into a same-origin handler that
relays one browser request to the Folio backend.

# Request Lifecycle

	Received -> CredentialExtracted -> Forwarded -> Relayed | NormalizedError | GenericError

  - Relayed: a 2xx backend body is written back byte-for-byte.
  - NormalizedError: a non-2xx backend answer becomes { success:false, error }
    with the backend's status code. 4xx keeps the backend's detail text,
    5xx does not.
  - GenericError: transport failures and unreadable success bodies become a
    500 with the route's failure message. The cause is logged only.
*/
package proxy

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/taibuivan/folio/internal/platform/apperr"
	"github.com/taibuivan/folio/internal/platform/constants"
	"github.com/taibuivan/folio/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/folio/internal/platform/request"
	"github.com/taibuivan/folio/internal/platform/respond"
	"github.com/taibuivan/folio/internal/platform/upstream"
	"github.com/taibuivan/folio/internal/platform/validate"
)

// # Route Definition

// PathFunc builds the backend path for an incoming request.
// Returning an [*apperr.AppError] short-circuits the call.
type PathFunc func(request *http.Request) (string, error)

// BodyFunc rewrites the relayed JSON body before forwarding.
type BodyFunc func(request *http.Request, body []byte) ([]byte, error)

// SuccessHook runs after a 2xx backend answer, before the body is written.
type SuccessHook func(writer http.ResponseWriter, request *http.Request, response *upstream.Response)

// Route declares how one gateway endpoint maps onto the backend.
type Route struct {
	// Method is the backend method. Empty means the incoming method.
	Method string

	// Path builds the backend path.
	Path PathFunc

	// QueryFunc builds the forwarded query. Nil forwards none.
	QueryFunc func(request *http.Request) url.Values

	// Public routes never forward the caller's credential.
	Public bool

	// ForwardBody relays the incoming JSON body.
	ForwardBody bool

	// Body optionally rewrites the body; implies ForwardBody.
	Body BodyFunc

	// NoStore marks both the outbound call and the relayed response as uncacheable.
	NoStore bool

	// Cacheable allows anonymous GETs to be served from the response cache.
	Cacheable bool

	// SuccessStatus overrides the relayed 2xx status (e.g. 201 on create).
	SuccessStatus int

	// EmptyMessage is returned in the success envelope when the backend sends no body.
	EmptyMessage string

	// FailureMessage is the client-safe message used when the backend gives none.
	FailureMessage string

	// OnSuccess runs after a 2xx answer (cookie housekeeping).
	OnSuccess SuccessHook
}

// Static returns a [PathFunc] for a fixed backend path.
func Static(path string) PathFunc {
	return func(*http.Request) (string, error) { return path, nil }
}

/*
Template returns a [PathFunc] that fills each %s in format with the named
chi URL parameter, in order.

Every value must be a single path segment; it is escaped before splicing so
an identifier can never address a different backend resource.
*/
func Template(format string, params ...string) PathFunc {
	return func(request *http.Request) (string, error) {
		validator := &validate.Validator{}
		values := make([]any, len(params))
		for index, name := range params {
			value := requestutil.Param(request, name)
			validator.PathSegment(name, value)
			values[index] = url.PathEscape(value)
		}
		if err := validator.Err(); err != nil {
			return "", err
		}
		return fmt.Sprintf(format, values...), nil
	}
}

// # Proxy

// Proxy owns the backend client and the optional anonymous response cache.
type Proxy struct {
	client *upstream.Client
	cache  ResponseCache
	ttl    time.Duration
	group  singleflight.Group
}

// New constructs a [Proxy]. A nil cache disables response caching.
func New(client *upstream.Client, cache ResponseCache, ttl time.Duration) *Proxy {
	return &Proxy{client: client, cache: cache, ttl: ttl}
}

// Handle returns the http.HandlerFunc for a route.
func (proxy *Proxy) Handle(route Route) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		proxy.serve(writer, request, route)
	}
}

func (proxy *Proxy) serve(writer http.ResponseWriter, request *http.Request, route Route) {
	ctx := request.Context()
	logger := ctxutil.GetLogger(ctx)

	path, err := route.Path(request)
	if err != nil {
		if !apperr.IsAppError(err) {
			err = apperr.InternalWithMessage(route.failureMessage(), err)
		}
		respond.Error(writer, request, err)
		return
	}

	call := upstream.Call{
		Method:  route.Method,
		Path:    path,
		Query:   route.query(request),
		NoStore: route.NoStore,
	}
	if call.Method == "" {
		call.Method = request.Method
	}

	credential, authenticated := requestutil.Credential(request)
	authenticated = authenticated && !route.Public
	if authenticated {
		call.Token = credential.Token
	}

	if route.ForwardBody || route.Body != nil {
		raw, err := requestutil.RawJSON(request)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		if route.Body != nil {
			if raw, err = route.Body(request, raw); err != nil {
				respond.Error(writer, request, err)
				return
			}
		}
		call.Body = raw
	}

	var response *upstream.Response
	if proxy.cacheEligible(route, call, authenticated) {
		response, err = proxy.cachedDo(request, call)
	} else {
		response, err = proxy.client.Do(ctx, call)
	}

	if err != nil {
		respond.Error(writer, request, apperr.InternalWithMessage(route.failureMessage(), err))
		return
	}

	if !response.OK() {
		logger.WarnContext(ctx, "upstream_rejected",
			slog.String("upstream_path", call.Path),
			slog.Int("upstream_status", response.Status),
		)
		respond.Error(writer, request, normalize(route, response))
		return
	}

	relay(writer, request, route, response)
}

// relay writes a 2xx backend answer to the browser.
func relay(writer http.ResponseWriter, request *http.Request, route Route, response *upstream.Response) {
	status := response.Status
	if route.SuccessStatus != 0 {
		status = route.SuccessStatus
	}

	body := response.Body
	if len(body) > 0 && !json.Valid(body) {
		respond.Error(writer, request, apperr.InternalWithMessage(route.failureMessage(),
			fmt.Errorf("proxy: backend returned non-JSON body for %s", request.URL.Path)))
		return
	}

	if route.OnSuccess != nil {
		route.OnSuccess(writer, request, response)
	}
	if route.NoStore {
		respond.NoStore(writer)
	}

	if len(body) == 0 {
		// 204 cannot carry the envelope; the browser still expects JSON.
		if status == http.StatusNoContent {
			status = http.StatusOK
		}
		respond.Message(writer, status, route.EmptyMessage)
		return
	}

	respond.Raw(writer, status, body)
}

/*
normalize converts a non-2xx backend answer into an [apperr.AppError].

The backend body is parsed defensively: anything that is not a JSON object
is treated as an empty object.
*/
func normalize(route Route, response *upstream.Response) *apperr.AppError {
	var payload map[string]any
	if err := json.Unmarshal(response.Body, &payload); err != nil || payload == nil {
		payload = map[string]any{}
	}

	if response.Status >= http.StatusInternalServerError {
		return apperr.Upstream(response.Status, route.failureMessage())
	}

	message := route.failureMessage()
	if detail, ok := payload[constants.FieldDetail].(string); ok && detail != "" {
		message = detail
	} else if text, ok := payload[constants.FieldError].(string); ok && text != "" {
		message = text
	} else if text, ok := payload[constants.FieldMessage].(string); ok && text != "" {
		message = text
	}

	return apperr.Upstream(response.Status, message).WithDetail(payload[constants.FieldDetail])
}

func (route Route) query(request *http.Request) url.Values {
	if route.QueryFunc == nil {
		return nil
	}
	return route.QueryFunc(request)
}

func (route Route) failureMessage() string {
	if route.FailureMessage != "" {
		return route.FailureMessage
	}
	return "Internal Server Error"
}
