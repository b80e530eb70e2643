// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/folio/internal/platform/constants"
	"github.com/taibuivan/folio/internal/platform/ctxutil"
)

// ExtractCredential is the single place the gateway reads a bearer credential.
//
// # Precedence
//  1. The httpOnly auth cookie (browser callers).
//  2. An 'Authorization: Bearer <token>' header, for callers that cannot hold
//     cookies (CLI, server-to-server).
//
// The boolean is false when neither channel carries a non-empty token.
func ExtractCredential(request *http.Request) (ctxutil.Credential, bool) {
	if cookie, err := request.Cookie(constants.AuthTokenCookieName); err == nil && cookie.Value != "" {
		return ctxutil.Credential{Token: cookie.Value, Source: ctxutil.SourceCookie}, true
	}

	header := request.Header.Get(constants.HeaderAuthorization)
	if len(header) > len(constants.BearerPrefix) && strings.EqualFold(header[:len(constants.BearerPrefix)], constants.BearerPrefix) {
		if token := strings.TrimSpace(header[len(constants.BearerPrefix):]); token != "" {
			return ctxutil.Credential{Token: token, Source: ctxutil.SourceHeader}, true
		}
	}

	return ctxutil.Credential{}, false
}

// Credential resolves the bearer credential once and stores it in the context.
//
// Anonymous requests proceed untouched: the backend decides whether an
// operation needs authentication and answers 401, which is relayed as-is.
func Credential() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			credential, ok := ExtractCredential(request)
			if !ok {
				next.ServeHTTP(writer, request)
				return
			}

			ctx := ctxutil.WithCredential(request.Context(), credential)

			// The token itself is never logged.
			logger := ctxutil.GetLogger(ctx).With(slog.String("credential_source", string(credential.Source)))
			ctx = ctxutil.WithLogger(ctx, logger)

			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}
