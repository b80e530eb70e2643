// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/folio/internal/platform/ctxkey"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

// # Credentials

// Credential is a bearer token together with the channel it arrived on.
type Credential struct {
	Token  string
	Source CredentialSource
}

// CredentialSource names the channel a credential was read from.
type CredentialSource string

const (
	SourceCookie CredentialSource = "cookie"
	SourceHeader CredentialSource = "header"
)

// WithCredential returns a new context carrying the resolved credential.
func WithCredential(ctx context.Context, credential Credential) context.Context {
	return context.WithValue(ctx, ctxkey.KeyCredential, credential)
}

// GetCredential retrieves the credential from the context.
// The boolean is false when the request is anonymous.
func GetCredential(ctx context.Context) (Credential, bool) {
	credential, ok := ctx.Value(ctxkey.KeyCredential).(Credential)
	if !ok || credential.Token == "" {
		return Credential{}, false
	}
	return credential, true
}
