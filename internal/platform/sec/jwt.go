// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec reads identity hints from the bearer credentials the gateway relays.
//
// # Architecture
//
// The gateway never holds the backend's signing key, so tokens are decoded
// without signature verification. The result is only used to build backend
// paths; the backend re-validates the same token on every call, so a forged
// subject can only ever address data the backend itself refuses to serve.
package sec

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSubject is returned when a token carries no usable user identifier.
var ErrNoSubject = errors.New("sec: token has no subject claim")

// subjectClaims lists the claim names the backend has used for the user id, in priority order.
var subjectClaims = []string{"sub", "user_id", "uid"}

/*
Subject extracts the user identifier from an access token.

Parameters:
  - token: The raw bearer token (without the "Bearer " prefix)

Returns:
  - string: The first non-empty value among sub, user_id and uid
  - error: A parse error, or [ErrNoSubject]
*/
func Subject(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("sec: failed to decode token: %w", err)
	}

	for _, name := range subjectClaims {
		switch value := claims[name].(type) {
		case string:
			if value != "" {
				return value, nil
			}
		case float64:
			// Numeric ids arrive as JSON numbers.
			return fmt.Sprintf("%.0f", value), nil
		}
	}

	return "", ErrNoSubject
}
