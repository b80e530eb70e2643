// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/folio/internal/platform/constants"
	"github.com/taibuivan/folio/internal/platform/ctxutil"
	"github.com/taibuivan/folio/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: any (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target any) error {
	body := http.MaxBytesReader(nil, request.Body, constants.MaxRequestBodyBytes)
	if err := json.NewDecoder(body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
RawJSON reads the request body for verbatim relay.

An empty body is returned as nil; a non-empty body must be valid JSON.

Returns:
  - []byte: The compacted JSON body, or nil when empty
  - error: validate.ErrInvalidJSON if the body is not JSON
*/
func RawJSON(request *http.Request) ([]byte, error) {
	if request.Body == nil {
		return nil, nil
	}

	raw, err := io.ReadAll(http.MaxBytesReader(nil, request.Body, constants.MaxRequestBodyBytes))
	if err != nil {
		return nil, validate.ErrInvalidJSON
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}

	if !json.Valid(raw) {
		return nil, validate.ErrInvalidJSON
	}
	return raw, nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Credential returns the bearer credential resolved by the credential middleware.

Returns false if the request is anonymous.
*/
func Credential(request *http.Request) (ctxutil.Credential, bool) {
	return ctxutil.GetCredential(request.Context())
}
