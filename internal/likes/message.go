// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package likes

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusCoder is implemented by errors that carry a gateway HTTP answer.
type StatusCoder interface {
	error
	StatusCode() int

	// Reason returns the gateway's error or detail text, if any.
	Reason() string
}

// Message turns a [Toggler.Toggle] error into text for the user.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var status StatusCoder
	if !errors.As(err, &status) {
		return "Network error: " + err.Error()
	}

	switch status.StatusCode() {
	case http.StatusUnauthorized:
		return "Login required"
	case http.StatusNotFound:
		return "Portfolio not found"
	}

	reason := status.Reason()
	if reason == "" {
		reason = "Failed to process like"
	}
	return fmt.Sprintf("Error (%d): %s", status.StatusCode(), reason)
}
