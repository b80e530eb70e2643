// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"net/http"

	"github.com/taibuivan/folio/internal/platform/constants"
)

// Cookies writes and clears the two session cookies.
//
// auth_token is httpOnly so page script can never read the bearer token.
// user_id is readable by the page and carries no authority.
type Cookies struct {
	// Secure adds the Secure attribute. Enabled in production.
	Secure bool
}

// Set writes auth_token and, when userID is non-empty, user_id.
func (cookies Cookies) Set(writer http.ResponseWriter, token, userID string) {
	http.SetCookie(writer, cookies.build(constants.AuthTokenCookieName, token, true, int(constants.SessionCookieTTL.Seconds())))

	if userID != "" {
		http.SetCookie(writer, cookies.build(constants.UserIDCookieName, userID, false, int(constants.SessionCookieTTL.Seconds())))
	}
}

// Clear expires both cookies. Clearing cookies that are not set is harmless.
func (cookies Cookies) Clear(writer http.ResponseWriter) {
	// MaxAge < 0 is emitted as "Max-Age=0".
	http.SetCookie(writer, cookies.build(constants.AuthTokenCookieName, "", true, -1))
	http.SetCookie(writer, cookies.build(constants.UserIDCookieName, "", false, -1))
}

func (cookies Cookies) build(name, value string, httpOnly bool, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     constants.SessionCookiePath,
		MaxAge:   maxAge,
		HttpOnly: httpOnly,
		Secure:   cookies.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
