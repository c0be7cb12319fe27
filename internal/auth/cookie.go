package auth

import "net/http"

// CookieName is the session cookie holding the signed token.
const CookieName = "token"

// SetTokenCookie delivers a session token as an http-only, same-site
// strict cookie. Secure must be true behind encrypted transport in
// production.
func SetTokenCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(TokenExpiry.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearTokenCookie clears the session cookie with consistent attributes.
// A still-valid token remains honorable until expiry if replayed; there
// is no server-side revocation list.
func ClearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
