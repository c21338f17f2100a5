package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Open lists paths served without a token.
var Open = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
}

// Middleware requires "Authorization: Bearer <token>" on every path not in
// Open. An empty token rejects all protected requests; serve refuses to
// start without one.
func Middleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if Open[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			got, ok := bearer(r)
			if !ok {
				http.Error(w, "missing API token", http.StatusUnauthorized)
				return
			}
			if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				http.Error(w, "invalid API token", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearer reads the token from the Authorization header, or from the
// access_token query parameter on websocket upgrades where browsers cannot
// set headers.
func bearer(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer ")), true
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		if q := r.URL.Query().Get("access_token"); q != "" {
			return q, true
		}
	}
	return "", false
}
