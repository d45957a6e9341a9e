package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

type role int

const (
	roleNone role = iota
	rolePublic
	roleAdmin
)

// Keys are the API keys accepted for read (Public) and write (Admin) routes.
// Admin keys also grant read access.
type Keys struct {
	Public []string
	Admin  []string
}

func (k Keys) roleOf(given string) role {
	switch {
	case given == "":
		return roleNone
	case matchAny(given, k.Admin):
		return roleAdmin
	case matchAny(given, k.Public):
		return rolePublic
	}
	return roleNone
}

// RequireAny admits callers holding a public or admin key. With no keys
// configured at all it admits everyone (local dev).
func RequireAny(keys Keys) func(http.Handler) http.Handler {
	return keys.require(rolePublic, len(keys.Public)+len(keys.Admin) > 0)
}

// RequireAdmin admits only admin keys: no or unknown key gets 401, a public
// key 403. With no admin keys configured it admits everyone.
func RequireAdmin(keys Keys) func(http.Handler) http.Handler {
	return keys.require(roleAdmin, len(keys.Admin) > 0)
}

func (k Keys) require(min role, enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch got := k.roleOf(apiKey(r)); {
			case got >= min:
				next.ServeHTTP(w, r)
			case got == roleNone:
				deny(w, http.StatusUnauthorized, "unauthorized")
			default:
				deny(w, http.StatusForbidden, "forbidden")
			}
		})
	}
}

// apiKey reads "Authorization: Bearer <key>" or X-API-Key.
func apiKey(r *http.Request) string {
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

func matchAny(given string, set []string) bool {
	ok := false
	for _, k := range set {
		// no early return; every configured key is compared
		if subtle.ConstantTimeCompare([]byte(k), []byte(given)) == 1 {
			ok = true
		}
	}
	return ok
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
