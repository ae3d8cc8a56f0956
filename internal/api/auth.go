package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"net/http"
	"strings"
	"sync/atomic"
)

const controlTokenHeader = "X-Control-Token"

// TokenAuth guards command routes with a shared secret. The token is
// accepted from "Authorization: Bearer <token>" or the X-Control-Token
// header. An empty token disables the check.
type TokenAuth struct {
	digest   [sha256.Size]byte
	enabled  bool
	rejected atomic.Uint64
}

// NewTokenAuth creates a guard for token
func NewTokenAuth(token string) *TokenAuth {
	if token == "" {
		return &TokenAuth{}
	}
	return &TokenAuth{digest: sha256.Sum256([]byte(token)), enabled: true}
}

// Enabled reports whether a token is required
func (a *TokenAuth) Enabled() bool {
	return a != nil && a.enabled
}

// Check validates the request token in constant time
func (a *TokenAuth) Check(r *http.Request) bool {
	if !a.Enabled() {
		return true
	}
	return a.checkToken(requestToken(r))
}

func (a *TokenAuth) checkToken(token string) bool {
	if !a.Enabled() || token == "" {
		return false
	}
	got := sha256.Sum256([]byte(token))
	return hmac.Equal(got[:], a.digest[:])
}

// Middleware rejects requests without a valid token
func (a *TokenAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Check(r) {
			a.rejected.Add(1)
			RecordConnectionRejected("auth")
			w.Header().Set("WWW-Authenticate", `Bearer realm="control"`)
			writeError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Rejected returns how many requests were refused
func (a *TokenAuth) Rejected() uint64 {
	if a == nil {
		return 0
	}
	return a.rejected.Load()
}

func requestToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return r.Header.Get(controlTokenHeader)
}
