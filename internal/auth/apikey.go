// Package auth provides API key authentication for the admin API.
package auth

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

type contextKey string

const keyNameKey contextKey = "api_key_name"

// KeyNameFromContext retrieves the authenticated key name from the request
// context. Returns an empty string if no key is set.
func KeyNameFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(keyNameKey).(string); ok {
		return name
	}
	return ""
}

// APIKey is a named credential. Hash is a bcrypt hash of the raw key; the
// raw key is never stored.
type APIKey struct {
	Name string
	Hash string
}

// Verifier checks presented API keys against a set of bcrypt hashes.
type Verifier struct {
	keys []APIKey
}

// NewVerifier creates a Verifier over the given keys.
func NewVerifier(keys []APIKey) *Verifier {
	return &Verifier{keys: keys}
}

// Verify returns the name of the matching key, or false when no key matches.
func (v *Verifier) Verify(rawKey string) (string, bool) {
	for _, k := range v.keys {
		if bcrypt.CompareHashAndPassword([]byte(k.Hash), []byte(rawKey)) == nil {
			return k.Name, true
		}
	}
	return "", false
}

// HashKey returns the bcrypt hash of a raw API key, for provisioning.
func HashKey(rawKey string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(rawKey), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// BearerAuth returns an HTTP middleware that validates Bearer token
// authentication against the verifier. On success, the key name is stored in
// the request context.
func BearerAuth(verifier *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"authorization header required"}`, http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, `{"error":"invalid authorization format, expected Bearer <token>"}`, http.StatusUnauthorized)
				return
			}

			rawKey := parts[1]
			if rawKey == "" {
				http.Error(w, `{"error":"empty API key"}`, http.StatusUnauthorized)
				return
			}

			name, ok := verifier.Verify(rawKey)
			if !ok {
				http.Error(w, `{"error":"invalid API key"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), keyNameKey, name)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
