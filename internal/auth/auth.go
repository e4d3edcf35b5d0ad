// Package auth gates admin operations behind a single shared secret.
package auth

import (
	"crypto/subtle"

	"event-invite/internal/apperr"
)

// HeaderName is the request header that carries the admin key.
const HeaderName = "X-Admin-Key"

// Admin checks keys against the configured admin secret.
type Admin struct {
	secret string
}

// NewAdmin creates an Admin for secret.
func NewAdmin(secret string) Admin {
	return Admin{secret: secret}
}

// Check returns an authorization error unless key equals the secret.
// An empty secret authorizes nobody.
func (a Admin) Check(key string) error {
	if a.secret == "" || key == "" {
		return apperr.Unauthorized()
	}
	if subtle.ConstantTimeCompare([]byte(key), []byte(a.secret)) != 1 {
		return apperr.Unauthorized()
	}
	return nil
}
