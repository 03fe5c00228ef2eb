package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Authorizer decides whether a request may trigger a sync run.
type Authorizer interface {
	Authorize(r *http.Request) bool
}

// BearerAuth accepts either the shared cron secret or a signed user session
// token, both via the Authorization header. An empty Secret disables the
// shared-secret path; nil SessionKey disables the session path.
type BearerAuth struct {
	Secret     string
	SessionKey []byte
}

func (a BearerAuth) Authorize(r *http.Request) bool {
	token := bearerToken(r)
	if token == "" {
		return false
	}

	if a.Secret != "" &&
		subtle.ConstantTimeCompare([]byte(token), []byte(a.Secret)) == 1 {
		return true
	}

	if len(a.SessionKey) > 0 && a.validSession(token) {
		return true
	}

	return false
}

// validSession verifies an HMAC-signed session JWT issued by the account
// system. The pipeline only cares that the session is genuine and unexpired.
func (a BearerAuth) validSession(token string) bool {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.SessionKey, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	return err == nil && parsed.Valid
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}
