package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// authenticator is the bearer-token defense-in-depth gate on the
// governance-submission endpoint, grounded on the teacher's
// gateway/middleware.Authenticator. It authenticates the API caller; the
// on-chain SIG_THRESHOLD check in staking/governance authenticates the
// operation itself and is what actually matters for consensus safety.
type authenticator struct {
	secret []byte
	issuer string
}

func newAuthenticator(secret, issuer string) *authenticator {
	return &authenticator{secret: []byte(strings.TrimSpace(secret)), issuer: issuer}
}

// enabled reports whether a secret has been configured; an empty secret
// disables the gate entirely (e.g. local development).
func (a *authenticator) enabled() bool { return len(a.secret) > 0 }

func (a *authenticator) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.enabled() {
			next.ServeHTTP(w, r)
			return
		}
		token := extractBearer(r.Header.Get("Authorization"))
		if token == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		if err := a.validate(token); err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *authenticator) validate(tokenString string) error {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwt.WithLeeway(2*time.Minute))
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return errors.New("token invalid")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return errors.New("claims not map")
	}
	if a.issuer != "" {
		iss, ok := claims["iss"].(string)
		if !ok || iss != a.issuer {
			return errors.New("issuer mismatch")
		}
	}
	return nil
}

func extractBearer(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
