// internal/api/middleware/auth.go
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"xr-wallet/internal/api/types"
	"xr-wallet/internal/domain"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

type contextKey string

const contextRequester contextKey = "requester"

// Claims are issued by the identity provider. The user id travels in "sub".
type Claims struct {
	IsAdmin bool `json:"is_admin"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 bearer tokens against a shared secret.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier creates a Verifier for secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// ParseAndValidate verifies tokenStr and returns its claims.
func (v *Verifier) ParseAndValidate(tokenStr string) (*Claims, error) {
	claims := new(Claims)
	token, err := v.parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate rejects requests without a valid bearer token and stores the
// requester in the request context.
func Authenticate(v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r)
			if !ok {
				types.Error(w, http.StatusUnauthorized, "Missing bearer token")
				return
			}
			claims, err := v.ParseAndValidate(tokenStr)
			if err != nil {
				types.Error(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			requester := domain.NewRequester(claims.Subject, claims.IsAdmin)
			ctx := context.WithValue(r.Context(), contextRequester, requester)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequesterFrom returns the requester stored by Authenticate.
func RequesterFrom(ctx context.Context) (domain.Requester, bool) {
	requester, ok := ctx.Value(contextRequester).(domain.Requester)
	return requester, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
