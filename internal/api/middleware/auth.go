package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/loomnotes/loom/internal/api"
	"github.com/loomnotes/loom/internal/domain"
)

type contextKey string

const IdentityKey contextKey = "identity"

// IdentityResolver loads the full requester identity, including project
// memberships, for an authenticated employee ID. Memberships are resolved on
// every request; they are never cached across requests.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, employeeID string) (*domain.Identity, error)
}

// BearerAuth validates the Authorization bearer token and attaches the
// resolved identity to the request context.
func BearerAuth(secret []byte, resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				api.Error(w, http.StatusUnauthorized, "missing Authorization header")
				return
			}

			tokenString := strings.TrimPrefix(header, "Bearer ")
			if tokenString == header || tokenString == "" {
				api.Error(w, http.StatusUnauthorized, "malformed Authorization header")
				return
			}

			employeeID, err := verifyToken(tokenString, secret)
			if err != nil {
				api.Error(w, http.StatusUnauthorized, domain.ErrInvalidBearerToken.Message)
				return
			}

			identity, err := resolver.ResolveIdentity(r.Context(), employeeID)
			if err != nil {
				api.HandleError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func verifyToken(tokenString string, secret []byte) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", jwt.ErrTokenInvalidSubject
	}

	return subject, nil
}

// GetIdentity returns the authenticated identity from context, or nil.
func GetIdentity(ctx context.Context) *domain.Identity {
	identity, _ := ctx.Value(IdentityKey).(*domain.Identity)
	return identity
}

// GetEmployeeID returns the authenticated employee ID from context.
func GetEmployeeID(ctx context.Context) string {
	if identity := GetIdentity(ctx); identity != nil {
		return identity.ID
	}
	return ""
}
