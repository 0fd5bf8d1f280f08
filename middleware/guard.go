package middleware

import (
	"context"
	"net/http"
	"strings"

	goAuthBridge "github.com/MrEthical07/goAuthBridge"
)

type userContextKey struct{}

// UserFromContext returns the user injected by a guard.
func UserFromContext(ctx context.Context) (*goAuthBridge.LocalUser, bool) {
	u, ok := ctx.Value(userContextKey{}).(*goAuthBridge.LocalUser)
	return u, ok && u != nil
}

// TokenVerifier maps a bearer access token to the user id it was issued
// for. gotrue.TokenVerifier implements it.
type TokenVerifier interface {
	VerifySubject(token string) (string, error)
}

// RequireUser admits requests while the facade has an active signed-in
// user.
func RequireUser(f *goAuthBridge.Facade) func(http.Handler) http.Handler {
	return guard(func(r *http.Request) (*goAuthBridge.LocalUser, int) {
		if f == nil {
			return nil, http.StatusUnauthorized
		}
		return admit(f.GetCurrentUser(r.Context()))
	})
}

// RequireBearer admits requests whose bearer token verifies and whose
// profile row exists and is active.
func RequireBearer(v TokenVerifier, f *goAuthBridge.Facade) func(http.Handler) http.Handler {
	return guard(func(r *http.Request) (*goAuthBridge.LocalUser, int) {
		if v == nil || f == nil {
			return nil, http.StatusUnauthorized
		}
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			return nil, http.StatusUnauthorized
		}
		id, err := v.VerifySubject(token)
		if err != nil {
			return nil, http.StatusUnauthorized
		}
		return admit(f.GetUserByID(r.Context(), id))
	})
}

func admit(u *goAuthBridge.LocalUser) (*goAuthBridge.LocalUser, int) {
	if u == nil {
		return nil, http.StatusUnauthorized
	}
	if !u.IsActive {
		return nil, http.StatusForbidden
	}
	return u, http.StatusOK
}

func guard(resolve func(*http.Request) (*goAuthBridge.LocalUser, int)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, status := resolve(r)
			if status != http.StatusOK {
				http.Error(w, strings.ToLower(http.StatusText(status)), status)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey{}, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
