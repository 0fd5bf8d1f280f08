package middleware

import (
	"net/http"

	goAuthBridge "github.com/MrEthical07/goAuthBridge"
)

// RequireAdmin wraps next so that only users whose stored role is ADMIN
// get through. It must run inside RequireUser or RequireBearer.
func RequireAdmin(f *goAuthBridge.Facade) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if f == nil || !f.IsAdmin(r.Context(), u.ID) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSelfOrAdmin admits callers whose id equals the request path value
// named param, and admins reading any id. It must run inside RequireUser
// or RequireBearer.
func RequireSelfOrAdmin(f *goAuthBridge.Facade, param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			target := r.PathValue(param)
			if target == "" || (target != u.ID && (f == nil || !f.IsAdmin(r.Context(), u.ID))) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
