package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/workforce-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/tenant"
	"github.com/go-chi/jwtauth/v5"
)

// RequireCompany turns the token claims into a tenant.Context. Tokens of
// users still onboarding carry no company and are rejected here.
func RequireCompany(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.HandleError(w, user.ErrCompanyIDRequired)
			return
		}

		tc, err := tenant.FromClaims(claims)
		if err != nil || user.Role(tc.Role) == user.RolePending {
			response.HandleError(w, user.ErrCompanyIDRequired)
			return
		}

		next.ServeHTTP(w, r.WithContext(tenant.WithContext(r.Context(), tc)))
	})
}
