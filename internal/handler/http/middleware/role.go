package middleware

import (
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/workforce-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/tenant"
)

// RequireManager requires a role allowed to change schedules. It must run
// after RequireCompany.
func RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc, err := tenant.FromContext(r.Context())
		if err != nil {
			response.HandleError(w, err)
			return
		}

		if !user.Role(tc.Role).CanManageSchedules() {
			response.HandleError(w, user.ErrManagerAccessRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequirePermission checks if user has specific permission
func RequirePermission(permission user.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tc, err := tenant.FromContext(r.Context())
			if err != nil {
				response.HandleError(w, err)
				return
			}

			role := user.Role(tc.Role)
			if !user.HasPermission(role, permission) {
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: required '%s', but user role is '%s'", permission, role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
