// Package tenant carries the caller's company scope. Every store and
// resolver call receives a Context explicitly instead of re-reading JWT
// claims.
package tenant

import (
	"context"
	"errors"
)

var ErrCompanyRequired = errors.New("company ID is required")

type Context struct {
	CompanyID string
	UserID    string
	Role      string
}

// FromClaims builds a Context from verified access-token claims.
func FromClaims(claims map[string]interface{}) (Context, error) {
	companyID, _ := claims["company_id"].(string)
	if companyID == "" {
		return Context{}, ErrCompanyRequired
	}
	userID, _ := claims["user_id"].(string)
	role, _ := claims["role"].(string)
	return Context{CompanyID: companyID, UserID: userID, Role: role}, nil
}

type ctxKey struct{}

func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, tc)
}

func FromContext(ctx context.Context) (Context, error) {
	tc, ok := ctx.Value(ctxKey{}).(Context)
	if !ok || tc.CompanyID == "" {
		return Context{}, ErrCompanyRequired
	}
	return tc, nil
}
