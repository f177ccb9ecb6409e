package middleware

import (
	"context"

	"github.com/proteinapura/storefront/pkg/auth"
)

type contextKey string

const ctxUser contextKey = "auth_user"

// UserFromContext returns the authenticated user, or nil outside the admin gate.
func UserFromContext(ctx context.Context) *auth.User {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxUser).(*auth.User); ok {
		return v
	}
	return nil
}

// AdminEmailFromContext returns the caller's email, or "".
func AdminEmailFromContext(ctx context.Context) string {
	if u := UserFromContext(ctx); u != nil {
		return u.Email
	}
	return ""
}

// WithUser injects the authenticated user into the context.
func WithUser(ctx context.Context, user *auth.User) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUser, user)
}
