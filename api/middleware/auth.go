package middleware

import (
	"errors"
	"net/http"

	"github.com/proteinapura/storefront/api/responses"
	"github.com/proteinapura/storefront/api/validators"
	"github.com/proteinapura/storefront/pkg/auth"
	pkgerrors "github.com/proteinapura/storefront/pkg/errors"
	"github.com/proteinapura/storefront/pkg/logger"
	"github.com/proteinapura/storefront/pkg/metrics"
)

// Authenticate resolves the bearer token to a user and seeds the request
// context with it. Any failure is a 401.
func Authenticate(verifier auth.Verifier, m *metrics.AdminMetrics, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := validators.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				m.Denied("missing_token")
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized"))
				return
			}

			user, err := verifier.Verify(r.Context(), token)
			if err != nil || user == nil {
				if err == nil {
					err = errors.New("verifier returned no user")
				}
				m.Denied("invalid_token")
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "Unauthorized"))
				return
			}

			ctx := WithUser(r.Context(), user)
			if logg != nil {
				ctx = logg.WithUserID(ctx, user.ID)
				ctx = logg.WithAdminEmail(ctx, user.Email)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminAuth gates the back-office: authentication first, then the email
// allow-list.
func AdminAuth(verifier auth.Verifier, allowList []string, m *metrics.AdminMetrics, logg *logger.Logger) func(http.Handler) http.Handler {
	authenticate := Authenticate(verifier, m, logg)
	allow := RequireAllowList(allowList, m, logg)
	return func(next http.Handler) http.Handler {
		return authenticate(allow(next))
	}
}
