package middleware

import (
	"net/http"
	"strings"

	"github.com/proteinapura/storefront/api/responses"
	pkgerrors "github.com/proteinapura/storefront/pkg/errors"
	"github.com/proteinapura/storefront/pkg/logger"
	"github.com/proteinapura/storefront/pkg/metrics"
)

// RequireAllowList rejects authenticated users whose email is not listed.
// An empty list admits every authenticated user.
func RequireAllowList(allowList []string, m *metrics.AdminMetrics, logg *logger.Logger) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowList))
	for _, email := range allowList {
		if e := normalizeEmail(email); e != "" {
			allowed[e] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		if len(allowed) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := allowed[normalizeEmail(AdminEmailFromContext(r.Context()))]; !ok {
				m.Denied("not_allow_listed")
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "Forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
