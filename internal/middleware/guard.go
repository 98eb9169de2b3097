package middleware

import (
	"net/http"
	"strings"
)

// ViewGuard gates the HTML views. Unlike RequireAuth it never answers with
// JSON: a visitor without a valid session is sent back to the entry view.
type ViewGuard struct {
	validator tokenValidator
	entryPath string
}

func NewViewGuard(validator tokenValidator, entryPath string) *ViewGuard {
	if strings.TrimSpace(entryPath) == "" {
		entryPath = "/"
	}
	return &ViewGuard{validator: validator, entryPath: entryPath}
}

func (g *ViewGuard) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(AccessTokenCookie)
		if err != nil || strings.TrimSpace(cookie.Value) == "" {
			g.redirect(w, r)
			return
		}

		claims, err := g.validator.Validate(strings.TrimSpace(cookie.Value), "access")
		if err != nil {
			g.redirect(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// RequireRole must run after RequireSession.
func (g *ViewGuard) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok || !strings.EqualFold(claims.Role, role) {
				g.redirect(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g *ViewGuard) redirect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, g.entryPath, http.StatusFound)
}
