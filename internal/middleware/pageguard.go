package middleware

import (
	"net/url"
	"strings"

	"ganttboard/pkg/auth"

	"github.com/gofiber/fiber/v2"
)

// AccessTokenCookie is the cookie checked by the page guard. API clients
// use the Authorization header; browser page loads carry this cookie.
const AccessTokenCookie = "access_token"

// PageGuard enforces the page-level routing rules:
//   - unauthenticated visits to /dashboard pages redirect to /login,
//     preserving the intended destination in ?redirect=
//   - authenticated visits to /login or /register redirect to /dashboard
//   - when no JWT secret is configured, guarded pages redirect to
//     /login?error=config instead of rendering half-broken
//
// Public pages pass through untouched.
func PageGuard(jwtAuth *auth.JWTAuth) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		guarded := isGuardedPage(path)
		authPage := path == "/login" || path == "/register"

		if !guarded && !authPage {
			return c.Next()
		}

		if jwtAuth == nil {
			if guarded {
				return c.Redirect("/login?error=config", fiber.StatusFound)
			}
			return c.Next()
		}

		authenticated := false
		if token := c.Cookies(AccessTokenCookie); token != "" {
			if _, err := jwtAuth.VerifyAccessToken(token); err == nil {
				authenticated = true
			}
		}

		if guarded && !authenticated {
			return c.Redirect("/login?redirect="+url.QueryEscape(c.OriginalURL()), fiber.StatusFound)
		}

		if authPage && authenticated {
			return c.Redirect("/dashboard", fiber.StatusFound)
		}

		return c.Next()
	}
}

func isGuardedPage(path string) bool {
	return path == "/dashboard" || strings.HasPrefix(path, "/dashboard/")
}
