package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// claimsKey is the fiber.Ctx locals key holding *Claims.
const claimsKey = "auth.claims"

// actionPaths are reached with GET but make the robot do something, so they
// need controller like any write.
var actionPaths = []string{
	"/ws/control", // GET upgrade carrying commands
	"/api/demo",
}

// Middleware guards fiber routes.
type Middleware struct {
	verifier *Verifier
	public   map[string]bool
}

// NewMiddleware creates a middleware. Paths in public skip the check.
func NewMiddleware(v *Verifier, public ...string) *Middleware {
	m := &Middleware{verifier: v, public: make(map[string]bool)}
	for _, p := range public {
		m.public[p] = true
	}
	return m
}

// Handler authenticates every request. Safe methods need viewer; writes and
// the GET routes in actionPaths need controller.
func (m *Middleware) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m.public[c.Path()] {
			return c.Next()
		}

		token := bearerToken(c)
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}
		claims, err := m.verifier.Verify(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		role := requiredRole(c.Method(), c.Path())
		if !claims.Has(role) {
			return fiber.NewError(fiber.StatusForbidden, role+" role required")
		}

		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

func requiredRole(method, path string) string {
	if method != fiber.MethodGet && method != fiber.MethodHead {
		return RoleController
	}
	for _, p := range actionPaths {
		if path == p || strings.HasPrefix(path, p+"/") {
			return RoleController
		}
	}
	return RoleViewer
}

// ClaimsFrom returns the claims stored by the middleware, if any.
func ClaimsFrom(c *fiber.Ctx) (*Claims, bool) {
	claims, ok := c.Locals(claimsKey).(*Claims)
	return claims, ok
}

// bearerToken reads the Authorization header, falling back to ?token= for
// browsers that cannot set headers on websocket upgrades.
func bearerToken(c *fiber.Ctx) string {
	if h := c.Get(fiber.HeaderAuthorization); h != "" {
		if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
			return strings.TrimSpace(h[7:])
		}
		return ""
	}
	return c.Query("token")
}
