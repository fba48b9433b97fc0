package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists URL paths that bypass authentication: infrastructure
// endpoints that load balancers and uptime probes hit without
// credentials.
var publicPaths = map[string]bool{
	"/health":    true,
	"/health/db": true,
}

// AuthSkipper reports whether the request's path should skip
// authentication. JWTMiddleware consults it before demanding a token.
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Request().URL.Path]
}
