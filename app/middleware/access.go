package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/portal-payments/app/factory"
	"github.com/vibast-solutions/portal-payments/app/types"
)

const HeaderAPIKey = "X-API-Key"

// AccessGuard protects the companion API. Browsers are refused unless their
// origin is allowed, and every caller must present the install's API key.
type AccessGuard struct {
	apiKey  string
	origins map[string]struct{}
	logger  logrus.FieldLogger
}

func NewAccessGuard(apiKey string, allowedOrigins []string) *AccessGuard {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origins[strings.ToLower(origin)] = struct{}{}
	}
	return &AccessGuard{
		apiKey:  apiKey,
		origins: origins,
		logger:  factory.NewModuleLogger("access-guard"),
	}
}

func (g *AccessGuard) AllowedOrigins() []string {
	out := make([]string, 0, len(g.origins))
	for origin := range g.origins {
		out = append(out, origin)
	}
	return out
}

// RejectForeignOrigins answers 403 to any request whose Origin header is not
// in the allow list, preflights included.
func (g *AccessGuard) RejectForeignOrigins() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			origin := strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderOrigin))
			if origin == "" {
				return next(ctx)
			}
			if _, ok := g.origins[strings.ToLower(strings.TrimRight(origin, "/"))]; ok {
				return next(ctx)
			}
			factory.LoggerWithContext(g.logger, ctx).WithField("origin", origin).Warn("Cross-origin request refused")
			return ctx.JSON(http.StatusForbidden, &types.ErrorResponse{Error: "Origin not allowed"})
		}
	}
}

// RequireAPIKey checks X-API-Key on every route except the open paths.
func (g *AccessGuard) RequireAPIKey(openPaths ...string) echo.MiddlewareFunc {
	open := make(map[string]struct{}, len(openPaths))
	for _, p := range openPaths {
		open[p] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if _, ok := open[ctx.Request().URL.Path]; ok {
				return next(ctx)
			}
			if !g.validKey(ctx.Request().Header.Get(HeaderAPIKey)) {
				factory.LoggerWithContext(g.logger, ctx).Warn("Request without a valid API key refused")
				return ctx.JSON(http.StatusUnauthorized, &types.ErrorResponse{Error: "Missing or invalid API key"})
			}
			return next(ctx)
		}
	}
}

func (g *AccessGuard) validKey(presented string) bool {
	presented = strings.TrimSpace(presented)
	if g.apiKey == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(g.apiKey)) == 1
}
