package middleware

import (
	"errors"
	"log/slog"

	"cart-service/internal/service"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

const principalKey = "principal"

// Authenticate requires a valid bearer token and attaches the verified
// principal to both the echo context and the request context.
func Authenticate(tokens service.TokenService, logger *slog.Logger) echo.MiddlewareFunc {
	return echomw.KeyAuthWithConfig(echomw.KeyAuthConfig{
		KeyLookup:  "header:" + echo.HeaderAuthorization,
		AuthScheme: "Bearer",
		Validator: func(raw string, c echo.Context) (bool, error) {
			req := c.Request()
			ctx := req.Context()

			principal, err := tokens.Validate(ctx, raw)
			if err != nil {
				logger.DebugContext(ctx, "token rejected", "path", req.URL.Path, "error", err)
				return false, err
			}

			c.Set(principalKey, principal)
			c.SetRequest(req.WithContext(service.WithPrincipal(ctx, principal)))
			return true, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			var missing *echomw.ErrKeyAuthMissing
			if errors.As(err, &missing) {
				return service.ErrUnauthenticated
			}
			return err
		},
	})
}

// RequireOwner rejects callers whose subject differs from the path param.
// There is no role based bypass.
func RequireOwner(param string, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal := CurrentPrincipal(c)
			if principal == nil {
				return service.ErrUnauthenticated
			}

			owner := c.Param(param)
			if principal.Username != owner {
				if principal.HasRole("ADMIN") {
					logger.WarnContext(c.Request().Context(), "admin denied access to foreign cart",
						"subject", principal.Username, "owner", owner)
				}
				return service.ErrForbidden
			}

			return next(c)
		}
	}
}

func CurrentPrincipal(c echo.Context) *service.Principal {
	p, _ := c.Get(principalKey).(*service.Principal)
	return p
}
