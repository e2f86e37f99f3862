package middleware

import (
	"log/slog"
	"strings"

	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/errors"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// AccessTokenCookie is read when no Authorization header is present.
const AccessTokenCookie = "sAccessToken"

// AuthMiddleware resolves the session behind a request and enforces role and permission checks.
type AuthMiddleware struct {
	authUC       usecase.AuthUsecase
	permissionUC usecase.PermissionUsecase
	logger       *slog.Logger
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(authUC usecase.AuthUsecase, permissionUC usecase.PermissionUsecase, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{authUC: authUC, permissionUC: permissionUC, logger: logger}
}

// Authenticate verifies the access token and stores the principal on the context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := accessToken(c)
		if token == "" {
			return domainerrors.ErrUnauthorized
		}

		principal, err := m.authUC.Authenticate(c.Request().Context(), token)
		if err != nil {
			if _, ok := domainerrors.AsAppError(err); ok {
				return err
			}

			return errors.Wrap(domainerrors.ErrUnauthorized, err.Error())
		}

		deliverycontext.SetPrincipal(c, principal)

		ctx := c.Request().Context()
		logger := deliverycontext.GetLoggerOrDefault(ctx, m.logger).With(slog.String("user_id", principal.User.ID.String()))
		c.SetRequest(c.Request().WithContext(deliverycontext.WithLogger(ctx, logger)))

		return next(c)
	}
}

// RequirePermission must run after Authenticate.
func (m *AuthMiddleware) RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := deliverycontext.GetPrincipal(c)
			if !ok {
				return domainerrors.ErrUnauthorized
			}

			if err := m.permissionUC.RequirePermission(c.Request().Context(), principal.User, permission); err != nil {
				return err
			}

			return next(c)
		}
	}
}

// RequireRole must run after Authenticate.
func (m *AuthMiddleware) RequireRole(names ...entity.RoleName) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := deliverycontext.GetPrincipal(c)
			if !ok {
				return domainerrors.ErrUnauthorized
			}

			if err := m.permissionUC.RequireRole(c.Request().Context(), principal.User, names...); err != nil {
				return err
			}

			return next(c)
		}
	}
}

func accessToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}

	return ""
}
