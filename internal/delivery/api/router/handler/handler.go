// Package handler contains the HTTP handlers for the application.
package handler

import (
	deliverycontext "storefront/internal/delivery/context"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/usecase"
	"storefront/internal/util"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// bindAndValidate decodes the body into req and runs the registered validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails("malformed request body")
	}

	return c.Validate(req)
}

func principalFrom(c echo.Context) (*usecase.Principal, error) {
	principal, ok := deliverycontext.GetPrincipal(c)
	if !ok {
		return nil, domainerrors.ErrUnauthorized
	}

	return principal, nil
}

func clientInfo(c echo.Context) usecase.ClientInfo {
	req := c.Request()

	return usecase.ClientInfo{
		UserAgent: req.UserAgent(),
		IPAddress: util.ClientIP(req.Header.Get(echo.HeaderXForwardedFor), req.Header.Get(echo.HeaderXRealIP), req.RemoteAddr),
	}
}

func uuidParam(c echo.Context, name string, notFound *domainerrors.BaseError) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, notFound
	}

	return id, nil
}
