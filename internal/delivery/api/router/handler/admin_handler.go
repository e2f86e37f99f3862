package handler

import (
	"net/http"

	"storefront/internal/delivery/api/response"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/errors"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// AdminHandler serves super-admin provisioning.
type AdminHandler struct {
	adminUC usecase.AdminUsecase
}

func NewAdminHandler(adminUC usecase.AdminUsecase) *AdminHandler {
	return &AdminHandler{adminUC: adminUC}
}

func (h *AdminHandler) CreateAdmin(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var req createAdminRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.adminUC.CreateAdmin(c.Request().Context(), principal.User, usecase.CreateAdminInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		AdminType: entity.RoleName(req.AdminType),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	res := &createAdminResponse{
		ID:                    out.User.ID.String(),
		Email:                 out.User.Email,
		Role:                  req.AdminType,
		ExternalIdentityRef:   out.User.ExternalIdentityRef,
		Status:                out.Status,
		EmailVerificationSent: out.EmailVerificationSent,
	}
	if out.User.Role != nil {
		res.Role = out.User.Role.Name.String()
	}

	return response.Success(c, http.StatusCreated, res, "Admin account created, activation email sent")
}

func (h *AdminHandler) ResetUserPassword(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	id, err := uuidParam(c, "id", domainerrors.ErrUserNotFound)
	if err != nil {
		return err
	}

	var req resetUserPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.adminUC.ResetUserPassword(c.Request().Context(), principal.User, id, req.NewPassword); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Password reset")
}
