package handler

import (
	"net/http"

	"storefront/internal/delivery/api/response"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/errors"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// ProfileHandler edits the local-only parts of the signed-in user.
type ProfileHandler struct {
	profileUC usecase.ProfileUsecase
}

func NewProfileHandler(profileUC usecase.ProfileUsecase) *ProfileHandler {
	return &ProfileHandler{profileUC: profileUC}
}

func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.profileUC.UpdateProfile(c.Request().Context(), principal.User.ID, usecase.UpdateProfileInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		Avatar:      req.Avatar,
		DateOfBirth: req.DateOfBirth,
		Gender:      req.Gender,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toUserResponse(user), "Profile updated")
}

func (h *ProfileHandler) UpdatePreferences(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var req updatePreferencesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	input := usecase.UpdatePreferencesInput{
		Language: req.Language,
		Currency: req.Currency,
	}
	if n := req.Notifications; n != nil {
		input.EmailNotifications = n.Email
		input.SMSNotifications = n.SMS
		input.PushNotifications = n.Push
	}

	user, err := h.profileUC.UpdatePreferences(c.Request().Context(), principal.User.ID, input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toUserResponse(user), "Preferences updated")
}

func (h *ProfileHandler) ListAddresses(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	addresses, err := h.profileUC.ListAddresses(c.Request().Context(), principal.User.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	out := make([]*addressResponse, 0, len(addresses))
	for _, a := range addresses {
		out = append(out, toAddressResponse(a))
	}

	return response.Success(c, http.StatusOK, out, "")
}

func (h *ProfileHandler) AddAddress(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var req addressRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	address, err := h.profileUC.AddAddress(c.Request().Context(), principal.User.ID, req.toEntity())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, toAddressResponse(address), "Address added")
}

func (h *ProfileHandler) UpdateAddress(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	id, err := uuidParam(c, "id", domainerrors.ErrAddressNotFound)
	if err != nil {
		return err
	}

	var req addressRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	address := req.toEntity()
	address.ID = id

	updated, err := h.profileUC.UpdateAddress(c.Request().Context(), principal.User.ID, address)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toAddressResponse(updated), "Address updated")
}

func (h *ProfileHandler) DeleteAddress(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	id, err := uuidParam(c, "id", domainerrors.ErrAddressNotFound)
	if err != nil {
		return err
	}

	if err := h.profileUC.DeleteAddress(c.Request().Context(), principal.User.ID, id); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Address deleted")
}
