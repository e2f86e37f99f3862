package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/delivery/api/response"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/errors"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// VendorHandler serves vendor onboarding and the admin review queue.
type VendorHandler struct {
	vendorUC usecase.VendorUsecase
}

func NewVendorHandler(vendorUC usecase.VendorUsecase) *VendorHandler {
	return &VendorHandler{vendorUC: vendorUC}
}

// Register accepts the full onboarding form; field rules are enforced by the usecase.
func (h *VendorHandler) Register(c echo.Context) error {
	var req registerVendorRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	input := usecase.RegisterVendorInput{
		Email:            req.Email,
		Password:         req.Password,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Phone:            req.Phone,
		StoreName:        req.StoreName,
		StoreDescription: req.StoreDescription,
	}
	if b := req.BankAccount; b != nil {
		input.BankAccount = &entity.BankAccount{
			BankName:      b.BankName,
			AccountNumber: b.AccountNumber,
			AccountHolder: b.AccountHolder,
			IBAN:          b.IBAN,
		}
	}

	vendor, err := h.vendorUC.Register(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, toUserResponse(vendor),
		"Vendor registered, verify your email and wait for approval")
}

func (h *VendorHandler) ListPending(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	result, err := h.vendorUC.ListPending(c.Request().Context(), principal.User, page, limit)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"vendors":    toUserResponses(result.Vendors),
		"pagination": result.Pagination,
	}, "")
}

func (h *VendorHandler) Get(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	id, err := uuidParam(c, "id", domainerrors.ErrVendorNotFound)
	if err != nil {
		return err
	}

	vendor, err := h.vendorUC.Get(c.Request().Context(), principal.User, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toUserResponse(vendor), "")
}

func (h *VendorHandler) Approve(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	id, err := uuidParam(c, "id", domainerrors.ErrVendorNotFound)
	if err != nil {
		return err
	}

	vendor, err := h.vendorUC.Approve(c.Request().Context(), principal.User, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toUserResponse(vendor), "Vendor approved")
}

func (h *VendorHandler) Reject(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	id, err := uuidParam(c, "id", domainerrors.ErrVendorNotFound)
	if err != nil {
		return err
	}

	var req rejectVendorRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	vendor, err := h.vendorUC.Reject(c.Request().Context(), principal.User, id, req.Reason)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toUserResponse(vendor), "Vendor rejected")
}
