package handler

import (
	"net/http"

	"storefront/internal/delivery/api/response"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/errors"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// UserHandler serves the signed-in user's account and sessions.
type UserHandler struct {
	authUC    usecase.AuthUsecase
	sessionUC usecase.SessionUsecase
}

// NewUserHandler is the constructor for UserHandler, injected by Fx.
func NewUserHandler(authUC usecase.AuthUsecase, sessionUC usecase.SessionUsecase) *UserHandler {
	return &UserHandler{authUC: authUC, sessionUC: sessionUC}
}

// Me returns the sanitised user behind the session.
func (h *UserHandler) Me(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, toUserResponse(principal.User), "")
}

func (h *UserHandler) Logout(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	if err := h.sessionUC.Logout(c.Request().Context(), principal.ExternalID(), principal.SessionHandle()); err != nil {
		return errors.WithStack(err)
	}
	clearSessionCookie(c)

	return response.Success(c, http.StatusOK, nil, "Logged out")
}

func (h *UserHandler) LogoutAll(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	if err := h.sessionUC.LogoutAll(c.Request().Context(), principal.ExternalID()); err != nil {
		return errors.WithStack(err)
	}
	clearSessionCookie(c)

	return response.Success(c, http.StatusOK, nil, "Logged out from all devices")
}

func (h *UserHandler) ListSessions(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	sessions, err := h.sessionUC.ListActiveSessions(c.Request().Context(), principal.ExternalID(), principal.SessionHandle(), clientInfo(c))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"sessions": sessions,
		"total":    len(sessions),
	}, "")
}

func (h *UserHandler) SessionStats(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	stats, err := h.sessionUC.GetSessionStatistics(c.Request().Context(), principal.ExternalID(), principal.SessionHandle())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, stats, "")
}

// RevokeSession refuses the caller's own handle; logout covers that case.
func (h *UserHandler) RevokeSession(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	handle := c.Param("handle")
	if handle == "" {
		return domainerrors.ErrSessionHandleRequired
	}

	if err := h.sessionUC.RevokeSession(c.Request().Context(), principal.ExternalID(), handle, principal.SessionHandle()); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"sessionHandle": handle}, "Session revoked")
}

func (h *UserHandler) ChangePassword(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authUC.ChangePassword(c.Request().Context(), principal.ExternalID(), usecase.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	}); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Password updated")
}

// DeleteAccount needs the current password; every session ends with the account.
func (h *UserHandler) DeleteAccount(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var req deleteAccountRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authUC.DeleteAccount(c.Request().Context(), principal.ExternalID(), req.Password); err != nil {
		return errors.WithStack(err)
	}
	clearSessionCookie(c)

	return response.Success(c, http.StatusOK, nil, "Account deleted")
}

func (h *UserHandler) ResendVerification(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	if err := h.authUC.ResendVerification(c.Request().Context(), principal.ExternalID()); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Verification email sent")
}
