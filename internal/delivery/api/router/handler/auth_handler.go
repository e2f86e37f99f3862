package handler

import (
	"net/http"
	"net/url"
	"strings"

	"storefront/config"
	"storefront/internal/delivery/api/middleware"
	"storefront/internal/delivery/api/response"
	"storefront/internal/domain/constants"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/errors"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// AuthHandler serves the public credential flows.
type AuthHandler struct {
	authUC       usecase.AuthUsecase
	frontend     *config.FrontendConfig
	secureCookie bool
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(authUC usecase.AuthUsecase, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authUC:       authUC,
		frontend:     cfg.Frontend,
		secureCookie: cfg.Env.Env != constants.EnvDevelop,
	}
}

func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authUC.SignUp(c.Request().Context(), usecase.SignUpInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, toUserResponse(user), "Account created, please verify your email")
}

func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.authUC.SignIn(c.Request().Context(), usecase.SignInInput{
		Email:    req.Email,
		Password: req.Password,
		Client:   clientInfo(c),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	h.setSessionCookie(c, out.Session)

	return response.Success(c, http.StatusOK, toAuthResponse(out.User, out.Session), "Signed in")
}

// GoogleSignIn signs up or in with a Google ID token.
func (h *AuthHandler) GoogleSignIn(c echo.Context) error {
	var req googleSignInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.authUC.GoogleSignIn(c.Request().Context(), req.IDToken, clientInfo(c))
	if err != nil {
		return errors.WithStack(err)
	}

	h.setSessionCookie(c, out.Session)

	return response.Success(c, http.StatusOK, toAuthResponse(out.User, out.Session), "Signed in with Google")
}

// VerifyEmail is opened from the email link, so it always answers with a redirect.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	token := c.QueryParam("token")
	email := c.QueryParam("email")

	if _, err := h.authUC.VerifyEmail(c.Request().Context(), token, email); err != nil {
		reason := domainerrors.ErrInternalError.ErrorCode()
		if appErr, ok := domainerrors.AsAppError(err); ok {
			reason = appErr.ErrorCode()
		}

		return c.Redirect(http.StatusFound, h.frontendURL(h.frontend.VerifyErrorPath, url.Values{"reason": {reason}}))
	}

	return c.Redirect(http.StatusFound, h.frontendURL(h.frontend.VerifySuccessPath, nil))
}

// RequestPasswordReset answers identically whether or not the email is registered.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req passwordResetRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authUC.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"status": "OK"},
		"If an account exists for this email, a reset link has been sent")
}

func (h *AuthHandler) SubmitPasswordReset(c echo.Context) error {
	var req passwordResetSubmitRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authUC.SubmitPasswordReset(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"status": "OK"}, "Password has been reset")
}

func (h *AuthHandler) frontendURL(path string, query url.Values) string {
	target := strings.TrimRight(h.frontend.BaseURL, "/") + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	return target
}

func (h *AuthHandler) setSessionCookie(c echo.Context, session *entity.Session) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    session.AccessToken,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
