// Package router wires handlers and middleware onto the echo instance.
package router

import (
	"storefront/config"
	"storefront/internal/delivery/api/middleware"
	"storefront/internal/delivery/api/response"
	"storefront/internal/delivery/api/router/handler"
	"storefront/internal/domain/entity"
	"storefront/internal/infra/metrics"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler    *handler.AuthHandler
	UserHandler    *handler.UserHandler
	ProfileHandler *handler.ProfileHandler
	VendorHandler  *handler.VendorHandler
	AdminHandler   *handler.AdminHandler
	AuthMiddleware *middleware.AuthMiddleware
	ResetLimiter   *middleware.RateLimiter
	Metrics        *metrics.Metrics `optional:"true"`
	Config         *config.Config
}

type router struct {
	authHandler    *handler.AuthHandler
	userHandler    *handler.UserHandler
	profileHandler *handler.ProfileHandler
	vendorHandler  *handler.VendorHandler
	adminHandler   *handler.AdminHandler
	authMiddleware *middleware.AuthMiddleware
	resetLimiter   *middleware.RateLimiter
	metrics        *metrics.Metrics
	config         *config.Config
}

// NewRouter is the constructor for the Router.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:    params.AuthHandler,
		userHandler:    params.UserHandler,
		profileHandler: params.ProfileHandler,
		vendorHandler:  params.VendorHandler,
		adminHandler:   params.AdminHandler,
		authMiddleware: params.AuthMiddleware,
		resetLimiter:   params.ResetLimiter,
		metrics:        params.Metrics,
		config:         params.Config,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", response.HealthCheck)

	if r.metrics != nil && r.config.Metrics.Enabled {
		e.GET(r.config.Metrics.Path, echo.WrapHandler(r.metrics.Handler()))
	}

	authGroup := e.Group("/auth")
	{
		authGroup.POST("/signup", r.authHandler.SignUp)
		authGroup.POST("/signin", r.authHandler.SignIn)
		authGroup.POST("/google", r.authHandler.GoogleSignIn)
		authGroup.GET("/verify-email", r.authHandler.VerifyEmail)
	}

	// Password reset is public; requests are throttled per client IP.
	e.POST("/user/password/reset", r.authHandler.RequestPasswordReset, r.resetLimiter.Handle)
	e.POST("/user/password/reset/submit", r.authHandler.SubmitPasswordReset, r.resetLimiter.Handle)

	userGroup := e.Group("/user", r.authMiddleware.Authenticate)
	{
		userGroup.GET("/me", r.userHandler.Me)
		userGroup.POST("/logout", r.userHandler.Logout)
		userGroup.POST("/logout/all", r.userHandler.LogoutAll)
		userGroup.GET("/sessions", r.userHandler.ListSessions)
		userGroup.GET("/sessions/stats", r.userHandler.SessionStats)
		userGroup.DELETE("/sessions/:handle", r.userHandler.RevokeSession)
		userGroup.PUT("/password", r.userHandler.ChangePassword)
		userGroup.DELETE("/account", r.userHandler.DeleteAccount)
		userGroup.POST("/verify-email/resend", r.userHandler.ResendVerification)

		userGroup.PUT("/profile", r.profileHandler.UpdateProfile)
		userGroup.PUT("/preferences", r.profileHandler.UpdatePreferences)
		userGroup.GET("/addresses", r.profileHandler.ListAddresses)
		userGroup.POST("/addresses", r.profileHandler.AddAddress)
		userGroup.PUT("/addresses/:id", r.profileHandler.UpdateAddress)
		userGroup.DELETE("/addresses/:id", r.profileHandler.DeleteAddress)
	}

	apiGroup := e.Group("/api")

	apiGroup.POST("/vendors/register", r.vendorHandler.Register)

	vendorsGroup := apiGroup.Group("/vendors",
		r.authMiddleware.Authenticate,
		r.authMiddleware.RequirePermission(entity.PermissionApproveVendor),
	)
	{
		vendorsGroup.GET("/pending", r.vendorHandler.ListPending)
		vendorsGroup.GET("/:id", r.vendorHandler.Get)
		vendorsGroup.PATCH("/:id/approve", r.vendorHandler.Approve)
		vendorsGroup.PATCH("/:id/reject", r.vendorHandler.Reject)
	}

	adminGroup := apiGroup.Group("/admin",
		r.authMiddleware.Authenticate,
		r.authMiddleware.RequireRole(entity.RoleSuperAdmin),
	)
	{
		adminGroup.POST("/create", r.adminHandler.CreateAdmin)
		adminGroup.POST("/users/:id/reset-password", r.adminHandler.ResetUserPassword)
	}
}
