package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/delivery/api/response"
	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/errors"
	"storefront/internal/infra/metrics"
	"storefront/internal/mocks"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = NewErrorMiddleware(discardLogger()).HandleHTTPError

	return e
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorResponse {
	t.Helper()

	var body response.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body
}

func TestErrorMiddleware_HandleHTTPError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantDetails any
	}{
		{
			name:        "validation error keeps details",
			err:         errors.Wrap(domainerrors.ErrValidationFailed.WithDetails("email is required"), "signup"),
			wantStatus:  http.StatusBadRequest,
			wantCode:    "VALIDATION_FAILED",
			wantDetails: "email is required",
		},
		{
			name:       "forbidden hides details",
			err:        domainerrors.ErrForbidden.WithDetails("missing approve_vendor"),
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
		},
		{
			name:       "reconciliation failure is a 500",
			err:        domainerrors.NewReconciliationError("signup", "ext-1", "a@x.com", errors.New("insert failed")),
			wantStatus: http.StatusInternalServerError,
			wantCode:   domainerrors.ReconciliationErrorCode,
		},
		{
			name:       "echo not found",
			err:        echo.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "unknown error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEcho()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			deliverycontext.SetRequestID(c, "req-1")

			e.HTTPErrorHandler(tt.err, c)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeError(t, rec)
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, body.Message, body.Error.Message)
			assert.Equal(t, tt.wantDetails, body.Error.Details)
			assert.Equal(t, "req-1", body.Meta.RequestID)
		})
	}
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	user := &entity.User{ID: uuid.New(), Email: "a@x.com"}
	principal := &usecase.Principal{User: user, Session: &entity.SessionInfo{Handle: "h1", UserID: "ext-1"}}

	tests := []struct {
		name       string
		setup      func(req *http.Request, authUC *mocks.AuthUsecase)
		wantStatus int
	}{
		{
			name:       "missing token",
			setup:      func(*http.Request, *mocks.AuthUsecase) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "bearer token",
			setup: func(req *http.Request, authUC *mocks.AuthUsecase) {
				req.Header.Set(echo.HeaderAuthorization, "Bearer good")
				authUC.On("Authenticate", mock.Anything, "good").Return(principal, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "cookie token",
			setup: func(req *http.Request, authUC *mocks.AuthUsecase) {
				req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "cookie"})
				authUC.On("Authenticate", mock.Anything, "cookie").Return(principal, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "deactivated account",
			setup: func(req *http.Request, authUC *mocks.AuthUsecase) {
				req.Header.Set(echo.HeaderAuthorization, "Bearer stale")
				authUC.On("Authenticate", mock.Anything, "stale").Return(nil, domainerrors.ErrAccountDeactivated)
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name: "unexpected failure maps to 401",
			setup: func(req *http.Request, authUC *mocks.AuthUsecase) {
				req.Header.Set(echo.HeaderAuthorization, "Bearer broken")
				authUC.On("Authenticate", mock.Anything, "broken").Return(nil, errors.New("jwt parse"))
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authUC := new(mocks.AuthUsecase)
			mw := NewAuthMiddleware(authUC, new(mocks.PermissionUsecase), discardLogger())

			e := newEcho()
			e.GET("/me", func(c echo.Context) error {
				p, ok := deliverycontext.GetPrincipal(c)
				require.True(t, ok)
				assert.Equal(t, user.ID, p.User.ID)

				return c.NoContent(http.StatusOK)
			}, mw.Authenticate)

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req, authUC)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			authUC.AssertExpectations(t)
		})
	}
}

func TestAuthMiddleware_RequirePermission(t *testing.T) {
	user := &entity.User{ID: uuid.New()}
	principal := &usecase.Principal{User: user, Session: &entity.SessionInfo{Handle: "h1"}}

	permissionUC := new(mocks.PermissionUsecase)
	permissionUC.On("RequirePermission", mock.Anything, user, entity.PermissionApproveVendor).
		Return(domainerrors.ErrForbidden).Once()
	permissionUC.On("RequirePermission", mock.Anything, user, entity.PermissionApproveVendor).
		Return(nil).Once()

	mw := NewAuthMiddleware(new(mocks.AuthUsecase), permissionUC, discardLogger())
	e := newEcho()
	e.GET("/vendors", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			deliverycontext.SetPrincipal(c, principal)

			return next(c)
		}
	}, mw.RequirePermission(entity.PermissionApproveVendor))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/vendors", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/vendors", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	permissionUC.AssertExpectations(t)
}

func TestAuthMiddleware_RequireRoleWithoutPrincipal(t *testing.T) {
	mw := NewAuthMiddleware(new(mocks.AuthUsecase), new(mocks.PermissionUsecase), discardLogger())
	e := newEcho()
	e.POST("/admin", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, mw.RequireRole(entity.RoleSuperAdmin))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	clock := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }

	assert.True(t, limiter.Allow("1.1.1.1"))
	assert.True(t, limiter.Allow("1.1.1.1"))
	assert.False(t, limiter.Allow("1.1.1.1"))
	assert.True(t, limiter.Allow("2.2.2.2"), "buckets are per key")

	clock = clock.Add(time.Second)
	assert.True(t, limiter.Allow("1.1.1.1"), "token refills")

	clock = clock.Add(limiterIdleTTL + limiterSweepInterval)
	limiter.Allow("3.3.3.3")
	assert.Equal(t, 1, limiter.size(), "idle buckets are swept")
}

func TestRateLimiter_Handle(t *testing.T) {
	limiter := NewRateLimiter(0.001, 1)
	e := newEcho()
	e.POST("/reset", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, limiter.Handle)

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/reset", nil)
		req.Header.Set(echo.HeaderXForwardedFor, "203.0.113.9, 10.0.0.1")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}

func TestMetricsMiddleware_LabelsRouteTemplate(t *testing.T) {
	m := metrics.New()
	mw := NewMetricsMiddleware(m)

	e := newEcho()
	e.Use(mw.Handle)
	e.GET("/api/vendors/:id", func(c echo.Context) error {
		return domainerrors.ErrVendorNotFound
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/vendors/123", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	count, err := testutil.GatherAndCount(m.Registry(), "storefront_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "storefront_http_requests_total" {
			continue
		}
		labels := map[string]string{}
		for _, l := range f.GetMetric()[0].GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
		assert.Equal(t, "/api/vendors/:id", labels["route"])
		assert.Equal(t, "404", labels["status"])
	}
}
