package middleware

import (
	"storefront/internal/infra/metrics"

	"github.com/labstack/echo/v4"
)

const unmatchedRoute = "unmatched"

// MetricsMiddleware records request counts and latencies labelled by route template.
type MetricsMiddleware struct {
	metrics *metrics.Metrics
}

func NewMetricsMiddleware(m *metrics.Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{metrics: m}
}

func (m *MetricsMiddleware) Handle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		done := m.metrics.RequestStarted()

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		// route templates keep label cardinality bounded; raw paths would not
		route := c.Path()
		if route == "" {
			route = unmatchedRoute
		}
		done(c.Request().Method, route, c.Response().Status)

		return nil
	}
}
