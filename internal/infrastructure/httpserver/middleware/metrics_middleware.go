package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Baize0412/hm-dianping/internal/infrastructure/metrics"
)

type MetricsMiddleware struct{}

func NewMetricsMiddleware() *MetricsMiddleware {
	return &MetricsMiddleware{}
}

// CollectHTTPMetrics counts every request under its route pattern. Unmatched
// requests fall back to the raw path.
func (m *MetricsMiddleware) CollectHTTPMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = c.Request().URL.Path
			}
			metrics.HTTPRequest(c.Request().Method, route, strconv.Itoa(c.Response().Status), time.Since(start))
			return err
		}
	}
}
