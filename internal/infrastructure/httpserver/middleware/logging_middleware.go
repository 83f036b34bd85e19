package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Baize0412/hm-dianping/internal/infrastructure/httpserver/helpers"
)

type LoggingMiddleware struct {
	logger *logrus.Logger
}

func NewLoggingMiddleware(logger *logrus.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: logger}
}

func (m *LoggingMiddleware) RequestLogging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// write the error response now so status reflects it
				c.Error(err)
				err = nil
			}
			if m.logger != nil {
				fields := logrus.Fields{
					"method":     c.Request().Method,
					"path":       c.Path(),
					"status":     c.Response().Status,
					"latency_ms": time.Since(start).Milliseconds(),
					"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
				}
				if uid, ok := helpers.GetUserIDRaw(c); ok {
					fields["user_id"] = uid
				}
				m.logger.WithFields(fields).Debug("request handled")
			}
			return err
		}
	}
}
