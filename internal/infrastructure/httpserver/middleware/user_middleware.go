package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Baize0412/hm-dianping/internal/infrastructure/httpserver/helpers"
)

// UserIDHeader carries the caller id resolved by the upstream gateway.
const UserIDHeader = "X-User-ID"

type UserMiddleware struct {
	logger *logrus.Logger
}

func NewUserMiddleware(logger *logrus.Logger) *UserMiddleware {
	return &UserMiddleware{logger: logger}
}

// ResolveUser stores the caller id from UserIDHeader when present. A
// malformed header is rejected.
func (m *UserMiddleware) ResolveUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(UserIDHeader)
			if raw == "" {
				return next(c)
			}
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				if m.logger != nil {
					m.logger.WithField("header", raw).Debug("rejecting malformed user id header")
				}
				return echo.NewHTTPError(http.StatusBadRequest, "invalid "+UserIDHeader+" header")
			}
			helpers.SetUserID(c, id)
			return next(c)
		}
	}
}

// RequireUser rejects requests without a resolved caller.
func (m *UserMiddleware) RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, err := helpers.GetUserIDFromContext(c); err != nil {
				return err
			}
			return next(c)
		}
	}
}
