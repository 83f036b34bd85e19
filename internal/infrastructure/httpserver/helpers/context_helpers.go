package helpers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

func GetUserIDFromContext(c echo.Context) (int64, error) {
	id, ok := GetUserIDRaw(c)
	if !ok || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "invalid user context")
	}
	return id, nil
}

// ParseIDParam reads a positive int64 path parameter.
func ParseIDParam(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
