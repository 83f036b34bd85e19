package helpers

import (
	"github.com/labstack/echo/v4"
)

type ctxKey string

const (
	keyUserID ctxKey = "user_id"
)

func SetUserID(c echo.Context, id int64) { c.Set(string(keyUserID), id) }
func GetUserIDRaw(c echo.Context) (int64, bool) {
	v := c.Get(string(keyUserID))
	id, ok := v.(int64)
	return id, ok
}
