package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/Baize0412/hm-dianping/internal/infrastructure/httpserver/helpers"
	"github.com/Baize0412/hm-dianping/internal/infrastructure/httpserver/middleware"
)

func TestResolveUser_SetsUserID(t *testing.T) {
	e := echo.New()
	m := middleware.NewUserMiddleware(logrus.New())
	var got int64
	h := m.ResolveUser()(func(c echo.Context) error {
		got, _ = helpers.GetUserIDRaw(c)
		return c.NoContent(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.UserIDHeader, "42")
	c := e.NewContext(req, httptest.NewRecorder())

	require.NoError(t, h(c))
	require.Equal(t, int64(42), got)
}

func TestResolveUser_RejectsMalformedHeader(t *testing.T) {
	e := echo.New()
	m := middleware.NewUserMiddleware(nil)
	h := m.ResolveUser()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.UserIDHeader, "-3")
	c := e.NewContext(req, httptest.NewRecorder())

	err := h(c)
	require.Error(t, err)
	htErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, htErr.Code)
}

func TestRequireUser_Returns401WithoutUser(t *testing.T) {
	e := echo.New()
	m := middleware.NewUserMiddleware(nil)
	h := m.RequireUser()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())

	err := h(c)
	require.Error(t, err)
	htErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, htErr.Code)

	helpers.SetUserID(c, 7)
	require.NoError(t, h(c))
}
