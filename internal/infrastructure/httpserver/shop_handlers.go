package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Baize0412/hm-dianping/internal/core/domain/shop"
	"github.com/Baize0412/hm-dianping/internal/core/ports"
	"github.com/Baize0412/hm-dianping/internal/infrastructure/cache"
	"github.com/Baize0412/hm-dianping/internal/infrastructure/httpserver/helpers"
)

func (s *Server) getShop(c echo.Context) error {
	id, err := helpers.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	sh, err := s.shopService.GetShop(c.Request().Context(), id)
	if err != nil {
		return s.shopError(err)
	}
	return c.JSON(http.StatusOK, sh)
}

func (s *Server) createShop(c echo.Context) error {
	var req shop.SaveShopRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	sh, err := s.shopService.CreateShop(c.Request().Context(), &req)
	if err != nil {
		return s.shopError(err)
	}
	return c.JSON(http.StatusCreated, sh)
}

func (s *Server) updateShop(c echo.Context) error {
	var req shop.SaveShopRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	sh, err := s.shopService.UpdateShop(c.Request().Context(), &req)
	if err != nil {
		return s.shopError(err)
	}
	return c.JSON(http.StatusOK, sh)
}

func (s *Server) listShopTypes(c echo.Context) error {
	types, err := s.shopTypeSvc.ListShopTypes(c.Request().Context())
	if err != nil {
		return s.internalError(err, "failed to list shop types")
	}
	return c.JSON(http.StatusOK, types)
}

func (s *Server) shopError(err error) error {
	switch {
	case errors.Is(err, ports.ErrShopNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "shop not found")
	case errors.Is(err, shop.ErrMissingID), errors.Is(err, shop.ErrMissingName), errors.Is(err, shop.ErrMissingType):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, cache.ErrLockUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "shop is being refreshed, retry shortly")
	}
	return s.internalError(err, "failed to process shop request")
}

// internalError logs err and hides it from the client.
func (s *Server) internalError(err error, msg string) error {
	if s.logger != nil {
		s.logger.WithError(err).Error(msg)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, msg)
}
