package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Baize0412/hm-dianping/internal/core/domain/voucher"
	"github.com/Baize0412/hm-dianping/internal/core/ports"
	"github.com/Baize0412/hm-dianping/internal/infrastructure/httpserver/helpers"
)

type rejectionResponse struct {
	Rejection voucher.Rejection `json:"rejection"`
	Message   string            `json:"message"`
}

type orderResponse struct {
	OrderID int64 `json:"order_id,string"`
}

func (s *Server) createSeckillVoucher(c echo.Context) error {
	var req voucher.CreateSeckillVoucherRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	v, err := s.voucherSvc.CreateSeckillVoucher(c.Request().Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, voucher.ErrInvalidVoucherID), errors.Is(err, voucher.ErrInvalidStock), errors.Is(err, voucher.ErrInvalidWindow):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return s.internalError(err, "failed to create seckill voucher")
	}
	return c.JSON(http.StatusCreated, v)
}

func (s *Server) getSeckillVoucher(c echo.Context) error {
	id, err := helpers.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	v, err := s.voucherSvc.GetSeckillVoucher(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ports.ErrVoucherNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "voucher not found")
		}
		return s.internalError(err, "failed to get seckill voucher")
	}
	return c.JSON(http.StatusOK, v)
}

func (s *Server) placeSeckillOrder(c echo.Context) error {
	voucherID, err := helpers.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	res, err := s.seckillSvc.PlaceOrder(c.Request().Context(), userID, voucherID)
	if err != nil {
		return s.internalError(err, "failed to place order")
	}
	if res.OK() {
		return c.JSON(http.StatusOK, orderResponse{OrderID: res.OrderID})
	}
	return c.JSON(rejectionStatus(res.Rejection), rejectionResponse{Rejection: res.Rejection, Message: res.Rejection.Message()})
}

func rejectionStatus(r voucher.Rejection) int {
	switch r {
	case voucher.RejectionNotFound:
		return http.StatusNotFound
	case voucher.RejectionSoldOut, voucher.RejectionAlreadyPurchased:
		return http.StatusConflict
	case voucher.RejectionBusy:
		return http.StatusTooManyRequests
	default:
		return http.StatusUnprocessableEntity
	}
}
