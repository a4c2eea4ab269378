package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/farmhub/paygate/lib/responses"
	"github.com/farmhub/paygate/lib/service"
	"github.com/labstack/echo/v4"
	qrcode "github.com/skip2/go-qrcode"
)

// QRController : checkout QR code controller
type QRController struct {
	svc *service.PaygateService
}

func NewQRController(svc *service.PaygateService) *QRController {
	return &QRController{svc: svc}
}

// CheckoutQR renders the payment's hosted checkout URL as a PNG QR
// code so it can be shown on a second screen.
func (controller *QRController) CheckoutQR(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	payment, err := controller.svc.FindPayment(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrUnknownPayment) {
			return c.JSON(http.StatusNotFound, responses.UnknownPaymentError)
		}
		c.Logger().Errorf("Failed to load payment %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, responses.GeneralServerError)
	}
	if payment.CheckoutURL == "" {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	png, err := qrcode.Encode(payment.CheckoutURL, qrcode.Medium, 256)
	if err != nil {
		c.Logger().Errorf("Failed to render QR code for payment %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, responses.GeneralServerError)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}
