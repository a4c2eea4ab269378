package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/farmhub/paygate/common"
	"github.com/farmhub/paygate/lib/responses"
	"github.com/farmhub/paygate/lib/service"
	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
)

const SignatureHeader = "x-nowpayments-sig"

// IPNController : gateway webhook controller
type IPNController struct {
	svc *service.PaygateService
}

func NewIPNController(svc *service.PaygateService) *IPNController {
	return &IPNController{svc: svc}
}

// IPNRequestBody mirrors the gateway's IPN payload. payment_id comes
// over the wire as a JSON number.
type IPNRequestBody struct {
	PaymentID     json.Number `json:"payment_id"`
	PaymentStatus string      `json:"payment_status"`
	OrderID       string      `json:"order_id"`
	PayAmount     float64     `json:"pay_amount"`
	ActuallyPaid  float64     `json:"actually_paid"`
	PayCurrency   string      `json:"pay_currency"`
}

// HandleIPN godoc
// verifies the webhook signature against the raw body, then feeds the
// reported status through the payment state machine.
//
// The response code steers gateway redelivery: 2xx acknowledges,
// anything else gets retried. Out-of-order and duplicate statuses are
// acknowledged, unknown invoices answer 400, wallet or storage
// outages answer 5xx so the gateway redelivers.
func (controller *IPNController) HandleIPN(c echo.Context) error {
	ctx := c.Request().Context()

	// signature covers the exact bytes on the wire, read before any binding
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		c.Logger().Errorf("Failed to read IPN request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	signature := c.Request().Header.Get(SignatureHeader)
	if err := controller.svc.IPNVerifier.Verify(body, signature); err != nil {
		// one opaque rejection for every failure mode, no oracle for forgers
		c.Logger().Warnf("Rejected IPN with invalid signature from %s", c.RealIP())
		return c.JSON(http.StatusUnauthorized, responses.BadAuthError)
	}

	var payload IPNRequestBody
	if err := json.Unmarshal(body, &payload); err != nil {
		c.Logger().Errorf("Failed to parse verified IPN body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if payload.PaymentID.String() == "" || payload.PaymentStatus == "" {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	err = controller.svc.ApplyPaymentUpdate(ctx, service.StatusUpdate{
		ExternalID: payload.PaymentID.String(),
		Status:     service.ParseStatus(payload.PaymentStatus),
		Source:     common.PaymentSourceWebhook,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownPayment):
			c.Logger().Warnf("IPN for unknown payment %s", payload.PaymentID.String())
			return c.JSON(http.StatusBadRequest, responses.UnknownPaymentError)
		case errors.Is(err, service.ErrWalletUnavailable):
			c.Logger().Errorf("Wallet unavailable while processing IPN for payment %s: %v", payload.PaymentID.String(), err)
			return c.JSON(http.StatusServiceUnavailable, responses.WalletUnavailableError)
		default:
			c.Logger().Errorf("Failed to process IPN for payment %s: %v", payload.PaymentID.String(), err)
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, responses.GeneralServerError)
		}
	}

	return c.NoContent(http.StatusOK)
}
