package controllers

import (
	"errors"
	"net/http"

	"github.com/farmhub/paygate/gateway"
	"github.com/farmhub/paygate/lib/responses"
	"github.com/farmhub/paygate/lib/service"
	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
)

// DepositController : Create Deposit controller
type DepositController struct {
	svc *service.PaygateService
}

func NewDepositController(svc *service.PaygateService) *DepositController {
	return &DepositController{svc: svc}
}

type CreateDepositRequestBody struct {
	UserID      int64   `json:"user_id" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Currency    string  `json:"currency" validate:"required"`
	PayCurrency string  `json:"pay_currency" validate:"required"`
}

type CreateDepositResponseBody struct {
	ID          int64   `json:"id"`
	OrderID     string  `json:"order_id"`
	ExternalID  string  `json:"external_id"`
	CheckoutURL string  `json:"checkout_url"`
	Status      string  `json:"status"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	PayCurrency string  `json:"pay_currency"`
}

// CreateDeposit godoc
// creates a hosted checkout invoice at the payment gateway and a
// pending payment record that the webhook will later resolve
func (controller *DepositController) CreateDeposit(c echo.Context) error {
	ctx := c.Request().Context()
	var body CreateDepositRequestBody

	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load create deposit request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid create deposit request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	payment, err := controller.svc.CreateDeposit(ctx, body.UserID, body.Amount, body.Currency, body.PayCurrency)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownUser):
			return c.JSON(http.StatusBadRequest, responses.UnknownUserError)
		case errors.Is(err, service.ErrBelowMinimum):
			return c.JSON(http.StatusBadRequest, responses.BelowMinimumError)
		case errors.Is(err, gateway.ErrUnavailable):
			c.Logger().Errorf("Gateway unavailable while creating deposit: user_id=%d %v", body.UserID, err)
			return c.JSON(http.StatusServiceUnavailable, responses.GatewayUnavailableError)
		case errors.Is(err, gateway.ErrInvalidRequest):
			c.Logger().Errorf("Gateway rejected deposit request: user_id=%d %v", body.UserID, err)
			return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
		default:
			c.Logger().Errorf("Failed to create deposit: user_id=%d %v", body.UserID, err)
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, responses.GeneralServerError)
		}
	}

	return c.JSON(http.StatusOK, &CreateDepositResponseBody{
		ID:          payment.ID,
		OrderID:     payment.OrderID,
		ExternalID:  payment.ExternalID,
		CheckoutURL: payment.CheckoutURL,
		Status:      payment.Status,
		Amount:      payment.PriceAmount,
		Currency:    payment.PriceCurrency,
		PayCurrency: payment.PayCurrency,
	})
}
