package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/farmhub/paygate/lib/responses"
	"github.com/farmhub/paygate/lib/service"
	"github.com/labstack/echo/v4"
)

// PaymentStatusController : payment detail controller
type PaymentStatusController struct {
	svc *service.PaygateService
}

func NewPaymentStatusController(svc *service.PaygateService) *PaymentStatusController {
	return &PaymentStatusController{svc: svc}
}

type PaymentStatusEventResponse struct {
	Status    string    `json:"status"`
	Source    string    `json:"source"`
	Applied   bool      `json:"applied"`
	CreatedAt time.Time `json:"created_at"`
}

type PaymentStatusResponseBody struct {
	ID           int64                        `json:"id"`
	OrderID      string                       `json:"order_id"`
	ExternalID   string                       `json:"external_id"`
	UserID       int64                        `json:"user_id"`
	Status       string                       `json:"status"`
	Amount       float64                      `json:"amount"`
	Currency     string                       `json:"currency"`
	PayCurrency  string                       `json:"pay_currency"`
	CheckoutURL  string                       `json:"checkout_url"`
	CreditedAt   *time.Time                   `json:"credited_at"`
	CreatedAt    time.Time                    `json:"created_at"`
	StatusEvents []PaymentStatusEventResponse `json:"status_events"`
}

func (controller *PaymentStatusController) GetPayment(c echo.Context) error {
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

	response := &PaymentStatusResponseBody{
		ID:          payment.ID,
		OrderID:     payment.OrderID,
		ExternalID:  payment.ExternalID,
		UserID:      payment.UserID,
		Status:      payment.Status,
		Amount:      payment.PriceAmount,
		Currency:    payment.PriceCurrency,
		PayCurrency: payment.PayCurrency,
		CheckoutURL: payment.CheckoutURL,
		CreatedAt:   payment.CreatedAt,
	}
	if !payment.CreditedAt.IsZero() {
		creditedAt := payment.CreditedAt.Time
		response.CreditedAt = &creditedAt
	}
	for _, event := range payment.StatusEvents {
		response.StatusEvents = append(response.StatusEvents, PaymentStatusEventResponse{
			Status:    event.Status,
			Source:    event.Source,
			Applied:   event.Applied,
			CreatedAt: event.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, response)
}
