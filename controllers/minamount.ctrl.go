package controllers

import (
	"errors"
	"net/http"

	"github.com/farmhub/paygate/gateway"
	"github.com/farmhub/paygate/lib/responses"
	"github.com/farmhub/paygate/lib/service"
	"github.com/labstack/echo/v4"
)

// MinAmountController : minimum payable amount controller
type MinAmountController struct {
	svc *service.PaygateService
}

func NewMinAmountController(svc *service.PaygateService) *MinAmountController {
	return &MinAmountController{svc: svc}
}

type MinAmountResponseBody struct {
	CurrencyFrom string  `json:"currency_from"`
	CurrencyTo   string  `json:"currency_to"`
	MinAmount    float64 `json:"min_amount"`
}

func (controller *MinAmountController) GetMinimum(c echo.Context) error {
	ctx := c.Request().Context()
	currencyFrom := c.QueryParam("currency_from")
	currencyTo := c.QueryParam("currency_to")
	if currencyFrom == "" || currencyTo == "" {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	minAmount, err := controller.svc.GatewayClient.GetMinimumAmount(ctx, currencyFrom, currencyTo)
	if err != nil {
		if errors.Is(err, gateway.ErrUnavailable) {
			return c.JSON(http.StatusServiceUnavailable, responses.GatewayUnavailableError)
		}
		c.Logger().Errorf("Failed to fetch minimum amount %s->%s: %v", currencyFrom, currencyTo, err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	return c.JSON(http.StatusOK, &MinAmountResponseBody{
		CurrencyFrom: currencyFrom,
		CurrencyTo:   currencyTo,
		MinAmount:    minAmount,
	})
}
