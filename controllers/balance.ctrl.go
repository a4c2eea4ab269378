package controllers

import (
	"net/http"
	"strconv"

	"github.com/farmhub/paygate/lib/responses"
	"github.com/farmhub/paygate/lib/service"
	"github.com/labstack/echo/v4"
)

// BalanceController : wallet balance controller
type BalanceController struct {
	svc *service.PaygateService
}

func NewBalanceController(svc *service.PaygateService) *BalanceController {
	return &BalanceController{svc: svc}
}

type BalanceResponseBody struct {
	UserID  int64   `json:"user_id"`
	Balance float64 `json:"balance"`
}

func (controller *BalanceController) Balance(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := strconv.ParseInt(c.QueryParam("user_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	exists, err := controller.svc.UserDirectory.Exists(ctx, userID)
	if err != nil {
		c.Logger().Errorf("Failed to look up user %d: %v", userID, err)
		return c.JSON(http.StatusInternalServerError, responses.GeneralServerError)
	}
	if !exists {
		return c.JSON(http.StatusBadRequest, responses.UnknownUserError)
	}

	balance, err := controller.svc.WalletStore.BalanceFor(ctx, userID)
	if err != nil {
		c.Logger().Errorf("Failed to load balance for user %d: %v", userID, err)
		return c.JSON(http.StatusServiceUnavailable, responses.WalletUnavailableError)
	}

	return c.JSON(http.StatusOK, &BalanceResponseBody{
		UserID:  userID,
		Balance: balance,
	})
}
