package transport

import (
	"net/http"

	"github.com/farmhub/paygate/controllers"
	"github.com/farmhub/paygate/lib/service"
	"github.com/labstack/echo/v4"
)

func RegisterEndpoints(svc *service.PaygateService, e *echo.Echo, strictRateLimitMiddleware echo.MiddlewareFunc, adminMw echo.MiddlewareFunc, logMw echo.MiddlewareFunc) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// the gateway calls this one, everything else is internal
	e.POST("/ipn", controllers.NewIPNController(svc).HandleIPN, logMw)

	cacheClient := CreateCacheClient()
	e.GET("/v2/minimum", controllers.NewMinAmountController(svc).GetMinimum, cacheClient.Middleware(), logMw)

	admin := e.Group("", adminMw, logMw)
	depositCtrl := controllers.NewDepositController(svc)
	admin.POST("/v2/deposits", depositCtrl.CreateDeposit, strictRateLimitMiddleware)
	admin.GET("/v2/deposits/:id", controllers.NewPaymentStatusController(svc).GetPayment)
	admin.GET("/v2/deposits/:id/qr", controllers.NewQRController(svc).CheckoutQR)
	admin.GET("/v2/balance", controllers.NewBalanceController(svc).Balance)
}
