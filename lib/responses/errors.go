package responses

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error          bool   `json:"error"`
	Code           int    `json:"code"`
	Message        string `json:"message"`
	HttpStatusCode int    `json:"-"`
}

var GeneralServerError = ErrorResponse{
	Error:          true,
	Code:           6,
	Message:        "Something went wrong. Please try again later",
	HttpStatusCode: 500,
}

var BadArgumentsError = ErrorResponse{
	Error:          true,
	Code:           8,
	Message:        "Bad arguments",
	HttpStatusCode: 400,
}

var BadAuthError = ErrorResponse{
	Error:          true,
	Code:           1,
	Message:        "bad auth",
	HttpStatusCode: 401,
}

var BelowMinimumError = ErrorResponse{
	Error:          true,
	Code:           2,
	Message:        "deposit amount is below the minimum payable amount",
	HttpStatusCode: 400,
}

var UnknownPaymentError = ErrorResponse{
	Error:          true,
	Code:           2,
	Message:        "unknown payment",
	HttpStatusCode: 400,
}

var UnknownUserError = ErrorResponse{
	Error:          true,
	Code:           2,
	Message:        "unknown user",
	HttpStatusCode: 400,
}

var GatewayUnavailableError = ErrorResponse{
	Error:          true,
	Code:           7,
	Message:        "payment gateway is unavailable. Please try again later",
	HttpStatusCode: 503,
}

var WalletUnavailableError = ErrorResponse{
	Error:          true,
	Code:           7,
	Message:        "wallet is temporarily unavailable",
	HttpStatusCode: 503,
}

func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	c.Logger().Error(err)
	if hub := sentryecho.GetHubFromContext(c); hub != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetExtra("RequestID", c.Response().Header().Get(echo.HeaderXRequestID))
			hub.CaptureException(err)
		})
	}
	if he, ok := err.(*echo.HTTPError); ok {
		c.JSON(he.Code, he.Message)
	} else {
		c.JSON(http.StatusInternalServerError, GeneralServerError)
	}
}
