package gateway

import (
	"context"
)

type CreateInvoiceParams struct {
	PriceAmount    float64 `json:"price_amount"`
	PriceCurrency  string  `json:"price_currency"`
	PayCurrency    string  `json:"pay_currency"`
	OrderID        string  `json:"order_id"`
	OrderDesc      string  `json:"order_description,omitempty"`
	IPNCallbackURL string  `json:"ipn_callback_url"`
	SuccessURL     string  `json:"success_url,omitempty"`
	CancelURL      string  `json:"cancel_url,omitempty"`
}

type Invoice struct {
	ExternalID  string
	CheckoutURL string
}

type PaymentStatus struct {
	ExternalID   string
	Status       string
	OrderID      string
	PayAmount    float64
	ActuallyPaid float64
	PayCurrency  string
}

type Client interface {
	CreateInvoice(ctx context.Context, params *CreateInvoiceParams) (*Invoice, error)
	GetMinimumAmount(ctx context.Context, currencyFrom, currencyTo string) (float64, error)
	GetPaymentStatus(ctx context.Context, externalID string) (*PaymentStatus, error)
}
