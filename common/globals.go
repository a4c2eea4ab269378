package common

const (
	PaymentSourceCreation       = "creation"
	PaymentSourceWebhook        = "webhook"
	PaymentSourceReconciliation = "reconciliation"

	PaymentTopicCredited  = "payment_credited"
	PaymentTopicFinalized = "payment_finalized"

	RoutingKeyCredited = "payment.credited"
)
