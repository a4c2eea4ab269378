package service

import (
	"errors"

	"github.com/farmhub/paygate/gateway"
	"github.com/farmhub/paygate/lib/security"
	"github.com/farmhub/paygate/rabbitmq"
	"github.com/uptrace/bun"
	"github.com/ziflex/lecho/v3"
)

var (
	// ErrBelowMinimum : requested deposit is below the gateway minimum,
	// surfaced to the user before any invoice is created
	ErrBelowMinimum = errors.New("amount below minimum payable amount")
	// ErrUnknownPayment : webhook or query references an invoice this
	// system never created
	ErrUnknownPayment = errors.New("unknown payment")
	// ErrUnknownUser : deposit requested for a user the directory can
	// not resolve
	ErrUnknownUser = errors.New("unknown user")
	// ErrAlreadyCredited : the ledger already holds an entry for this
	// invoice. Expected under duplicate or racing deliveries, swallowed.
	ErrAlreadyCredited = errors.New("payment already credited")
	// ErrWalletUnavailable : the wallet store could not be reached, the
	// webhook handler answers 5xx so the gateway redelivers
	ErrWalletUnavailable = errors.New("wallet store unavailable")
)

type PaygateService struct {
	Config         *Config
	DB             *bun.DB
	Logger         *lecho.Logger
	GatewayClient  gateway.Client
	IPNVerifier    *security.IPNVerifier
	PaymentStore   PaymentStore
	WalletStore    WalletStore
	UserDirectory  UserDirectory
	Creditor       *Creditor
	PaymentPubSub  *Pubsub
	RabbitMQClient rabbitmq.Client
}
