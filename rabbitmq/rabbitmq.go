package rabbitmq

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/farmhub/paygate/common"
	"github.com/farmhub/paygate/db/models"
	"github.com/getsentry/sentry-go"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/ziflex/lecho/v3"
)

// bufPool is a classic buffer pool pattern that allows more clever reuse of heap memory.
// Instead of allocating new memory everytime we need to encode a payment we
// reuse buffers from this buffer pool.
var bufPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

const (
	contentTypeJSON = "application/json"
)

type (
	SubscribeToPaymentsFunc = func() (credited chan models.Payment, err error)
	EncodePaymentFunc       = func(ctx context.Context, w io.Writer, payment models.Payment) error
)

type Client interface {
	// StartPublishPayments publishes every credited payment to the
	// payment exchange until the context is canceled
	StartPublishPayments(context.Context, SubscribeToPaymentsFunc, EncodePaymentFunc) error
	// Close will close all connections to rabbitmq
	Close() error
}

type DefaultClient struct {
	conn *amqp.Connection

	publishChannel *amqp.Channel

	logger *lecho.Logger

	paymentExchange string
	exchangeDurable bool
}

type ClientOption = func(client *DefaultClient)

func WithPaymentExchange(exchange string) ClientOption {
	return func(client *DefaultClient) {
		client.paymentExchange = exchange
	}
}

func WithDurableExchange(durable bool) ClientOption {
	return func(client *DefaultClient) {
		client.exchangeDurable = durable
	}
}

func WithLogger(logger *lecho.Logger) ClientOption {
	return func(client *DefaultClient) {
		client.logger = logger
	}
}

// Dial sets up a connection to rabbitmq with a channel that is ready to publish
func Dial(uri string, options ...ClientOption) (Client, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, err
	}

	publishChannel, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	client := &DefaultClient{
		conn:            conn,
		publishChannel:  publishChannel,
		paymentExchange: "paygate_payment",
		exchangeDurable: true,
	}

	for _, opt := range options {
		opt(client)
	}

	return client, nil
}

func (client *DefaultClient) Close() error {
	if err := client.publishChannel.Close(); err != nil {
		return err
	}
	return client.conn.Close()
}

func (client *DefaultClient) StartPublishPayments(ctx context.Context, subscribe SubscribeToPaymentsFunc, encoder EncodePaymentFunc) error {
	err := client.publishChannel.ExchangeDeclare(
		client.paymentExchange,
		// topic exchange so consumers can filter on routing key
		"topic",
		client.exchangeDurable,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	creditedPayments, err := subscribe()
	if err != nil {
		return err
	}

	client.logger.Infof("Starting payment publisher on exchange %s", client.paymentExchange)
	for {
		select {
		case <-ctx.Done():
			return context.Canceled
		case payment, ok := <-creditedPayments:
			if !ok {
				return nil
			}
			if err := client.publishPayment(ctx, payment, encoder); err != nil {
				sentry.CaptureException(err)
				client.logger.Errorf("Failed to publish payment %s: %v", payment.ExternalID, err)
			}
		}
	}
}

func (client *DefaultClient) publishPayment(ctx context.Context, payment models.Payment, encoder EncodePaymentFunc) error {
	buf := bufPool.Get().(*bytes.Buffer)
	defer bufPool.Put(buf)
	buf.Reset()

	if err := encoder(ctx, buf, payment); err != nil {
		return err
	}

	return client.publishChannel.PublishWithContext(ctx,
		client.paymentExchange,
		common.RoutingKeyCredited,
		false,
		false,
		amqp.Publishing{
			ContentType: contentTypeJSON,
			Body:        buf.Bytes(),
		},
	)
}
