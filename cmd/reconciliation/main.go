package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/farmhub/paygate/db"
	"github.com/farmhub/paygate/gateway"
	"github.com/farmhub/paygate/lib/logging"
	"github.com/farmhub/paygate/lib/service"
	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// One-shot sweep over all stale pending payments. Useful after an
// outage when the periodic sweeper in the server was down for longer
// than the gateway's redelivery window.
func main() {
	c := &service.Config{}

	err := godotenv.Load(".env")
	if err != nil {
		fmt.Println("Failed to load .env file")
	}
	err = envconfig.Process("", c)
	if err != nil {
		log.Fatalf("Error loading environment variables: %v", err)
	}

	logger := logging.Logger(c.LogFilePath)

	dbConn, err := db.Open(c)
	if err != nil {
		logger.Fatalf("Error initializing db connection: %v", err)
	}

	if c.SentryDSN != "" {
		if err = sentry.Init(sentry.ClientOptions{
			Dsn: c.SentryDSN,
		}); err != nil {
			logger.Errorf("sentry init error: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	gatewayCfg, err := gateway.LoadConfig()
	if err != nil {
		logger.Fatalf("Error loading gateway config: %v", err)
	}

	walletStore := service.NewBunWalletStore(dbConn)
	svc := &service.PaygateService{
		Config:        c,
		DB:            dbConn,
		Logger:        logger,
		GatewayClient: gateway.NewHTTPClient(gatewayCfg, logger),
		PaymentStore:  service.NewBunPaymentStore(dbConn),
		WalletStore:   walletStore,
		UserDirectory: service.NewBunUserDirectory(dbConn),
		Creditor:      service.NewCreditor(walletStore, service.NewBunIdempotencyStore(dbConn), logger),
		PaymentPubSub: service.NewPubsub(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := svc.SweepStalePayments(ctx); err != nil {
		sentry.CaptureException(err)
		logger.Fatalf("Sweep failed: %v", err)
	}
	logger.Info("Sweep finished")
}
