package service

import (
	"context"
	"time"

	"github.com/farmhub/paygate/common"
	"github.com/getsentry/sentry-go"
)

// StartReconciliationRoutine polls the gateway for payments whose
// webhook never arrived. Runs until the context is canceled. An
// interval of 0 disables the sweeper entirely, webhook processing is
// unaffected either way.
func (svc *PaygateService) StartReconciliationRoutine(ctx context.Context) error {
	interval := time.Duration(svc.Config.ReconciliationInterval) * time.Second
	if interval == 0 {
		svc.Logger.Info("Reconciliation sweeper is disabled")
		return nil
	}
	svc.Logger.Infof("Starting reconciliation sweeper (interval=%s staleness=%ds)",
		interval, svc.Config.ReconciliationStaleness)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := svc.SweepStalePayments(ctx); err != nil {
				sentry.CaptureException(err)
				svc.Logger.Errorf("Reconciliation sweep failed: %v", err)
			}
		}
	}
}

// SweepStalePayments queries the gateway for every non-terminal
// payment that has not been touched within the staleness threshold and
// feeds the reported status through the regular state machine and
// crediting path. One failing record does not abort the sweep.
func (svc *PaygateService) SweepStalePayments(ctx context.Context) error {
	cutoff := time.Now().Add(-time.Duration(svc.Config.ReconciliationStaleness) * time.Second)
	stalePayments, err := svc.PaymentStore.ListStale(ctx, cutoff)
	if err != nil {
		return err
	}
	svc.Logger.Infof("Found %d stale payments", len(stalePayments))

	for _, payment := range stalePayments {
		status, err := svc.GatewayClient.GetPaymentStatus(ctx, payment.ExternalID)
		if err != nil {
			svc.Logger.Errorf("Failed to poll gateway for payment %s: %v", payment.ExternalID, err)
			continue
		}
		err = svc.ApplyPaymentUpdate(ctx, StatusUpdate{
			ExternalID: payment.ExternalID,
			Status:     ParseStatus(status.Status),
			Source:     common.PaymentSourceReconciliation,
		})
		if err != nil {
			svc.Logger.Errorf("Failed to apply reconciled status for payment %s: %v", payment.ExternalID, err)
			continue
		}
	}
	return nil
}
