package service

import (
	"context"
	"errors"

	"github.com/farmhub/paygate/db/models"
	"github.com/ziflex/lecho/v3"
)

// Creditor applies the wallet credit for a finalized payment exactly
// once. The idempotency store short-circuits replays, the ledger's
// unique constraint decides races between concurrent attempts: the
// loser gets ErrAlreadyCredited and treats it as success.
type Creditor struct {
	wallet    WalletStore
	processed IdempotencyStore
	logger    *lecho.Logger
}

func NewCreditor(wallet WalletStore, processed IdempotencyStore, logger *lecho.Logger) *Creditor {
	return &Creditor{
		wallet:    wallet,
		processed: processed,
		logger:    logger,
	}
}

// Credit returns true when this call performed the credit, false when
// the payment had already been credited by an earlier or concurrent
// attempt. Only ErrWalletUnavailable-class failures propagate.
func (c *Creditor) Credit(ctx context.Context, payment *models.Payment) (bool, error) {
	done, err := c.processed.HasProcessed(ctx, payment.ExternalID)
	if err != nil {
		return false, err
	}
	if done {
		return false, nil
	}

	entry := &models.LedgerEntry{
		UserID:          payment.UserID,
		Amount:          payment.PriceAmount,
		Currency:        payment.PriceCurrency,
		SourcePaymentID: payment.ExternalID,
	}
	err = c.wallet.Credit(ctx, entry)
	if errors.Is(err, ErrAlreadyCredited) {
		c.logger.Infof("Payment %s was credited concurrently", payment.ExternalID)
		if markErr := c.processed.MarkProcessed(ctx, payment.ExternalID); markErr != nil {
			c.logger.Errorf("Failed to mark payment %s processed: %v", payment.ExternalID, markErr)
		}
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := c.processed.MarkProcessed(ctx, payment.ExternalID); err != nil {
		// the credit stands, the ledger constraint catches the replay
		c.logger.Errorf("Failed to mark payment %s processed: %v", payment.ExternalID, err)
	}
	return true, nil
}
