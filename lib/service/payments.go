package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/farmhub/paygate/common"
	"github.com/farmhub/paygate/db/models"
	"github.com/farmhub/paygate/gateway"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CreateDeposit validates a deposit request, creates the gateway
// invoice and stores the payment record. The minimum amount is checked
// locally before the gateway ever sees the request.
func (svc *PaygateService) CreateDeposit(ctx context.Context, userID int64, amount float64, currency, payCurrency string) (*models.Payment, error) {
	exists, err := svc.UserDirectory.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUnknownUser
	}

	minAmount, err := svc.GatewayClient.GetMinimumAmount(ctx, currency, payCurrency)
	if err != nil {
		return nil, err
	}
	if amount < minAmount {
		return nil, fmt.Errorf("%w: minimum is %v %s", ErrBelowMinimum, minAmount, currency)
	}

	payment := &models.Payment{
		UserID:        userID,
		OrderID:       uuid.NewString(),
		PriceAmount:   amount,
		PriceCurrency: currency,
		PayCurrency:   payCurrency,
		Status:        string(StatusCreated),
	}
	// save the record early to have a trace in case the gateway call fails
	if _, err := svc.DB.NewInsert().Model(payment).Exec(ctx); err != nil {
		return nil, err
	}
	if err := svc.recordStatusEvent(ctx, svc.DB, payment.ID, StatusCreated, common.PaymentSourceCreation, true); err != nil {
		return nil, err
	}

	invoice, err := svc.GatewayClient.CreateInvoice(ctx, &gateway.CreateInvoiceParams{
		PriceAmount:    amount,
		PriceCurrency:  currency,
		PayCurrency:    payCurrency,
		OrderID:        payment.OrderID,
		IPNCallbackURL: svc.Config.IPNCallbackUrl,
		SuccessURL:     svc.Config.SuccessUrl,
		CancelURL:      svc.Config.CancelUrl,
	})
	if err != nil {
		payment.Status = string(StatusFailed)
		if _, updateErr := svc.DB.NewUpdate().Model(payment).WherePK().Exec(ctx); updateErr != nil {
			svc.Logger.Errorf("Failed to mark payment %d failed: %v", payment.ID, updateErr)
		}
		if eventErr := svc.recordStatusEvent(ctx, svc.DB, payment.ID, StatusFailed, common.PaymentSourceCreation, true); eventErr != nil {
			svc.Logger.Errorf("Failed to record status event for payment %d: %v", payment.ID, eventErr)
		}
		return nil, err
	}

	payment.ExternalID = invoice.ExternalID
	payment.CheckoutURL = invoice.CheckoutURL
	if _, err := svc.DB.NewUpdate().Model(payment).WherePK().Exec(ctx); err != nil {
		return nil, err
	}
	svc.Logger.Infof("Created deposit invoice: payment_id=%d external_id=%s user_id=%d amount=%v %s",
		payment.ID, payment.ExternalID, userID, amount, currency)
	return payment, nil
}

func (svc *PaygateService) FindPayment(ctx context.Context, id int64) (*models.Payment, error) {
	var payment models.Payment
	err := svc.DB.NewSelect().
		Model(&payment).
		Relation("StatusEvents", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("id ASC")
		}).
		Where("payment.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnknownPayment
		}
		return nil, err
	}
	return &payment, nil
}

// StatusUpdate is one reported status for one gateway invoice, either
// from a webhook delivery or from a reconciliation poll.
type StatusUpdate struct {
	ExternalID string
	Status     Status
	Source     string
}

// ApplyPaymentUpdate feeds a reported status through the state machine
// and, when the transition finalizes the payment, through the
// creditor. The record row is locked for the duration of the
// transaction so concurrent deliveries for the same invoice serialize,
// updates for different invoices run in parallel.
//
// Outcomes that are not errors from the gateway's perspective
// (duplicates, out-of-order statuses, already credited) return nil.
// Only storage or wallet outages propagate, those are the deliveries
// the gateway should retry.
func (svc *PaygateService) ApplyPaymentUpdate(ctx context.Context, update StatusUpdate) error {
	tx, err := svc.PaymentStore.Begin(ctx)
	if err != nil {
		return err
	}

	payment, err := tx.GetForUpdate(ctx, update.ExternalID)
	if err != nil {
		tx.Rollback()
		return err
	}

	current := Status(payment.Status)
	decision := Transition(current, update.Status)

	switch decision.Outcome {
	case OutcomeDuplicate:
		tx.Rollback()
		svc.Logger.Debugf("Duplicate status %s for payment %s, ignoring", update.Status, update.ExternalID)
		return nil

	case OutcomeIllegal:
		svc.Logger.Warnf("Ignoring illegal transition %s -> %s for payment %s (source=%s)",
			current, update.Status, update.ExternalID, update.Source)
		if err := tx.RecordEvent(ctx, payment.ID, update.Status, update.Source, false); err != nil {
			tx.Rollback()
			return err
		}
		return tx.Commit()
	}

	payment.Status = string(update.Status)
	credited := false
	if decision.Credit && payment.CreditedAt.IsZero() {
		// the wallet store is external, its unique constraint on the
		// invoice id is what makes a race between two deliveries safe
		credited, err = svc.Creditor.Credit(ctx, payment)
		if err != nil {
			tx.Rollback()
			return err
		}
		payment.CreditedAt = bun.NullTime{Time: time.Now()}
	}

	if err := tx.UpdatePayment(ctx, payment); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.RecordEvent(ctx, payment.ID, update.Status, update.Source, true); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	svc.Logger.Infof("Applied status %s to payment %s (source=%s credited=%t)",
		update.Status, update.ExternalID, update.Source, credited)
	if credited {
		svc.PaymentPubSub.Publish(common.PaymentTopicCredited, *payment)
	}
	if IsTerminal(update.Status) {
		svc.PaymentPubSub.Publish(common.PaymentTopicFinalized, *payment)
	}
	return nil
}

func (svc *PaygateService) recordStatusEvent(ctx context.Context, db bun.IDB, paymentID int64, status Status, source string, applied bool) error {
	event := &models.PaymentStatusEvent{
		PaymentID: paymentID,
		Status:    string(status),
		Source:    source,
		Applied:   applied,
	}
	_, err := db.NewInsert().Model(event).Exec(ctx)
	return err
}
