package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/farmhub/paygate/db/models"
	"github.com/uptrace/bun"
)

// PaymentTx is one serialized unit of work on a single payment
// record. The record stays locked until Commit or Rollback, so
// concurrent updates for the same invoice serialize while different
// invoices proceed in parallel.
type PaymentTx interface {
	// GetForUpdate loads and locks the record for a gateway invoice id.
	// Returns ErrUnknownPayment when no record matches.
	GetForUpdate(ctx context.Context, externalID string) (*models.Payment, error)
	UpdatePayment(ctx context.Context, payment *models.Payment) error
	RecordEvent(ctx context.Context, paymentID int64, status Status, source string, applied bool) error
	Commit() error
	Rollback() error
}

// PaymentStore is the persistence seam for payment record updates.
type PaymentStore interface {
	Begin(ctx context.Context) (PaymentTx, error)
	// ListStale returns the non-terminal records with an external id
	// that have not been touched since the cutoff.
	ListStale(ctx context.Context, cutoff time.Time) ([]models.Payment, error)
}

type BunPaymentStore struct {
	db *bun.DB
}

func NewBunPaymentStore(db *bun.DB) *BunPaymentStore {
	return &BunPaymentStore{db: db}
}

func (s *BunPaymentStore) Begin(ctx context.Context) (PaymentTx, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &bunPaymentTx{tx: tx}, nil
}

func (s *BunPaymentStore) ListStale(ctx context.Context, cutoff time.Time) ([]models.Payment, error) {
	stalePayments := []models.Payment{}
	err := s.db.NewSelect().
		Model(&stalePayments).
		Where("status NOT IN (?)", bun.In(TerminalStatuses())).
		Where("external_id IS NOT NULL").
		Where("COALESCE(updated_at, created_at) < ?", cutoff).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return stalePayments, nil
}

type bunPaymentTx struct {
	tx bun.Tx
}

func (t *bunPaymentTx) GetForUpdate(ctx context.Context, externalID string) (*models.Payment, error) {
	payment := &models.Payment{}
	err := t.tx.NewSelect().
		Model(payment).
		Where("external_id = ?", externalID).
		For("UPDATE").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnknownPayment
		}
		return nil, err
	}
	return payment, nil
}

func (t *bunPaymentTx) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	_, err := t.tx.NewUpdate().Model(payment).WherePK().Exec(ctx)
	return err
}

func (t *bunPaymentTx) RecordEvent(ctx context.Context, paymentID int64, status Status, source string, applied bool) error {
	event := &models.PaymentStatusEvent{
		PaymentID: paymentID,
		Status:    string(status),
		Source:    source,
		Applied:   applied,
	}
	_, err := t.tx.NewInsert().Model(event).Exec(ctx)
	return err
}

func (t *bunPaymentTx) Commit() error {
	return t.tx.Commit()
}

func (t *bunPaymentTx) Rollback() error {
	return t.tx.Rollback()
}
