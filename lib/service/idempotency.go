package service

import (
	"context"
	"fmt"

	"github.com/farmhub/paygate/db/models"
	"github.com/uptrace/bun"
)

// IdempotencyStore is the durable set of gateway invoice ids whose
// credit has been applied. It is the fast path, the ledger's unique
// constraint on source_payment_id stays the backstop.
type IdempotencyStore interface {
	HasProcessed(ctx context.Context, externalID string) (bool, error)
	MarkProcessed(ctx context.Context, externalID string) error
}

type BunIdempotencyStore struct {
	db *bun.DB
}

func NewBunIdempotencyStore(db *bun.DB) *BunIdempotencyStore {
	return &BunIdempotencyStore{db: db}
}

func (s *BunIdempotencyStore) HasProcessed(ctx context.Context, externalID string) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*models.ProcessedPayment)(nil)).
		Where("external_id = ?", externalID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrWalletUnavailable, err)
	}
	return exists, nil
}

func (s *BunIdempotencyStore) MarkProcessed(ctx context.Context, externalID string) error {
	_, err := s.db.NewInsert().
		Model(&models.ProcessedPayment{ExternalID: externalID}).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWalletUnavailable, err)
	}
	return nil
}
