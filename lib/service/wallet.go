package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/farmhub/paygate/db/models"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// WalletStore applies balance deltas to a user's in-game wallet. The
// game owns the wallet, this subsystem only appends credit entries
// keyed by the gateway invoice id.
type WalletStore interface {
	// Credit appends a ledger entry. Returns ErrAlreadyCredited when an
	// entry for the same SourcePaymentID exists, ErrWalletUnavailable
	// when the store can not be reached.
	Credit(ctx context.Context, entry *models.LedgerEntry) error
	BalanceFor(ctx context.Context, userID int64) (float64, error)
}

// UserDirectory resolves user identity, owned by the game's account
// system.
type UserDirectory interface {
	Exists(ctx context.Context, userID int64) (bool, error)
}

type BunWalletStore struct {
	db *bun.DB
}

func NewBunWalletStore(db *bun.DB) *BunWalletStore {
	return &BunWalletStore{db: db}
}

func (s *BunWalletStore) Credit(ctx context.Context, entry *models.LedgerEntry) error {
	_, err := s.db.NewInsert().Model(entry).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyCredited
		}
		return fmt.Errorf("%w: %v", ErrWalletUnavailable, err)
	}
	return nil
}

func (s *BunWalletStore) BalanceFor(ctx context.Context, userID int64) (float64, error) {
	var balance float64
	err := s.db.NewSelect().
		Model((*models.LedgerEntry)(nil)).
		ColumnExpr("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", userID).
		Scan(ctx, &balance)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrWalletUnavailable, err)
	}
	return balance, nil
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	return false
}

type BunUserDirectory struct {
	db *bun.DB
}

func NewBunUserDirectory(db *bun.DB) *BunUserDirectory {
	return &BunUserDirectory{db: db}
}

func (d *BunUserDirectory) Exists(ctx context.Context, userID int64) (bool, error) {
	return d.db.NewSelect().
		Model((*models.User)(nil)).
		Where("id = ?", userID).
		Exists(ctx)
}
