package models

import (
	"time"
)

// LedgerEntry : Wallet Ledger Entry Model
//
// Append-only. The unique constraint on SourcePaymentID is the final
// backstop for exactly-once crediting: a duplicate insert for the same
// gateway invoice fails at the storage layer no matter which process
// attempts it.
type LedgerEntry struct {
	ID              int64     `json:"id" bun:",pk,autoincrement"`
	UserID          int64     `json:"user_id" bun:",notnull"`
	User            *User     `json:"-" bun:"rel:belongs-to,join:user_id=id"`
	Amount          float64   `json:"amount" bun:",notnull"`
	Currency        string    `json:"currency" bun:",notnull"`
	SourcePaymentID string    `json:"source_payment_id" bun:",notnull,unique"`
	CreatedAt       time.Time `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
}
