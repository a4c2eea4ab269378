package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Payment : Payment Model
//
// One row per gateway invoice. Rows are never deleted, terminal
// payments are kept for audit.
type Payment struct {
	ID            int64                 `json:"id" bun:",pk,autoincrement"`
	ExternalID    string                `json:"external_id" bun:",nullzero,unique"`
	OrderID       string                `json:"order_id" bun:",notnull,unique"`
	UserID        int64                 `json:"user_id" bun:",notnull"`
	User          *User                 `json:"-" bun:"rel:belongs-to,join:user_id=id"`
	PriceAmount   float64               `json:"price_amount" bun:",notnull"`
	PriceCurrency string                `json:"price_currency" bun:",notnull"`
	PayCurrency   string                `json:"pay_currency" bun:",notnull"`
	CheckoutURL   string                `json:"checkout_url" bun:",nullzero"`
	Status        string                `json:"status" bun:",notnull,default:'created'"`
	StatusEvents  []*PaymentStatusEvent `json:"status_events,omitempty" bun:"rel:has-many,join:id=payment_id"`
	CreditedAt    bun.NullTime          `json:"credited_at"`
	CreatedAt     time.Time             `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt     bun.NullTime          `json:"updated_at"`
}

func (p *Payment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		p.UpdatedAt = bun.NullTime{Time: time.Now()}
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*Payment)(nil)
