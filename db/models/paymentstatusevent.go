package models

import (
	"time"
)

// PaymentStatusEvent : Payment Status Event Model
//
// Ordered status history of a payment. Applied is false for
// out-of-order or unrecognized statuses that were recorded but not
// applied to the payment.
type PaymentStatusEvent struct {
	ID        int64     `json:"id" bun:",pk,autoincrement"`
	PaymentID int64     `json:"payment_id" bun:",notnull"`
	Payment   *Payment  `json:"-" bun:"rel:belongs-to,join:payment_id=id"`
	Status    string    `json:"status" bun:",notnull"`
	Source    string    `json:"source" bun:",notnull"`
	Applied   bool      `json:"applied" bun:",notnull"`
	CreatedAt time.Time `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
}
