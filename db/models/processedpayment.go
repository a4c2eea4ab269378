package models

import (
	"time"
)

// ProcessedPayment : Processed Payment Model
//
// Durable set of gateway invoice ids whose wallet credit has been
// applied.
type ProcessedPayment struct {
	ExternalID  string    `json:"external_id" bun:",pk"`
	ProcessedAt time.Time `json:"processed_at" bun:",nullzero,notnull,default:current_timestamp"`
}
