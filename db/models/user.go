package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User : User Model
//
// Minimal mirror of the game's player directory, only what the payment
// pipeline needs to resolve ownership of a deposit.
type User struct {
	ID        int64        `json:"id" bun:",pk,autoincrement"`
	Login     string       `json:"login" bun:",notnull,unique"`
	CreatedAt time.Time    `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt bun.NullTime `json:"updated_at"`
}
