package migrations

import (
	"context"

	"github.com/farmhub/paygate/db/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		for _, model := range []interface{}{
			(*models.User)(nil),
			(*models.Payment)(nil),
			(*models.PaymentStatusEvent)(nil),
			(*models.LedgerEntry)(nil),
			(*models.ProcessedPayment)(nil),
		} {
			if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return err
			}
		}
		// the reconciliation sweeper scans for stale non-terminal payments
		if _, err := db.NewCreateIndex().
			Model((*models.Payment)(nil)).
			Index("payments_status_updated_at_idx").
			Column("status", "updated_at").
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateIndex().
			Model((*models.PaymentStatusEvent)(nil)).
			Index("payment_status_events_payment_id_idx").
			Column("payment_id").
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
		return nil
	}, nil)
}
