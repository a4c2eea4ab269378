package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {

		if db.Dialect().Name().String() != "pg" {
			fmt.Printf("\033[1;31m%s\033[0m", "You are not using PostgreSQL. DB level checks can not be enabled!\n")
			return nil
		}
		sql := `
			-- exactly-once crediting: one ledger entry per gateway invoice
				CREATE UNIQUE INDEX IF NOT EXISTS ledger_entries_source_payment_id_key
				ON ledger_entries (source_payment_id);

			-- credits are always positive, reversals are out of scope
				ALTER TABLE ledger_entries
				ADD CONSTRAINT check_positive_amount
				CHECK (amount > 0);

			-- a gateway invoice id is assigned at most once
				CREATE UNIQUE INDEX IF NOT EXISTS payments_external_id_key
				ON payments (external_id)
				WHERE external_id IS NOT NULL;
		`
		if _, err := db.Exec(sql); err != nil {
			return err
		}
		return nil
	}, nil)
}
