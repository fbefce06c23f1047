package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidshare/engagement-engine/internal/db"
)

// withBudget runs fn in a read transaction whose statements are cancelled by
// PostgreSQL once budget elapses. A zero budget leaves the server default.
func withBudget(ctx context.Context, pool *pgxpool.Pool, budget time.Duration, fn func(tx pgx.Tx) error) error {
	return db.InTx(ctx, pool, func(tx pgx.Tx) error {
		if budget > 0 {
			// SET LOCAL does not accept bind parameters.
			stmt := fmt.Sprintf("SET LOCAL statement_timeout = %d", budget.Milliseconds())
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return db.WrapError(err, "set statement budget")
			}
		}
		return fn(tx)
	})
}
