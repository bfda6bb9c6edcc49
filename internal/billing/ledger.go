// AngelaMos | 2026
// ledger.go

package billing

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/brasil-no-mundo/internal/core"
	"github.com/carterperez-dev/brasil-no-mundo/internal/domain"
)

// LedgerArchive mirrors captured transactions to durable storage. The
// in-memory ledger stays authoritative; the archive is append-only.
type LedgerArchive interface {
	Archive(ctx context.Context, tx domain.Transaction) error
	Recent(ctx context.Context, limit int) ([]domain.Transaction, error)
	Count(ctx context.Context) (int64, error)
}

type LedgerRepository struct {
	db core.DBTX
}

func NewLedgerRepository(db core.DBTX) *LedgerRepository {
	return &LedgerRepository{db: db}
}

const schema = `
	CREATE TABLE IF NOT EXISTS transactions (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		user_name  TEXT NOT NULL,
		plan_id    TEXT NOT NULL,
		amount     NUMERIC(12, 2) NOT NULL,
		currency   TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`

func (r *LedgerRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create transactions table: %w", err)
	}
	return nil
}

// Archive inserts tx once; re-archiving the same order id is a no-op.
func (r *LedgerRepository) Archive(ctx context.Context, tx domain.Transaction) error {
	query := `
		INSERT INTO transactions (
			id, user_id, user_name, plan_id, amount, currency, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
		ON CONFLICT (id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query,
		tx.ID,
		tx.UserID,
		tx.UserName,
		tx.PlanID,
		tx.Amount,
		tx.Currency,
		tx.Date,
	)
	if err != nil {
		return fmt.Errorf("archive transaction: %w", err)
	}

	return nil
}

func (r *LedgerRepository) Recent(
	ctx context.Context,
	limit int,
) ([]domain.Transaction, error) {
	query := `
		SELECT id, user_id, user_name, plan_id, amount, currency, created_at
		FROM transactions
		ORDER BY created_at DESC
		LIMIT $1`

	var txs []domain.Transaction
	if err := r.db.SelectContext(ctx, &txs, query, limit); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	return txs, nil
}

func (r *LedgerRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM transactions`); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}
