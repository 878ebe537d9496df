package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/renthub/rent-ledger/internal/domain"
	"github.com/renthub/rent-ledger/internal/domain/ports"
	"github.com/shopspring/decimal"
)

// BalanceRepository implements ports.BalanceRepository over tenant_balances
type BalanceRepository struct {
	db ports.DBPort
}

// NewBalanceRepository creates a new balance repository
func NewBalanceRepository(db ports.DBPort) *BalanceRepository {
	return &BalanceRepository{db: db}
}

func (r *BalanceRepository) executor(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.db.GetDB()
}

// Get returns the current balance for (tenant, occupancy), zero when no
// row exists yet.
func (r *BalanceRepository) Get(ctx context.Context, db ports.DBTX, tenantID, occupancyID uuid.UUID) (decimal.Decimal, error) {
	var amount pgtype.Numeric
	err := r.executor(db).QueryRow(ctx,
		`SELECT amount FROM tenant_balances WHERE tenant_id = $1 AND occupancy_id = $2`,
		tenantID, occupancyID,
	).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, domain.WrapError(domain.ErrorCodeDatabaseError, "get tenant balance", err)
	}
	return numericToDecimal(amount)
}

// ApplyDelta adds delta to the balance in a single conflict-resolving
// statement. Concurrent settlements for the same key serialize on the
// row; neither delta can be lost to a read-then-write race.
func (r *BalanceRepository) ApplyDelta(ctx context.Context, tx ports.DBTX, tenantID, occupancyID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	d, err := decimalToNumeric(delta)
	if err != nil {
		return decimal.Zero, err
	}

	var amount pgtype.Numeric
	err = r.executor(tx).QueryRow(ctx, `
		INSERT INTO tenant_balances (tenant_id, occupancy_id, amount, last_updated)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (tenant_id, occupancy_id)
		DO UPDATE SET amount = tenant_balances.amount + EXCLUDED.amount,
		              last_updated = now()
		RETURNING amount`,
		tenantID, occupancyID, d,
	).Scan(&amount)
	if err != nil {
		return decimal.Zero, domain.WrapError(domain.ErrorCodeDatabaseError, "apply balance delta", err)
	}
	return numericToDecimal(amount)
}

// DrawUpTo subtracts min(amount, stored balance) from the balance and
// returns what was actually drawn. The row is locked and the cap is
// computed in the same statement; two settlements drawing against the
// same balance serialize on the lock and each sees the other's draw, so
// the stored amount can never go below zero. A missing row draws zero.
func (r *BalanceRepository) DrawUpTo(ctx context.Context, tx ports.DBTX, tenantID, occupancyID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, nil
	}
	a, err := decimalToNumeric(amount)
	if err != nil {
		return decimal.Zero, err
	}

	var drawn pgtype.Numeric
	err = r.executor(tx).QueryRow(ctx, `
		WITH prior AS (
			SELECT amount FROM tenant_balances
			WHERE tenant_id = $1 AND occupancy_id = $2
			FOR UPDATE
		)
		UPDATE tenant_balances b
		SET amount = b.amount - LEAST(b.amount, $3::numeric),
		    last_updated = now()
		FROM prior
		WHERE b.tenant_id = $1 AND b.occupancy_id = $2
		RETURNING LEAST(prior.amount, $3::numeric)`,
		tenantID, occupancyID, a,
	).Scan(&drawn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, domain.WrapError(domain.ErrorCodeDatabaseError, "draw from tenant balance", err)
	}
	return numericToDecimal(drawn)
}
