package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/renthub/rent-ledger/internal/domain"
	"github.com/renthub/rent-ledger/internal/domain/models"
	"github.com/renthub/rent-ledger/internal/domain/ports"
)

// LedgerRepository implements ports.LedgerRepository over payment_records.
// Records are append-only; there is deliberately no update or delete.
type LedgerRepository struct {
	db ports.DBPort
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db ports.DBPort) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) executor(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.db.GetDB()
}

// Create appends one payment record
func (r *LedgerRepository) Create(ctx context.Context, tx ports.DBTX, record *models.PaymentRecord) error {
	amount, err := decimalToNumeric(record.Amount)
	if err != nil {
		return err
	}

	_, err = r.executor(tx).Exec(ctx, `
		INSERT INTO payment_records (
			id, tenant_id, landlord_id, property_id, amount, method,
			currency, status, paid_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())`,
		record.ID,
		record.TenantID,
		record.LandlordID,
		record.PropertyID,
		amount,
		string(record.Method),
		record.Currency,
		string(record.Status),
		record.PaidAt,
	)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "create payment record", err)
	}
	return nil
}

// GetByID loads one payment record
func (r *LedgerRepository) GetByID(ctx context.Context, db ports.DBTX, id uuid.UUID) (*models.PaymentRecord, error) {
	row := r.executor(db).QueryRow(ctx, `
		SELECT id, tenant_id, landlord_id, property_id, amount, method,
		       currency, status, paid_at, created_at
		FROM payment_records WHERE id = $1`, id)

	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewDomainError(domain.ErrorCodeBillNotFound, "payment record not found").
				WithDetail("payment_record_id", id.String())
		}
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "get payment record", err)
	}
	return record, nil
}

// ListByTenant returns a tenant's ledger entries, newest first
func (r *LedgerRepository) ListByTenant(ctx context.Context, db ports.DBTX, tenantID uuid.UUID, limit, offset int32) ([]*models.PaymentRecord, error) {
	rows, err := r.executor(db).Query(ctx, `
		SELECT id, tenant_id, landlord_id, property_id, amount, method,
		       currency, status, paid_at, created_at
		FROM payment_records
		WHERE tenant_id = $1
		ORDER BY paid_at DESC
		LIMIT $2 OFFSET $3`,
		tenantID, limit, offset)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "list payment records", err)
	}
	defer rows.Close()

	var records []*models.PaymentRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "scan payment record", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "list payment records", err)
	}
	return records, nil
}

func scanRecord(row pgx.Row) (*models.PaymentRecord, error) {
	var (
		record models.PaymentRecord
		amount pgtype.Numeric
		method string
		status string
	)
	err := row.Scan(
		&record.ID, &record.TenantID, &record.LandlordID, &record.PropertyID,
		&amount, &method, &record.Currency, &status, &record.PaidAt, &record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Method = models.PaymentMethod(method)
	record.Status = models.RecordStatus(status)
	record.Amount, err = numericToDecimal(amount)
	if err != nil {
		return nil, err
	}
	return &record, nil
}
