package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/renthub/rent-ledger/internal/domain"
	"github.com/renthub/rent-ledger/internal/domain/models"
	"github.com/renthub/rent-ledger/internal/domain/ports"
	"github.com/shopspring/decimal"
)

const billColumns = `id, tenant_id, landlord_id, property_id, occupancy_id, due_date,
	rent_amount, advance_amount, security_deposit, water_amount, electrical_amount,
	wifi_amount, other_amount, status, payment_method, tenant_reference_number,
	payment_id, description, is_move_in_payment, is_advance_payment,
	is_renewal_payment, paid_at, created_at, updated_at`

// BillRepository implements ports.BillRepository over payment_requests
type BillRepository struct {
	db ports.DBPort
}

// NewBillRepository creates a new bill repository
func NewBillRepository(db ports.DBPort) *BillRepository {
	return &BillRepository{db: db}
}

func (r *BillRepository) executor(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.db.GetDB()
}

// GetByID loads a bill by its id
func (r *BillRepository) GetByID(ctx context.Context, db ports.DBTX, id uuid.UUID) (*models.PaymentRequest, error) {
	row := r.executor(db).QueryRow(ctx,
		`SELECT `+billColumns+` FROM payment_requests WHERE id = $1`, id)

	bill, err := scanBill(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBillNotFound.WithDetail("payment_request_id", id.String())
		}
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "get payment request", err)
	}
	return bill, nil
}

// MarkPaid transitions a bill to paid. Guarded on status so a concurrent
// settlement that already won leaves zero rows affected instead of
// overwriting the previous outcome.
func (r *BillRepository) MarkPaid(ctx context.Context, tx ports.DBTX, params ports.MarkPaidParams) error {
	tag, err := r.executor(tx).Exec(ctx, `
		UPDATE payment_requests
		SET status = $2,
		    paid_at = $3,
		    payment_method = $4,
		    tenant_reference_number = $5,
		    payment_id = $6,
		    description = COALESCE(description, '') || $7,
		    updated_at = now()
		WHERE id = $1 AND status <> $2`,
		params.BillID,
		string(models.BillStatusPaid),
		params.PaidAt,
		string(params.Method),
		nullText(params.TenantReferenceNumber),
		params.PaymentID,
		params.DescriptionSuffix,
	)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "mark payment request paid", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBillImmutable.WithDetail("payment_request_id", params.BillID.String())
	}
	return nil
}

// CreateAdvance inserts a pre-paid future bill. A partial unique index on
// (occupancy_id, due_date) for advance bills makes re-runs skip months
// that already exist.
func (r *BillRepository) CreateAdvance(ctx context.Context, tx ports.DBTX, bill *models.PaymentRequest) (bool, error) {
	rent, err := decimalToNumeric(bill.RentAmount)
	if err != nil {
		return false, fmt.Errorf("rent amount: %w", err)
	}

	tag, err := r.executor(tx).Exec(ctx, `
		INSERT INTO payment_requests (
			id, tenant_id, landlord_id, property_id, occupancy_id, due_date,
			rent_amount, status, payment_method, tenant_reference_number,
			payment_id, description, is_move_in_payment, is_advance_payment,
			is_renewal_payment, paid_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, false, true, false, $13, now(), now())
		ON CONFLICT (occupancy_id, due_date) WHERE is_advance_payment DO NOTHING`,
		bill.ID,
		bill.TenantID,
		bill.LandlordID,
		bill.PropertyID,
		nullUUID(bill.OccupancyID),
		bill.DueDate,
		rent,
		string(bill.Status),
		string(bill.PaymentMethod),
		nullText(bill.TenantReferenceNumber),
		nullUUID(bill.PaymentID),
		bill.Description,
		bill.PaidAt,
	)
	if err != nil {
		return false, domain.WrapError(domain.ErrorCodeDatabaseError, "create advance payment request", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListByTenant returns a tenant's bills ordered by due date descending
func (r *BillRepository) ListByTenant(ctx context.Context, db ports.DBTX, tenantID uuid.UUID, limit, offset int32) ([]*models.PaymentRequest, error) {
	rows, err := r.executor(db).Query(ctx,
		`SELECT `+billColumns+` FROM payment_requests
		 WHERE tenant_id = $1
		 ORDER BY due_date DESC
		 LIMIT $2 OFFSET $3`,
		tenantID, limit, offset)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "list payment requests", err)
	}
	defer rows.Close()

	var bills []*models.PaymentRequest
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "scan payment request", err)
		}
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "list payment requests", err)
	}
	return bills, nil
}

// scanBill converts one row into a domain model. Monetary columns are
// nullable and default to zero.
func scanBill(row pgx.Row) (*models.PaymentRequest, error) {
	var (
		bill       models.PaymentRequest
		occupancy  pgtype.UUID
		paymentID  pgtype.UUID
		rent       pgtype.Numeric
		advance    pgtype.Numeric
		deposit    pgtype.Numeric
		water      pgtype.Numeric
		electrical pgtype.Numeric
		wifi       pgtype.Numeric
		other      pgtype.Numeric
		status     string
		method     pgtype.Text
		reference  pgtype.Text
		desc       pgtype.Text
		paidAt     pgtype.Timestamptz
	)

	err := row.Scan(
		&bill.ID, &bill.TenantID, &bill.LandlordID, &bill.PropertyID, &occupancy, &bill.DueDate,
		&rent, &advance, &deposit, &water, &electrical, &wifi, &other,
		&status, &method, &reference, &paymentID, &desc,
		&bill.IsMoveInPayment, &bill.IsAdvancePayment, &bill.IsRenewalPayment,
		&paidAt, &bill.CreatedAt, &bill.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	bill.OccupancyID = uuidPtr(occupancy)
	bill.PaymentID = uuidPtr(paymentID)
	bill.Status = models.BillStatus(status)
	bill.PaymentMethod = models.PaymentMethod(method.String)
	bill.TenantReferenceNumber = reference.String
	bill.Description = desc.String
	if paidAt.Valid {
		t := paidAt.Time
		bill.PaidAt = &t
	}

	for _, item := range []struct {
		src pgtype.Numeric
		dst *decimal.Decimal
	}{
		{rent, &bill.RentAmount},
		{advance, &bill.AdvanceAmount},
		{deposit, &bill.SecurityDeposit},
		{water, &bill.WaterAmount},
		{electrical, &bill.ElectricalAmount},
		{wifi, &bill.WifiAmount},
		{other, &bill.OtherAmount},
	} {
		d, err := numericToDecimal(item.src)
		if err != nil {
			return nil, err
		}
		*item.dst = d
	}

	return &bill, nil
}
