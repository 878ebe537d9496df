package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/renthub/rent-ledger/internal/domain/models"
	"github.com/shopspring/decimal"
)

// MarkPaidParams carries the settlement outcome written onto a bill.
// The description suffix is appended to the existing description, never
// replacing it.
type MarkPaidParams struct {
	BillID                uuid.UUID
	PaymentID             uuid.UUID
	Method                models.PaymentMethod
	TenantReferenceNumber string
	PaidAt                time.Time
	DescriptionSuffix     string
}

// BillRepository loads and settles payment requests
type BillRepository interface {
	// GetByID loads a bill; returns a BILL_NOT_FOUND domain error when absent
	GetByID(ctx context.Context, db DBTX, id uuid.UUID) (*models.PaymentRequest, error)

	// MarkPaid transitions a bill to paid exactly once per settlement
	MarkPaid(ctx context.Context, tx DBTX, params MarkPaidParams) error

	// CreateAdvance inserts a pre-paid future bill. Insertion is keyed
	// by (occupancy_id, due_date) for advance bills so a retried run
	// skips months that already exist; created reports whether a row
	// was actually inserted.
	CreateAdvance(ctx context.Context, tx DBTX, bill *models.PaymentRequest) (created bool, err error)

	// ListByTenant returns a tenant's bills, newest due date first
	ListByTenant(ctx context.Context, db DBTX, tenantID uuid.UUID, limit, offset int32) ([]*models.PaymentRequest, error)
}

// BalanceRepository maintains the running tenant credit balance
type BalanceRepository interface {
	// Get returns the current balance, zero when no row exists
	Get(ctx context.Context, db DBTX, tenantID, occupancyID uuid.UUID) (decimal.Decimal, error)

	// ApplyDelta atomically adds delta to the balance (upsert keyed on
	// tenant_id + occupancy_id, resolved in a single statement) and
	// returns the new amount.
	ApplyDelta(ctx context.Context, tx DBTX, tenantID, occupancyID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)

	// DrawUpTo atomically draws up to amount from the balance, never
	// more than is stored, and returns how much was actually drawn.
	// The cap and the subtraction happen in one locked statement so
	// concurrent draws against the same balance cannot overdraw it.
	// A missing balance row draws zero.
	DrawUpTo(ctx context.Context, tx DBTX, tenantID, occupancyID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
}

// LedgerRepository appends immutable payment records
type LedgerRepository interface {
	Create(ctx context.Context, tx DBTX, record *models.PaymentRecord) error
	GetByID(ctx context.Context, db DBTX, id uuid.UUID) (*models.PaymentRecord, error)
	ListByTenant(ctx context.Context, db DBTX, tenantID uuid.UUID, limit, offset int32) ([]*models.PaymentRecord, error)
}

// OccupancyRepository is the thin slice of the externally-owned occupancy
// data this engine touches: renewal flags cleared after a renewal
// settlement so the next renewal cycle is unblocked.
type OccupancyRepository interface {
	ClearRenewalFlags(ctx context.Context, tx DBTX, occupancyID uuid.UUID) error
}
