package settlement

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/renthub/rent-ledger/internal/domain/models"
)

// Read-side operations. These go straight to the pool; none of them need
// a transaction.

// GetBill loads one payment request by id
func (s *Service) GetBill(ctx context.Context, billID uuid.UUID) (*models.PaymentRequest, error) {
	return s.bills.GetByID(ctx, s.db.GetDB(), billID)
}

// GetBalance returns the tenant's stored credit for an occupancy, zero
// when no balance row exists yet
func (s *Service) GetBalance(ctx context.Context, tenantID, occupancyID uuid.UUID) (decimal.Decimal, error) {
	return s.balances.Get(ctx, s.db.GetDB(), tenantID, occupancyID)
}

// ListBills returns a tenant's bills, newest due date first
func (s *Service) ListBills(ctx context.Context, tenantID uuid.UUID, limit, offset int32) ([]*models.PaymentRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.bills.ListByTenant(ctx, s.db.GetDB(), tenantID, limit, offset)
}

// ListPayments returns a tenant's ledger entries, newest first
func (s *Service) ListPayments(ctx context.Context, tenantID uuid.UUID, limit, offset int32) ([]*models.PaymentRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.ledger.ListByTenant(ctx, s.db.GetDB(), tenantID, limit, offset)
}
