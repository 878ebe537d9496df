package credit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/renthub/rent-ledger/internal/domain/models"
	"github.com/renthub/rent-ledger/internal/domain/ports"
	"github.com/renthub/rent-ledger/pkg/gwerrors"
)

const gatewayName = "credit"

// Adapter implements ports.Gateway for settlements paid entirely from the
// tenant's stored credit balance. There is no external provider: the
// reference is the bill id, and verification succeeds when the balance for
// the bill's occupancy covers the full bill total. It reports an amount paid
// of zero so that settlement draws the whole total from the stored balance.
type Adapter struct {
	bills    ports.BillRepository
	balances ports.BalanceRepository
	db       ports.DBPort
	logger   ports.Logger
}

// New creates a new credit adapter
func New(bills ports.BillRepository, balances ports.BalanceRepository, db ports.DBPort, logger ports.Logger) *Adapter {
	return &Adapter{
		bills:    bills,
		balances: balances,
		db:       db,
		logger:   logger,
	}
}

// Name implements ports.Gateway
func (a *Adapter) Name() models.PaymentMethod {
	return models.MethodCredit
}

// Verify checks that the tenant's stored balance covers the bill total.
func (a *Adapter) Verify(ctx context.Context, reference string) (*ports.VerificationResult, error) {
	billID, err := uuid.Parse(reference)
	if err != nil {
		return nil, gwerrors.New(gatewayName, gwerrors.CategoryNotFound, "reference is not a bill id")
	}

	bill, err := a.bills.GetByID(ctx, a.db.GetDB(), billID)
	if err != nil {
		return nil, gwerrors.Wrap(gatewayName, gwerrors.CategoryNotFound, "load bill", err)
	}
	if bill.OccupancyID == nil {
		return nil, gwerrors.New(gatewayName, gwerrors.CategoryNotPaid, "bill has no occupancy to hold a balance")
	}

	balance, err := a.balances.Get(ctx, a.db.GetDB(), bill.TenantID, *bill.OccupancyID)
	if err != nil {
		return nil, gwerrors.Wrap(gatewayName, gwerrors.CategoryBadResponse, "load balance", err)
	}

	total := bill.RequestTotal()
	if balance.LessThan(total) {
		a.logger.Warn("credit balance below bill total",
			ports.String("bill_id", billID.String()),
			ports.String("balance", balance.String()),
			ports.String("total", total.String()))
		return nil, gwerrors.New(gatewayName, gwerrors.CategoryNotPaid,
			fmt.Sprintf("balance %s is below bill total %s", balance.StringFixed(2), total.StringFixed(2)))
	}

	return &ports.VerificationResult{
		AmountPaid:            decimal.Zero,
		ExternalTransactionID: "credit-" + billID.String(),
		Verified:              true,
	}, nil
}
