package settlement

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/renthub/rent-ledger/internal/domain/models"
	"github.com/renthub/rent-ledger/internal/domain/ports"
	"github.com/renthub/rent-ledger/pkg/timeutil"
)

// AdvanceScheduler materializes pre-paid future bills when a settled bill
// carries an advance amount. Each advance month becomes its own
// PaymentRequest, already marked paid, so the regular billing cycle skips
// it.
//
// Insertion is keyed by (occupancy, due date), so a run interrupted
// mid-loop can be replayed: months that already exist are skipped rather
// than duplicated.
type AdvanceScheduler struct {
	bills       ports.BillRepository
	occupancies ports.OccupancyRepository
	logger      ports.Logger
}

// NewAdvanceScheduler creates a new advance scheduler
func NewAdvanceScheduler(bills ports.BillRepository, occupancies ports.OccupancyRepository, logger ports.Logger) *AdvanceScheduler {
	return &AdvanceScheduler{
		bills:       bills,
		occupancies: occupancies,
		logger:      logger,
	}
}

// ExtraMonths returns how many future months the advance amount pre-pays.
// A move-in advance is a deposit, not a prepayment, and never generates
// future bills; neither does a bill without a rent amount.
func ExtraMonths(bill *models.PaymentRequest) int {
	if bill.IsMoveInPayment || !bill.RentAmount.IsPositive() {
		return 0
	}
	if !bill.AdvanceAmount.IsPositive() {
		return 0
	}
	return int(bill.AdvanceAmount.Div(bill.RentAmount).Floor().IntPart())
}

// Schedule creates the pre-paid future bills for a settled bill and, for
// renewal settlements, clears the occupancy's renewal flags so the next
// renewal cycle is unblocked. It runs inside the settlement transaction
// and returns how many bills were actually inserted.
func (s *AdvanceScheduler) Schedule(ctx context.Context, tx ports.DBTX, bill *models.PaymentRequest, paymentID uuid.UUID, method models.PaymentMethod, referenceNumber string) (int, error) {
	extraMonths := ExtraMonths(bill)

	created := 0
	now := timeutil.Now()
	for i := 1; i <= extraMonths; i++ {
		dueDate := timeutil.AddMonthsPreservingDay(bill.DueDate, i)

		future := &models.PaymentRequest{
			ID:          uuid.New(),
			TenantID:    bill.TenantID,
			LandlordID:  bill.LandlordID,
			PropertyID:  bill.PropertyID,
			OccupancyID: bill.OccupancyID,
			DueDate:     dueDate,

			RentAmount:       bill.RentAmount,
			AdvanceAmount:    decimal.Zero,
			SecurityDeposit:  decimal.Zero,
			WaterAmount:      decimal.Zero,
			ElectricalAmount: decimal.Zero,
			WifiAmount:       decimal.Zero,
			OtherAmount:      decimal.Zero,

			Status:                models.BillStatusPaid,
			PaymentMethod:         method,
			TenantReferenceNumber: referenceNumber,
			PaymentID:             &paymentID,
			Description:           fmt.Sprintf("Advance Payment (Month %d of %d)", i+1, extraMonths+1),

			IsAdvancePayment: true,

			PaidAt:    &now,
			CreatedAt: now,
			UpdatedAt: now,
		}

		inserted, err := s.bills.CreateAdvance(ctx, tx, future)
		if err != nil {
			return created, err
		}
		if inserted {
			created++
		} else {
			s.logger.Info("advance bill already exists, skipping",
				ports.String("bill_id", bill.ID.String()),
				ports.String("due_date", dueDate.Format("2006-01-02")))
		}
	}

	if bill.IsRenewalPayment && bill.OccupancyID != nil {
		if err := s.occupancies.ClearRenewalFlags(ctx, tx, *bill.OccupancyID); err != nil {
			return created, err
		}
	}

	return created, nil
}
