package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/renthub/rent-ledger/internal/domain"
	"github.com/renthub/rent-ledger/internal/domain/models"
	"github.com/renthub/rent-ledger/internal/domain/ports"
	"github.com/renthub/rent-ledger/pkg/gwerrors"
	"github.com/renthub/rent-ledger/pkg/observability"
	"github.com/renthub/rent-ledger/pkg/resilience"
	"github.com/renthub/rent-ledger/pkg/timeutil"
)

// SettleCommand identifies one settlement attempt: which bill, through
// which gateway, and the opaque reference the gateway resolves.
type SettleCommand struct {
	BillID    uuid.UUID
	Method    models.PaymentMethod
	Reference string
}

// SettleResult is the outcome of a settlement
type SettleResult struct {
	Success      bool
	AlreadyPaid  bool
	ExcessAmount decimal.Decimal
}

// Service orchestrates one settlement end to end: verify with the gateway
// first, then mutate balance, ledger, and bill in a single transaction.
// Verification failure aborts before any mutation.
type Service struct {
	db          ports.DBPort
	bills       ports.BillRepository
	balances    ports.BalanceRepository
	ledger      ports.LedgerRepository
	occupancies ports.OccupancyRepository
	gateways    map[models.PaymentMethod]ports.Gateway
	scheduler   *AdvanceScheduler
	notifier    ports.Notifier
	timeouts    *resilience.TimeoutConfig
	logger      ports.Logger
}

// NewService creates a settlement service. Every gateway the service
// should accept must be registered here; settlements naming an
// unregistered gateway are rejected at validation.
func NewService(
	db ports.DBPort,
	bills ports.BillRepository,
	balances ports.BalanceRepository,
	ledger ports.LedgerRepository,
	occupancies ports.OccupancyRepository,
	gateways []ports.Gateway,
	notifier ports.Notifier,
	timeouts *resilience.TimeoutConfig,
	logger ports.Logger,
) *Service {
	registry := make(map[models.PaymentMethod]ports.Gateway, len(gateways))
	for _, gw := range gateways {
		registry[gw.Name()] = gw
	}
	return &Service{
		db:          db,
		bills:       bills,
		balances:    balances,
		ledger:      ledger,
		occupancies: occupancies,
		gateways:    registry,
		scheduler:   NewAdvanceScheduler(bills, occupancies, logger),
		notifier:    notifier,
		timeouts:    timeouts,
		logger:      logger,
	}
}

// Settle reconciles a confirmed external payment against a bill.
func (s *Service) Settle(ctx context.Context, cmd SettleCommand) (*SettleResult, error) {
	if err := s.validate(cmd); err != nil {
		return nil, err
	}

	ctx, cancel := s.timeouts.SettlementContext(ctx)
	defer cancel()

	bill, err := s.bills.GetByID(ctx, s.db.GetDB(), cmd.BillID)
	if err != nil {
		return nil, err
	}

	// Idempotency guard: a bill already settled through the same gateway
	// is a success no-op. The same bill through a different gateway is a
	// conflict, never a second settlement.
	if bill.IsPaid() {
		if bill.PaymentMethod == cmd.Method {
			s.logger.Info("bill already settled through this gateway, skipping",
				ports.String("bill_id", bill.ID.String()),
				ports.String("gateway", string(cmd.Method)))
			observability.RecordSettlement(string(cmd.Method), "already_paid", 0)
			return &SettleResult{Success: true, AlreadyPaid: true, ExcessAmount: decimal.Zero}, nil
		}
		return nil, domain.NewDomainError(domain.ErrorCodeBillAlreadyPaid,
			"bill already settled through a different gateway").
			WithDetail("bill_id", bill.ID.String()).
			WithDetail("settled_method", string(bill.PaymentMethod))
	}

	verification, err := s.verify(ctx, cmd)
	if err != nil {
		observability.RecordSettlement(string(cmd.Method), "verification_failed", 0)
		return nil, err
	}

	total := bill.RequestTotal()
	// rounded to storage precision; PayPal reports amounts as decimal
	// strings that are not guaranteed to be 2dp
	excess := domain.RoundAmount(verification.AmountPaid.Sub(total))

	var balanceDelta decimal.Decimal
	advanceCreated := 0
	now := timeutil.Now()

	record := &models.PaymentRecord{
		ID:         uuid.New(),
		TenantID:   bill.TenantID,
		LandlordID: bill.LandlordID,
		PropertyID: bill.PropertyID,
		Amount:     verification.AmountPaid,
		Method:     cmd.Method,
		Currency:   domain.SettlementCurrency,
		Status:     models.RecordStatusRecorded,
		PaidAt:     now,
		CreatedAt:  now,
	}

	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var txErr error
		balanceDelta, txErr = s.applyBalance(ctx, tx, bill, excess)
		if txErr != nil {
			return txErr
		}

		if txErr = s.ledger.Create(ctx, tx, record); txErr != nil {
			return txErr
		}

		if txErr = s.bills.MarkPaid(ctx, tx, ports.MarkPaidParams{
			BillID:                bill.ID,
			PaymentID:             record.ID,
			Method:                cmd.Method,
			TenantReferenceNumber: verification.ExternalTransactionID,
			PaidAt:                now,
			DescriptionSuffix:     fmt.Sprintf(" (Via %s)", cmd.Method.DisplayName()),
		}); txErr != nil {
			return txErr
		}

		if bill.RentAmount.IsPositive() && !bill.IsMoveInPayment {
			advanceCreated, txErr = s.scheduler.Schedule(ctx, tx, bill, record.ID, cmd.Method, verification.ExternalTransactionID)
			if txErr != nil {
				return txErr
			}
		}

		return nil
	})
	if err != nil {
		observability.RecordSettlement(string(cmd.Method), "failed", 0)
		if domain.IsDomainError(err, domain.ErrorCodeBillImmutable) {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "settlement transaction failed", err).
			WithDetail("bill_id", bill.ID.String())
	}

	amountPaid, _ := verification.AmountPaid.Float64()
	observability.RecordSettlement(string(cmd.Method), "settled", amountPaid)
	deltaF, _ := balanceDelta.Float64()
	observability.RecordBalanceChange(deltaF)
	observability.RecordAdvanceBills(advanceCreated)

	s.logger.Info("settlement committed",
		ports.String("bill_id", bill.ID.String()),
		ports.String("gateway", string(cmd.Method)),
		ports.String("amount_paid", verification.AmountPaid.StringFixed(2)),
		ports.String("balance_delta", balanceDelta.StringFixed(2)),
		ports.Int("advance_bills", advanceCreated))

	s.notifySettled(ctx, bill, verification.AmountPaid)

	excessOut := decimal.Zero
	if excess.IsPositive() {
		excessOut = excess
	}
	return &SettleResult{Success: true, ExcessAmount: excessOut}, nil
}

func (s *Service) validate(cmd SettleCommand) error {
	if cmd.BillID == uuid.Nil {
		return domain.NewDomainError(domain.ErrorCodeValidationMissingField, "payment request id is required")
	}
	if cmd.Reference == "" {
		return domain.NewDomainError(domain.ErrorCodeValidationMissingField, "settlement reference is required")
	}
	if !cmd.Method.Valid() {
		return domain.NewDomainError(domain.ErrorCodeValidationBadGateway, "unknown payment gateway").
			WithDetail("gateway", string(cmd.Method))
	}
	if _, ok := s.gateways[cmd.Method]; !ok {
		return domain.NewDomainError(domain.ErrorCodeValidationBadGateway, "gateway not enabled").
			WithDetail("gateway", string(cmd.Method))
	}
	return nil
}

// verify calls the gateway and maps its failure taxonomy onto domain
// errors. No local state is touched on this path.
func (s *Service) verify(ctx context.Context, cmd SettleCommand) (*ports.VerificationResult, error) {
	gateway := s.gateways[cmd.Method]

	start := time.Now()
	result, err := gateway.Verify(ctx, cmd.Reference)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		var verr *gwerrors.VerificationError
		if errors.As(err, &verr) && verr.Category == gwerrors.CategoryTimeout {
			observability.RecordGatewayVerification(string(cmd.Method), "timeout", elapsed)
			return nil, domain.WrapError(domain.ErrorCodeGatewayTimeout, "payment gateway timed out", err).
				WithDetail("gateway", string(cmd.Method))
		}
		observability.RecordGatewayVerification(string(cmd.Method), "failed", elapsed)
		if errors.As(err, &verr) {
			return nil, domain.WrapError(domain.ErrorCodeGatewayVerificationFailed, verr.Message, err).
				WithDetail("gateway", string(cmd.Method)).
				WithDetail("category", string(verr.Category))
		}
		return nil, domain.WrapError(domain.ErrorCodeGatewayError, "gateway call failed", err).
			WithDetail("gateway", string(cmd.Method))
	}

	if !result.Verified {
		observability.RecordGatewayVerification(string(cmd.Method), "failed", elapsed)
		return nil, domain.NewDomainError(domain.ErrorCodeGatewayVerificationFailed, "payment is not in a success state").
			WithDetail("gateway", string(cmd.Method))
	}

	observability.RecordGatewayVerification(string(cmd.Method), "verified", elapsed)
	return result, nil
}

// applyBalance credits overpayment to the tenant's stored balance, or
// draws a shortfall from it. The draw is capped at the stored balance
// inside the repository's single locked statement, so concurrent
// settlements against the same balance can never push it negative; any
// remaining shortfall is accepted and the bill still settles in full.
func (s *Service) applyBalance(ctx context.Context, tx ports.DBTX, bill *models.PaymentRequest, excess decimal.Decimal) (decimal.Decimal, error) {
	if excess.IsZero() || bill.OccupancyID == nil {
		return decimal.Zero, nil
	}

	if excess.IsPositive() {
		if _, err := s.balances.ApplyDelta(ctx, tx, bill.TenantID, *bill.OccupancyID, excess); err != nil {
			return decimal.Zero, err
		}
		return excess, nil
	}

	needed := excess.Neg()
	drawn, err := s.balances.DrawUpTo(ctx, tx, bill.TenantID, *bill.OccupancyID, needed)
	if err != nil {
		return decimal.Zero, err
	}
	if !drawn.IsPositive() {
		return decimal.Zero, nil
	}
	if drawn.LessThan(needed) {
		s.logger.Warn("shortfall only partially covered by stored credit",
			ports.String("bill_id", bill.ID.String()),
			ports.String("needed", needed.StringFixed(2)),
			ports.String("drawn", drawn.StringFixed(2)))
	}
	return drawn.Neg(), nil
}

// notifySettled fires best-effort notifications after the settlement has
// committed. Failures are logged by the notifier and never affect the
// settlement outcome.
func (s *Service) notifySettled(ctx context.Context, bill *models.PaymentRequest, amountPaid decimal.Decimal) {
	detached := context.WithoutCancel(ctx)
	tenantMsg := fmt.Sprintf("Your payment of %s %s has been received and applied to your bill due %s.",
		domain.SettlementCurrency, amountPaid.StringFixed(2), bill.DueDate.Format("January 2, 2006"))
	landlordMsg := fmt.Sprintf("A payment of %s %s has been received for the bill due %s.",
		domain.SettlementCurrency, amountPaid.StringFixed(2), bill.DueDate.Format("January 2, 2006"))

	go func() {
		if err := s.notifier.NotifyTenant(detached, bill.TenantID, tenantMsg); err != nil {
			s.logger.Warn("tenant notification failed",
				ports.String("tenant_id", bill.TenantID.String()),
				ports.Err(err))
		}
	}()
	go func() {
		if err := s.notifier.NotifyLandlord(detached, bill.LandlordID, landlordMsg); err != nil {
			s.logger.Warn("landlord notification failed",
				ports.String("landlord_id", bill.LandlordID.String()),
				ports.Err(err))
		}
	}()
}
