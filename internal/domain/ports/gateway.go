package ports

import (
	"context"

	"github.com/renthub/rent-ledger/internal/domain/models"
	"github.com/shopspring/decimal"
)

// VerificationResult is the gateway's authoritative record of a payment.
// It is produced once per settlement attempt and never persisted.
type VerificationResult struct {
	// AmountPaid is the verified amount in settlement-currency decimal
	// form (gateway minor units already divided by 100).
	AmountPaid decimal.Decimal

	// ExternalTransactionID is what the landlord sees as the reference
	// number on the settled bill.
	ExternalTransactionID string

	// Verified is true only when the gateway reports the payment in a
	// success state.
	Verified bool
}

// Gateway verifies an opaque settlement reference against one payment
// provider. Implementations must not mutate any local state; the
// orchestrator owns all persistence.
type Gateway interface {
	// Name identifies the gateway variant this adapter serves
	Name() models.PaymentMethod

	// Verify resolves the settlement reference with the provider and
	// returns the verified amount and external transaction id. Any
	// non-success provider status, transport failure, or unresolvable
	// reference is an error.
	Verify(ctx context.Context, reference string) (*VerificationResult, error)
}
