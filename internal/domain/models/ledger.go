package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecordStatus is the state of a ledger entry. Entries are append-only;
// "recorded" is the only state a successful settlement writes.
type RecordStatus string

const (
	RecordStatusRecorded RecordStatus = "recorded"
)

// PaymentRecord is the immutable audit record of money received.
// It is the foreign-key target of PaymentRequest.PaymentID.
type PaymentRecord struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	LandlordID uuid.UUID
	PropertyID uuid.UUID
	Amount     decimal.Decimal
	Method     PaymentMethod
	Currency   string
	Status     RecordStatus
	PaidAt     time.Time
	CreatedAt  time.Time
}

// TenantBalance is the running stored credit for a (tenant, occupancy)
// pair. Amount is the sum of every signed delta ever applied and is never
// negative by policy.
type TenantBalance struct {
	TenantID    uuid.UUID
	OccupancyID uuid.UUID
	Amount      decimal.Decimal
	LastUpdated time.Time
}
