package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillStatus represents the lifecycle state of a payment request
type BillStatus string

const (
	BillStatusPending             BillStatus = "pending"
	BillStatusPendingConfirmation BillStatus = "pending_confirmation"
	BillStatusPaid                BillStatus = "paid"
)

// PaymentMethod identifies how a bill was settled
type PaymentMethod string

const (
	MethodStripe   PaymentMethod = "stripe"
	MethodPayMongo PaymentMethod = "paymongo"
	MethodPayPal   PaymentMethod = "paypal"
	MethodCredit   PaymentMethod = "credit"
)

// DisplayName returns the method name as shown in bill descriptions
func (m PaymentMethod) DisplayName() string {
	switch m {
	case MethodStripe:
		return "Stripe"
	case MethodPayMongo:
		return "PayMongo"
	case MethodPayPal:
		return "PayPal"
	case MethodCredit:
		return "Credit"
	}
	return string(m)
}

// Valid reports whether m is a known settlement method
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodStripe, MethodPayMongo, MethodPayPal, MethodCredit:
		return true
	}
	return false
}

// PaymentRequest is one billing period's charges owed by a tenant.
// Once Status is paid with a non-nil PaymentID the record is immutable
// except for the description suffix appended at settlement time.
type PaymentRequest struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	LandlordID  uuid.UUID
	PropertyID  uuid.UUID
	OccupancyID *uuid.UUID
	DueDate     time.Time

	RentAmount       decimal.Decimal
	AdvanceAmount    decimal.Decimal
	SecurityDeposit  decimal.Decimal
	WaterAmount      decimal.Decimal
	ElectricalAmount decimal.Decimal
	WifiAmount       decimal.Decimal
	OtherAmount      decimal.Decimal

	Status                BillStatus
	PaymentMethod         PaymentMethod
	TenantReferenceNumber string
	PaymentID             *uuid.UUID
	Description           string

	IsMoveInPayment  bool
	IsAdvancePayment bool
	IsRenewalPayment bool

	PaidAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RequestTotal sums all monetary line items. Line items absent in storage
// scan as zero decimals, so a partially populated bill never fails here.
func (p *PaymentRequest) RequestTotal() decimal.Decimal {
	return p.RentAmount.
		Add(p.AdvanceAmount).
		Add(p.SecurityDeposit).
		Add(p.WaterAmount).
		Add(p.ElectricalAmount).
		Add(p.WifiAmount).
		Add(p.OtherAmount)
}

// IsPaid reports whether the bill has been settled
func (p *PaymentRequest) IsPaid() bool {
	return p.Status == BillStatusPaid
}
