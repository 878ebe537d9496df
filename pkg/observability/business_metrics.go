package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Settlement metrics
	settlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlements_total",
		Help: "Total settlement attempts",
	}, []string{
		"gateway", // stripe, paymongo, paypal, credit
		"status",  // settled, already_paid, verification_failed, failed
	})

	settledAmount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settled_amount_total",
		Help: "Total verified amount settled, in settlement currency units",
	}, []string{
		"gateway",
	})

	excessCreditedAmount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "excess_credited_amount_total",
		Help: "Overpayment credited to tenant balances",
	})

	creditAbsorbedAmount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "credit_absorbed_amount_total",
		Help: "Shortfall absorbed from stored tenant credit",
	})

	advanceBillsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "advance_bills_created_total",
		Help: "Future bills materialized from advance payments",
	})

	// Gateway verification metrics
	gatewayVerificationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_verification_duration_seconds",
		Help:    "Time to verify a payment with the external gateway",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
	}, []string{
		"gateway",
		"status", // verified, failed, timeout
	})

	// Notification metrics
	notificationDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_deliveries_total",
		Help: "Settlement notification delivery attempts",
	}, []string{
		"recipient", // tenant, landlord
		"status",    // success, failed
	})
)

// RecordSettlement records the outcome of one settlement attempt
func RecordSettlement(gateway, status string, amount float64) {
	settlementsTotal.WithLabelValues(gateway, status).Inc()
	if status == "settled" {
		settledAmount.WithLabelValues(gateway).Add(amount)
	}
}

// RecordBalanceChange records the balance delta applied during settlement
func RecordBalanceChange(delta float64) {
	if delta > 0 {
		excessCreditedAmount.Add(delta)
	} else if delta < 0 {
		creditAbsorbedAmount.Add(-delta)
	}
}

// RecordAdvanceBills records future bills created by the advance scheduler
func RecordAdvanceBills(count int) {
	advanceBillsCreated.Add(float64(count))
}

// RecordGatewayVerification records one gateway verification call
func RecordGatewayVerification(gateway, status string, seconds float64) {
	gatewayVerificationDuration.WithLabelValues(gateway, status).Observe(seconds)
}

// RecordNotificationDelivery records one notification attempt
func RecordNotificationDelivery(recipient, status string) {
	notificationDeliveries.WithLabelValues(recipient, status).Inc()
}
