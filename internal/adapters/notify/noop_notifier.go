package notify

import (
	"context"

	"github.com/google/uuid"

	"github.com/renthub/rent-ledger/internal/domain/ports"
)

// NoopNotifier discards notifications. Used when no webhook endpoints are
// configured and in tests.
type NoopNotifier struct {
	logger ports.Logger
}

// NewNoop creates a notifier that logs and drops every notification
func NewNoop(logger ports.Logger) *NoopNotifier {
	return &NoopNotifier{logger: logger}
}

// NotifyTenant implements ports.Notifier
func (n *NoopNotifier) NotifyTenant(ctx context.Context, tenantID uuid.UUID, message string) error {
	n.logger.Debug("dropping tenant notification",
		ports.String("tenant_id", tenantID.String()),
		ports.String("message", message))
	return nil
}

// NotifyLandlord implements ports.Notifier
func (n *NoopNotifier) NotifyLandlord(ctx context.Context, landlordID uuid.UUID, message string) error {
	n.logger.Debug("dropping landlord notification",
		ports.String("landlord_id", landlordID.String()),
		ports.String("message", message))
	return nil
}
