package ports

import (
	"context"

	"github.com/google/uuid"
)

// Notifier delivers settlement notifications. Delivery is best-effort:
// callers log failures and never let them affect the settlement outcome.
type Notifier interface {
	NotifyTenant(ctx context.Context, tenantID uuid.UUID, message string) error
	NotifyLandlord(ctx context.Context, landlordID uuid.UUID, message string) error
}
