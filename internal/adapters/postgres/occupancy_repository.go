package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/renthub/rent-ledger/internal/domain"
	"github.com/renthub/rent-ledger/internal/domain/ports"
)

// OccupancyRepository implements the renewal-flag slice of occupancy data.
// Occupancies are otherwise owned by the upstream tenancy system.
type OccupancyRepository struct {
	db ports.DBPort
}

// NewOccupancyRepository creates a new occupancy repository
func NewOccupancyRepository(db ports.DBPort) *OccupancyRepository {
	return &OccupancyRepository{db: db}
}

func (r *OccupancyRepository) executor(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.db.GetDB()
}

// ClearRenewalFlags resets the renewal cycle after a renewal bill settles.
// Idempotent: clearing already-clear flags affects zero rows and is fine.
func (r *OccupancyRepository) ClearRenewalFlags(ctx context.Context, tx ports.DBTX, occupancyID uuid.UUID) error {
	_, err := r.executor(tx).Exec(ctx, `
		UPDATE occupancies
		SET renewal_status = NULL,
		    renewal_requested = FALSE,
		    updated_at = now()
		WHERE id = $1`,
		occupancyID)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "clear renewal flags", err)
	}
	return nil
}
