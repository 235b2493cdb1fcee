package simulations

import (
	"context"

	"github.com/dmitrijs2005/simkeeper/internal/server/models"
)

// Repository persists simulations. Every method except Create is scoped to
// ownerID; rows owned by someone else behave as if they did not exist.
type Repository interface {
	Count(ctx context.Context, ownerID int64) (int64, error)
	List(ctx context.Context, ownerID int64, q models.ListQuery) ([]*models.Simulation, error)
	Create(ctx context.Context, sim *models.Simulation) (*models.Simulation, error)
	Get(ctx context.Context, ownerID, id int64) (*models.Simulation, error)
	Update(ctx context.Context, ownerID, id int64, patch models.SimulationPatch) (*models.Simulation, error)
	Delete(ctx context.Context, ownerID, id int64) error
	DeleteMany(ctx context.Context, ownerID int64, ids []int64) (int64, error)
}
