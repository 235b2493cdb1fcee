package client

import (
	"context"

	"github.com/dmitrijs2005/simkeeper/internal/client/models"
)

// Client is the API surface used by the CLI services.
type Client interface {
	SetToken(token string)
	Ping(ctx context.Context) error

	Register(ctx context.Context, in models.Registration) (*models.Session, error)
	Login(ctx context.Context, email, password string) (*models.Session, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*models.User, error)
	VerifyTum(ctx context.Context, tumID, password string) (*models.User, error)

	ListSimulations(ctx context.Context, p models.ListParams) (*models.SimulationPage, error)
	CreateSimulation(ctx context.Context, in models.NewSimulation) (*models.Simulation, error)
	GetSimulation(ctx context.Context, id int64) (*models.Simulation, error)
	UpdateSimulation(ctx context.Context, id int64, changes models.SimulationChanges) (*models.Simulation, error)
	DeleteSimulation(ctx context.Context, id int64) error
	BulkDeleteSimulations(ctx context.Context, ids []int64) error
}
