package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dmitrijs2005/simkeeper/internal/client/client"
	"github.com/dmitrijs2005/simkeeper/internal/client/models"
	"github.com/dmitrijs2005/simkeeper/internal/filex"
)

// SimulationService wraps the simulation endpoints and loads JSON documents
// from disk for them.
type SimulationService interface {
	List(ctx context.Context, p models.ListParams) (*models.SimulationPage, error)
	Get(ctx context.Context, id int64) (*models.Simulation, error)
	Create(ctx context.Context, in models.NewSimulation) (*models.Simulation, error)
	Update(ctx context.Context, id int64, changes models.SimulationChanges) (*models.Simulation, error)
	Delete(ctx context.Context, id int64) error
	BulkDelete(ctx context.Context, ids []int64) error
	LoadDocument(path string) (json.RawMessage, error)
}

type simulationService struct {
	client client.Client
	stdin  io.Reader
}

// NewSimulationService returns a SimulationService. stdin backs the "-"
// document path.
func NewSimulationService(c client.Client, stdin io.Reader) SimulationService {
	return &simulationService{client: c, stdin: stdin}
}

func (s *simulationService) List(ctx context.Context, p models.ListParams) (*models.SimulationPage, error) {
	return s.client.ListSimulations(ctx, p)
}

func (s *simulationService) Get(ctx context.Context, id int64) (*models.Simulation, error) {
	return s.client.GetSimulation(ctx, id)
}

func (s *simulationService) Create(ctx context.Context, in models.NewSimulation) (*models.Simulation, error) {
	if len(in.Configuration) == 0 {
		return nil, fmt.Errorf("configuration is required")
	}
	return s.client.CreateSimulation(ctx, in)
}

func (s *simulationService) Update(ctx context.Context, id int64, changes models.SimulationChanges) (*models.Simulation, error) {
	return s.client.UpdateSimulation(ctx, id, changes)
}

func (s *simulationService) Delete(ctx context.Context, id int64) error {
	return s.client.DeleteSimulation(ctx, id)
}

func (s *simulationService) BulkDelete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return fmt.Errorf("no ids given")
	}
	return s.client.BulkDeleteSimulations(ctx, ids)
}

func (s *simulationService) LoadDocument(path string) (json.RawMessage, error) {
	return filex.ReadJSONDocument(path, s.stdin)
}
