package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/simkeeper/internal/client/client"
	"github.com/dmitrijs2005/simkeeper/internal/client/models"

	_ "modernc.org/sqlite"
)

type fakeClient struct {
	token string

	session   *models.Session
	user      *models.User
	err       error
	logoutErr error
	meErr     error

	created  *models.NewSimulation
	updated  models.SimulationChanges
	deleted  []int64
	pingHits int
}

func (f *fakeClient) SetToken(token string) { f.token = token }

func (f *fakeClient) Ping(context.Context) error {
	f.pingHits++
	return f.err
}

func (f *fakeClient) Register(context.Context, models.Registration) (*models.Session, error) {
	return f.session, f.err
}

func (f *fakeClient) Login(context.Context, string, string) (*models.Session, error) {
	return f.session, f.err
}

func (f *fakeClient) Logout(context.Context) error { return f.logoutErr }

func (f *fakeClient) Me(context.Context) (*models.User, error) { return f.user, f.meErr }

func (f *fakeClient) VerifyTum(context.Context, string, string) (*models.User, error) {
	return f.user, f.err
}

func (f *fakeClient) ListSimulations(_ context.Context, p models.ListParams) (*models.SimulationPage, error) {
	return &models.SimulationPage{Meta: models.PageMeta{Page: p.Page}}, f.err
}

func (f *fakeClient) CreateSimulation(_ context.Context, in models.NewSimulation) (*models.Simulation, error) {
	f.created = &in
	return &models.Simulation{ID: 1, Configuration: in.Configuration}, f.err
}

func (f *fakeClient) GetSimulation(_ context.Context, id int64) (*models.Simulation, error) {
	return &models.Simulation{ID: id}, f.err
}

func (f *fakeClient) UpdateSimulation(_ context.Context, id int64, changes models.SimulationChanges) (*models.Simulation, error) {
	f.updated = changes
	return &models.Simulation{ID: id}, f.err
}

func (f *fakeClient) DeleteSimulation(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeClient) BulkDeleteSimulations(_ context.Context, ids []int64) error {
	f.deleted = append(f.deleted, ids...)
	return f.err
}

var _ client.Client = (*fakeClient)(nil)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, client.RunMigrations(context.Background(), db))
	return db
}
