package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/simkeeper/internal/common"
	"github.com/dmitrijs2005/simkeeper/internal/dbx"
	"github.com/dmitrijs2005/simkeeper/internal/logging"
	"github.com/dmitrijs2005/simkeeper/internal/server/config"
	"github.com/dmitrijs2005/simkeeper/internal/server/models"
	"github.com/dmitrijs2005/simkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/simkeeper/internal/server/repositories/simulations"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:             "k",
		TokenValidityDuration: time.Hour,
		BcryptCost:            4,
		MinPasswordLength:     8,
	}
}

// fakeVerifier answers every verification with err.
type fakeVerifier struct {
	err      error
	username string
	password string
}

func (f *fakeVerifier) Verify(_ context.Context, username, password string) error {
	f.username, f.password = username, password
	return f.err
}

func newUserService(t *testing.T, db *sql.DB, rm repomanager.RepositoryManager, v IdentityVerifier) *UserService {
	t.Helper()
	if v == nil {
		v = &fakeVerifier{}
	}
	return NewUserService(db, rm, testConfig(), v, logging.NewNopLogger())
}

// failingSimulations wraps the in-memory store and fails selected calls.
type failingSimulations struct {
	simulations.Repository
	countErr error
	listErr  error
}

func (f failingSimulations) Count(ctx context.Context, ownerID int64) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.Repository.Count(ctx, ownerID)
}

func (f failingSimulations) List(ctx context.Context, ownerID int64, q models.ListQuery) ([]*models.Simulation, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.Repository.List(ctx, ownerID, q)
}

type failingRepoManager struct {
	*repomanager.InMemoryRepositoryManager
	countErr error
	listErr  error
}

func (m failingRepoManager) Simulations(db dbx.DBTX) simulations.Repository {
	return failingSimulations{
		Repository: m.InMemoryRepositoryManager.Simulations(db),
		countErr:   m.countErr,
		listErr:    m.listErr,
	}
}

// recordingRepoManager remembers the ids handed to DeleteMany.
type recordingRepoManager struct {
	*repomanager.InMemoryRepositoryManager
	deleted []int64
}

type recordingSimulations struct {
	simulations.Repository
	m *recordingRepoManager
}

func (r recordingSimulations) DeleteMany(ctx context.Context, ownerID int64, ids []int64) (int64, error) {
	r.m.deleted = append(r.m.deleted, ids...)
	return r.Repository.DeleteMany(ctx, ownerID, ids)
}

func (m *recordingRepoManager) Simulations(db dbx.DBTX) simulations.Repository {
	return recordingSimulations{Repository: m.InMemoryRepositoryManager.Simulations(db), m: m}
}

func violationsOf(t *testing.T, err error) common.Violations {
	t.Helper()
	var ve *common.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want *common.ValidationError, got %v", err)
	}
	return ve.Violations
}
