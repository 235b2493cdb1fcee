package simulations

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/simkeeper/internal/common"
	"github.com/dmitrijs2005/simkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var simCols = []string{"id", "user_id", "name", "description", "configuration", "results", "notes", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func strp(s string) *string { return &s }

func TestCount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`^SELECT\s+COUNT\(\*\)\s+FROM\s+simulations\s+WHERE\s+user_id\s*=\s*\$1$`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(42)))

	n, err := repo.Count(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestCount_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`COUNT`).WillReturnError(errors.New("db down"))

	_, err := repo.Count(context.Background(), 1)
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestList_OrderingAndPaging(t *testing.T) {
	tests := []struct {
		name  string
		query models.ListQuery
		order string
		limit int
		skip  int
	}{
		{
			name:  "default newest first",
			query: models.ListQuery{Page: 1, PerPage: 15, SortBy: models.SortCreatedAt, Order: models.OrderDesc},
			order: `ORDER\s+BY\s+created_at\s+DESC,\s*id\s+DESC`,
			limit: 15,
			skip:  0,
		},
		{
			name:  "name ascending third page",
			query: models.ListQuery{Page: 3, PerPage: 10, SortBy: models.SortName, Order: models.OrderAsc},
			order: `ORDER\s+BY\s+name\s+ASC,\s*id\s+ASC`,
			limit: 10,
			skip:  20,
		},
		{
			name:  "unknown column falls back",
			query: models.ListQuery{Page: 1, PerPage: 5, SortBy: "password_hash; --", Order: models.OrderDesc},
			order: `ORDER\s+BY\s+created_at\s+DESC,\s*id\s+DESC`,
			limit: 5,
			skip:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			now := time.Now().UTC()
			mock.ExpectQuery(`(?s)^SELECT\s+id,\s*user_id,.*FROM\s+simulations\s+WHERE\s+user_id\s*=\s*\$1\s+`+tt.order+`\s+LIMIT\s+\$2\s+OFFSET\s+\$3$`).
				WithArgs(int64(1), tt.limit, tt.skip).
				WillReturnRows(sqlmock.NewRows(simCols).
					AddRow(int64(2), int64(1), "B", nil, []byte(`{"a":1}`), nil, nil, now, now).
					AddRow(int64(1), int64(1), "A", "desc", []byte(`[1,2]`), []byte(`{"ok":true}`), "n", now, now))

			got, err := repo.List(context.Background(), 1, tt.query)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, int64(2), got[0].ID)
			assert.Nil(t, got[0].Description)
			assert.Nil(t, got[0].Results)
			assert.JSONEq(t, `{"ok":true}`, string(got[1].Results))
			assert.Equal(t, "desc", *got[1].Description)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestList_EmptyIsNotNil(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+simulations`).
		WillReturnRows(sqlmock.NewRows(simCols))

	got, err := repo.List(context.Background(), 1, models.ListQuery{Page: 1, PerPage: 15})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestList_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+simulations`).WillReturnError(errors.New("db err"))

	_, err := repo.List(context.Background(), 1, models.ListQuery{Page: 1, PerPage: 15})
	require.Error(t, err)
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+simulations\s*\(user_id,\s*name,\s*description,\s*configuration,\s*results,\s*notes\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)\s*RETURNING\s+id,\s*created_at,\s*updated_at`).
		WithArgs(int64(1), "Sim", nil, `{"l1Size":32}`, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(1), now, now))

	sim := &models.Simulation{UserID: 1, Name: strp("Sim"), Configuration: json.RawMessage(`{"l1Size":32}`)}
	got, err := repo.Create(context.Background(), sim)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+simulations`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Simulation{UserID: 1, Configuration: json.RawMessage(`{}`)})
	require.Error(t, err)
}

func TestGet_FiltersByOwner(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`FROM\s+simulations\s+WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2$`).
		WithArgs(int64(5), int64(1)).
		WillReturnRows(sqlmock.NewRows(simCols).AddRow(int64(5), int64(1), "S", nil, []byte(`{"x":1}`), nil, nil, now, now))

	got, err := repo.Get(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, "S", *got.Name)
	assert.JSONEq(t, `{"x":1}`, string(got.Configuration))
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+simulations\s+WHERE\s+id`).
		WithArgs(int64(5), int64(2)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), 2, 5)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdate_OnlyPresentFields(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`(?s)^UPDATE\s+simulations\s+SET\s+description\s*=\s*\$1,\s*results\s*=\s*\$2,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$3\s+AND\s+user_id\s*=\s*\$4\s+RETURNING\s+id,`).
		WithArgs(nil, `{"ipc":1.2}`, int64(5), int64(1)).
		WillReturnRows(sqlmock.NewRows(simCols).AddRow(int64(5), int64(1), "S", nil, []byte(`{"x":1}`), []byte(`{"ipc":1.2}`), "keep", now, now))

	patch := models.SimulationPatch{
		Description: &sql.NullString{},
		Results:     json.RawMessage(`{"ipc":1.2}`),
	}
	got, err := repo.Update(context.Background(), 1, 5, patch)
	require.NoError(t, err)
	assert.Nil(t, got.Description)
	assert.Equal(t, "keep", *got.Notes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_NullResultsClears(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`(?s)^UPDATE\s+simulations\s+SET\s+name\s*=\s*\$1,\s*results\s*=\s*\$2,`).
		WithArgs("renamed", nil, int64(5), int64(1)).
		WillReturnRows(sqlmock.NewRows(simCols).AddRow(int64(5), int64(1), "renamed", nil, []byte(`{}`), nil, nil, now, now))

	patch := models.SimulationPatch{
		Name:    &sql.NullString{String: "renamed", Valid: true},
		Results: json.RawMessage(`null`),
	}
	got, err := repo.Update(context.Background(), 1, 5, patch)
	require.NoError(t, err)
	assert.Nil(t, got.Results)
}

func TestUpdate_NotOwned(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`^UPDATE\s+simulations`).WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), 2, 5, models.SimulationPatch{Notes: &sql.NullString{String: "x", Valid: true}})
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdate_EmptyPatchReads(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`^SELECT\s+id,`).
		WithArgs(int64(5), int64(1)).
		WillReturnRows(sqlmock.NewRows(simCols).AddRow(int64(5), int64(1), "S", nil, []byte(`{}`), nil, nil, now, now))

	got, err := repo.Update(context.Background(), 1, 5, models.SimulationPatch{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE\s+FROM\s+simulations\s+WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2$`).
		WithArgs(int64(5), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 1, 5))
}

func TestDelete_NothingMatched(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE\s+FROM\s+simulations`).
		WithArgs(int64(5), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.ErrorIs(t, repo.Delete(context.Background(), 2, 5), common.ErrorNotFound)
}

func TestDeleteMany(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE\s+FROM\s+simulations\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+id\s*=\s*ANY\(\$2::bigint\[\]\)$`).
		WithArgs(int64(1), "{3,4,99}").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.DeleteMany(context.Background(), 1, []int64{3, 4, 99})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMany_LargeListBindsTwoParameters(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ids := make([]int64, 70000)
	for i := range ids {
		ids[i] = int64(i + 1)
	}

	mock.ExpectExec(`^DELETE`).
		WithArgs(int64(7), int64Array(ids)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteMany(context.Background(), 7, ids)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInt64Array(t *testing.T) {
	assert.Equal(t, "{1}", int64Array([]int64{1}))
	assert.Equal(t, "{-2,0,9223372036854775807}", int64Array([]int64{-2, 0, 9223372036854775807}))
}

func TestDeleteMany_NoIDsSkipsQuery(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	n, err := repo.DeleteMany(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMany_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE`).WillReturnError(errors.New("db down"))

	_, err := repo.DeleteMany(context.Background(), 1, []int64{1})
	require.Error(t, err)
}
