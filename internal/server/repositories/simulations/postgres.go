// Package simulations provides the PostgreSQL-backed simulation store.
package simulations

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/simkeeper/internal/common"
	"github.com/dmitrijs2005/simkeeper/internal/dbx"
	"github.com/dmitrijs2005/simkeeper/internal/server/models"
)

const simulationColumns = `id, user_id, name, description, configuration, results, notes, created_at, updated_at`

// sortColumns whitelists the ORDER BY targets; values are never interpolated
// from user input directly.
var sortColumns = map[string]string{
	models.SortCreatedAt: "created_at",
	models.SortUpdatedAt: "updated_at",
	models.SortName:      "name",
}

// PostgresRepository implements Repository over dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Count returns how many simulations ownerID has.
func (r *PostgresRepository) Count(ctx context.Context, ownerID int64) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM simulations WHERE user_id = $1`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// List returns one page of ownerID's simulations. Rows with equal sort keys
// are ordered by id in the same direction so pages never overlap.
func (r *PostgresRepository) List(ctx context.Context, ownerID int64, q models.ListQuery) ([]*models.Simulation, error) {
	column, ok := sortColumns[q.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if q.Order == models.OrderAsc {
		direction = "ASC"
	}

	query := fmt.Sprintf(
		`SELECT %s FROM simulations WHERE user_id = $1 ORDER BY %s %s, id %s LIMIT $2 OFFSET $3`,
		simulationColumns, column, direction, direction)

	rows, err := r.db.QueryContext(ctx, query, ownerID, q.PerPage, q.Offset())
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Simulation, 0, q.PerPage)
	for rows.Next() {
		sim, err := scanSimulation(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, sim)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// Create inserts sim and fills in the generated id and timestamps.
func (r *PostgresRepository) Create(ctx context.Context, sim *models.Simulation) (*models.Simulation, error) {
	query := `
		INSERT INTO simulations (user_id, name, description, configuration, results, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		sim.UserID, sim.Name, sim.Description, jsonArg(sim.Configuration), jsonArg(sim.Results), sim.Notes).
		Scan(&sim.ID, &sim.CreatedAt, &sim.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return sim, nil
}

// Get returns the simulation id owned by ownerID or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, ownerID, id int64) (*models.Simulation, error) {
	query := `SELECT ` + simulationColumns + ` FROM simulations WHERE id = $1 AND user_id = $2`

	sim, err := scanSimulation(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return sim, nil
}

// Update changes only the fields present in patch and bumps updated_at.
func (r *PostgresRepository) Update(ctx context.Context, ownerID, id int64, patch models.SimulationPatch) (*models.Simulation, error) {
	if patch.Empty() {
		return r.Get(ctx, ownerID, id)
	}

	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		add("name", nullString(*patch.Name))
	}
	if patch.Description != nil {
		add("description", nullString(*patch.Description))
	}
	if patch.Configuration != nil {
		add("configuration", jsonArg(patch.Configuration))
	}
	if patch.Results != nil {
		add("results", jsonArg(patch.Results))
	}
	if patch.Notes != nil {
		add("notes", nullString(*patch.Notes))
	}
	args = append(args, id, ownerID)

	query := fmt.Sprintf(
		`UPDATE simulations SET %s, updated_at = now() WHERE id = $%d AND user_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), simulationColumns)

	sim, err := scanSimulation(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return sim, nil
}

// Delete removes one owned simulation; common.ErrorNotFound when nothing matched.
func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM simulations WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// DeleteMany removes the owned subset of ids and reports how many rows went.
// The ids travel as one bigint[] parameter, so the list length is not bound
// by the protocol's parameter limit.
func (r *PostgresRepository) DeleteMany(ctx context.Context, ownerID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `DELETE FROM simulations WHERE user_id = $1 AND id = ANY($2::bigint[])`

	res, err := r.db.ExecContext(ctx, query, ownerID, int64Array(ids))
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

// int64Array renders ids as a Postgres array literal, e.g. {1,2,3}.
func int64Array(ids []int64) string {
	var b strings.Builder
	b.Grow(len(ids)*4 + 2)
	b.WriteByte('{')
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(id, 10))
	}
	b.WriteByte('}')
	return b.String()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSimulation(s scanner) (*models.Simulation, error) {
	var (
		sim                      models.Simulation
		name, description, notes sql.NullString
		configuration, results   []byte
	)
	err := s.Scan(&sim.ID, &sim.UserID, &name, &description, &configuration, &results, &notes,
		&sim.CreatedAt, &sim.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sim.Name = stringPtr(name)
	sim.Description = stringPtr(description)
	sim.Notes = stringPtr(notes)
	sim.Configuration = json.RawMessage(configuration)
	if results != nil {
		sim.Results = json.RawMessage(results)
	}
	return &sim, nil
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func nullString(ns sql.NullString) any {
	if !ns.Valid {
		return nil
	}
	return ns.String
}

// jsonArg passes a document as text so the driver lets Postgres parse it;
// absent documents and the JSON literal null become SQL NULL.
func jsonArg(raw json.RawMessage) any {
	if raw == nil || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	return string(raw)
}
