package repomanager

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/json"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/simkeeper/internal/common"
	"github.com/dmitrijs2005/simkeeper/internal/dbx"
	"github.com/dmitrijs2005/simkeeper/internal/server/models"
	"github.com/dmitrijs2005/simkeeper/internal/server/repositories/revokedtokens"
	"github.com/dmitrijs2005/simkeeper/internal/server/repositories/simulations"
	"github.com/dmitrijs2005/simkeeper/internal/server/repositories/users"
)

// InMemoryRepositoryManager keeps all rows in process memory. Every DBTX
// handed to it is ignored, so transactions only group calls logically.
// It is meant for tests and local experiments.
type InMemoryRepositoryManager struct {
	mu sync.Mutex

	now func() time.Time

	userSeq    int64
	users      map[int64]*models.User
	simSeq     int64
	sims       map[int64]*models.Simulation
	revocation map[string]models.RevokedToken
}

// NewInMemoryRepositoryManager returns an empty in-memory store.
func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		now:        time.Now,
		users:      map[int64]*models.User{},
		sims:       map[int64]*models.Simulation{},
		revocation: map[string]models.RevokedToken{},
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return memoryUsers{m} }

func (m *InMemoryRepositoryManager) Simulations(dbx.DBTX) simulations.Repository {
	return memorySimulations{m}
}

func (m *InMemoryRepositoryManager) RevokedTokens(dbx.DBTX) revokedtokens.Repository {
	return memoryRevokedTokens{m}
}

type memoryUsers struct{ m *InMemoryRepositoryManager }

func (r memoryUsers) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, u := range r.m.users {
		if u.Email == user.Email {
			return nil, &common.ConflictError{Field: "email"}
		}
		if user.TumID != nil && u.TumID != nil && *u.TumID == *user.TumID {
			return nil, &common.ConflictError{Field: "tum_id"}
		}
	}

	r.m.userSeq++
	now := r.m.now().UTC()
	user.ID = r.m.userSeq
	user.CreatedAt, user.UpdatedAt = now, now

	stored := *user
	r.m.users[user.ID] = &stored
	return user, nil
}

func (r memoryUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, u := range r.m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memoryUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	u, ok := r.m.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (r memoryUsers) Update(_ context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	u, ok := r.m.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if patch.TumID != nil {
		for otherID, other := range r.m.users {
			if otherID != id && other.TumID != nil && *other.TumID == *patch.TumID {
				return nil, &common.ConflictError{Field: "tum_id"}
			}
		}
		tum := *patch.TumID
		u.TumID = &tum
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.IsTumVerified != nil {
		u.IsTumVerified = *patch.IsTumVerified
	}
	if !patch.Empty() {
		u.UpdatedAt = r.m.now().UTC()
	}
	c := *u
	return &c, nil
}

type memorySimulations struct{ m *InMemoryRepositoryManager }

func (r memorySimulations) Count(_ context.Context, ownerID int64) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var n int64
	for _, s := range r.m.sims {
		if s.UserID == ownerID {
			n++
		}
	}
	return n, nil
}

func (r memorySimulations) List(_ context.Context, ownerID int64, q models.ListQuery) ([]*models.Simulation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	owned := make([]*models.Simulation, 0)
	for _, s := range r.m.sims {
		if s.UserID == ownerID {
			owned = append(owned, s)
		}
	}

	slices.SortFunc(owned, func(a, b *models.Simulation) int {
		c := compareBy(q.SortBy, a, b)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if q.Order == models.OrderAsc {
			return c
		}
		return -c
	})

	result := make([]*models.Simulation, 0, q.PerPage)
	for i := q.Offset(); i < len(owned) && len(result) < q.PerPage; i++ {
		result = append(result, cloneSimulation(owned[i]))
	}
	return result, nil
}

func (r memorySimulations) Create(_ context.Context, sim *models.Simulation) (*models.Simulation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.simSeq++
	now := r.m.now().UTC()
	sim.ID = r.m.simSeq
	sim.CreatedAt, sim.UpdatedAt = now, now
	r.m.sims[sim.ID] = cloneSimulation(sim)
	return sim, nil
}

func (r memorySimulations) Get(_ context.Context, ownerID, id int64) (*models.Simulation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	s, ok := r.m.sims[id]
	if !ok || s.UserID != ownerID {
		return nil, common.ErrorNotFound
	}
	return cloneSimulation(s), nil
}

func (r memorySimulations) Update(_ context.Context, ownerID, id int64, patch models.SimulationPatch) (*models.Simulation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	s, ok := r.m.sims[id]
	if !ok || s.UserID != ownerID {
		return nil, common.ErrorNotFound
	}
	if patch.Empty() {
		return cloneSimulation(s), nil
	}

	if patch.Name != nil {
		s.Name = fromNull(*patch.Name)
	}
	if patch.Description != nil {
		s.Description = fromNull(*patch.Description)
	}
	if patch.Notes != nil {
		s.Notes = fromNull(*patch.Notes)
	}
	if patch.Configuration != nil {
		s.Configuration = cloneRaw(patch.Configuration)
	}
	if patch.Results != nil {
		if string(patch.Results) == "null" {
			s.Results = nil
		} else {
			s.Results = cloneRaw(patch.Results)
		}
	}
	s.UpdatedAt = r.m.now().UTC()
	return cloneSimulation(s), nil
}

func (r memorySimulations) Delete(_ context.Context, ownerID, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	s, ok := r.m.sims[id]
	if !ok || s.UserID != ownerID {
		return common.ErrorNotFound
	}
	delete(r.m.sims, id)
	return nil
}

func (r memorySimulations) DeleteMany(_ context.Context, ownerID int64, ids []int64) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var n int64
	for _, id := range ids {
		if s, ok := r.m.sims[id]; ok && s.UserID == ownerID {
			delete(r.m.sims, id)
			n++
		}
	}
	return n, nil
}

type memoryRevokedTokens struct{ m *InMemoryRepositoryManager }

func (r memoryRevokedTokens) Create(_ context.Context, token *models.RevokedToken) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.revocation[token.TokenID]; !ok {
		t := *token
		t.CreatedAt = r.m.now().UTC()
		r.m.revocation[token.TokenID] = t
	}
	return nil
}

func (r memoryRevokedTokens) Exists(_ context.Context, tokenID string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	_, ok := r.m.revocation[tokenID]
	return ok, nil
}

func (r memoryRevokedTokens) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var n int64
	for id, t := range r.m.revocation {
		if t.ExpiresAt.Before(now) {
			delete(r.m.revocation, id)
			n++
		}
	}
	return n, nil
}

func compareBy(column string, a, b *models.Simulation) int {
	switch column {
	case models.SortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case models.SortName:
		return strings.Compare(deref(a.Name), deref(b.Name))
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}

func cloneSimulation(s *models.Simulation) *models.Simulation {
	c := *s
	c.Configuration = cloneRaw(s.Configuration)
	c.Results = cloneRaw(s.Results)
	if s.Name != nil {
		c.Name = fromNull(sql.NullString{String: *s.Name, Valid: true})
	}
	if s.Description != nil {
		c.Description = fromNull(sql.NullString{String: *s.Description, Valid: true})
	}
	if s.Notes != nil {
		c.Notes = fromNull(sql.NullString{String: *s.Notes, Valid: true})
	}
	return &c
}
