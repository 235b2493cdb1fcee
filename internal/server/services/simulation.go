package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/simkeeper/internal/common"
	"github.com/dmitrijs2005/simkeeper/internal/server/models"
	"github.com/dmitrijs2005/simkeeper/internal/server/repositories/repomanager"
)

// Paging bounds for list requests.
const (
	DefaultPage    = 1
	MaxPage        = 100000
	DefaultPerPage = 15
	MaxPerPage     = 100
)

// CreateInput is the payload of a create request. Configuration is required
// and must be a JSON object or array; the other fields are optional.
type CreateInput struct {
	Name          *string         `json:"name" validate:"omitempty,max=255"`
	Description   *string         `json:"description" validate:"omitempty,max=1000"`
	Configuration json.RawMessage `json:"configuration"`
	Results       json.RawMessage `json:"results"`
	Notes         *string         `json:"notes"`
}

// SimulationService implements owner-scoped simulation CRUD.
type SimulationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

// NewSimulationService constructs a SimulationService.
func NewSimulationService(db *sql.DB, m repomanager.RepositoryManager) *SimulationService {
	return &SimulationService{db: db, repomanager: m, now: time.Now}
}

// NewListQuery normalises raw query string values. Numbers are read from the
// leading digits; anything without them falls back to its default and
// numbers outside the allowed range are clamped.
func NewListQuery(page, perPage, sortBy, order string) models.ListQuery {
	q := models.ListQuery{
		Page:    clampInt(page, DefaultPage, 1, MaxPage),
		PerPage: clampInt(perPage, DefaultPerPage, 1, MaxPerPage),
		SortBy:  models.SortCreatedAt,
		Order:   models.OrderDesc,
	}

	switch strings.TrimSpace(sortBy) {
	case "updated_at", "updatedAt":
		q.SortBy = models.SortUpdatedAt
	case "name":
		q.SortBy = models.SortName
	}
	if strings.EqualFold(strings.TrimSpace(order), models.OrderAsc) {
		q.Order = models.OrderAsc
	}
	return q
}

// List returns one page of the owner's simulations together with paging
// metadata. The count and the page are fetched concurrently.
func (s *SimulationService) List(ctx context.Context, ownerID int64, q models.ListQuery) (*models.SimulationPage, error) {
	repo := s.repomanager.Simulations(s.db)

	var (
		total int64
		items []*models.Simulation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = repo.Count(gctx, ownerID)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = repo.List(gctx, ownerID, q)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("error listing simulations: %w", err)
	}
	if items == nil {
		items = []*models.Simulation{}
	}

	return &models.SimulationPage{
		Data: items,
		Meta: models.PageMeta{
			Total:      total,
			Page:       q.Page,
			PerPage:    q.PerPage,
			TotalPages: TotalPages(total, q.PerPage),
		},
	}, nil
}

// TotalPages is ceil(total / perPage).
func TotalPages(total int64, perPage int) int64 {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return (total + int64(perPage) - 1) / int64(perPage)
}

// Create stores a new simulation for ownerID. An omitted or empty name is
// replaced with a timestamped placeholder.
func (s *SimulationService) Create(ctx context.Context, ownerID int64, in CreateInput) (*models.Simulation, error) {
	violations := checkStruct(in)
	switch {
	case isAbsent(in.Configuration):
		violations.Add("configuration", "The configuration field is required.")
	case !isStructured(in.Configuration):
		violations.Add("configuration", "The configuration field must be an object.")
	}
	if !isAbsent(in.Results) && !isStructured(in.Results) {
		violations.Add("results", "The results field must be an object.")
	}
	if !violations.Empty() {
		return nil, &common.ValidationError{Violations: violations}
	}

	sim := &models.Simulation{
		UserID:        ownerID,
		Name:          nonEmpty(in.Name),
		Description:   nonEmpty(in.Description),
		Configuration: in.Configuration,
		Notes:         nonEmpty(in.Notes),
	}
	if sim.Name == nil {
		placeholder := "Simulation " + s.now().UTC().Format(time.RFC3339)
		sim.Name = &placeholder
	}
	if !isAbsent(in.Results) {
		sim.Results = in.Results
	}

	created, err := s.repomanager.Simulations(s.db).Create(ctx, sim)
	if err != nil {
		return nil, fmt.Errorf("error creating simulation: %w", err)
	}
	return created, nil
}

// Get returns simulation id if ownerID owns it, common.ErrorNotFound otherwise.
func (s *SimulationService) Get(ctx context.Context, ownerID, id int64) (*models.Simulation, error) {
	return s.repomanager.Simulations(s.db).Get(ctx, ownerID, id)
}

// Update applies a partial update. Only fields present in patch change;
// an empty patch returns the stored record.
func (s *SimulationService) Update(ctx context.Context, ownerID, id int64, patch models.SimulationPatch) (*models.Simulation, error) {
	violations := common.Violations{}
	if patch.Name != nil && patch.Name.Valid && len([]rune(patch.Name.String)) > 255 {
		violations.Add("name", "The name field must not be greater than 255 characters.")
	}
	if patch.Description != nil && patch.Description.Valid && len([]rune(patch.Description.String)) > 1000 {
		violations.Add("description", "The description field must not be greater than 1000 characters.")
	}
	if patch.Configuration != nil && !isStructured(patch.Configuration) {
		violations.Add("configuration", "The configuration field must be an object.")
	}
	if patch.Results != nil && !isAbsent(patch.Results) && !isStructured(patch.Results) {
		violations.Add("results", "The results field must be an object.")
	}
	if !violations.Empty() {
		return nil, &common.ValidationError{Violations: violations}
	}

	return s.repomanager.Simulations(s.db).Update(ctx, ownerID, id, patch)
}

// Delete removes one owned simulation.
func (s *SimulationService) Delete(ctx context.Context, ownerID, id int64) error {
	return s.repomanager.Simulations(s.db).Delete(ctx, ownerID, id)
}

// BulkDelete removes every owned simulation whose id appears in ids, which
// must be a non-empty array as decoded from JSON. Entries that are not
// integers are skipped; ids that are foreign or unknown are ignored.
// The number of deleted rows is returned.
func (s *SimulationService) BulkDelete(ctx context.Context, ownerID int64, ids any) (int64, error) {
	list, ok := ids.([]any)
	if !ok || len(list) == 0 {
		return 0, common.NewValidationError("ids", "The ids field must be a non-empty array.")
	}

	parsed := make([]int64, 0, len(list))
	seen := make(map[int64]struct{}, len(list))
	for _, v := range list {
		id, ok := toInt64(v)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		parsed = append(parsed, id)
	}

	n, err := s.repomanager.Simulations(s.db).DeleteMany(ctx, ownerID, parsed)
	if err != nil {
		return 0, fmt.Errorf("error deleting simulations: %w", err)
	}
	return n, nil
}

// clampInt reads the leading integer of raw the way a lenient query parser
// would: surrounding junk after the digits is ignored ("20abc" is 20) and
// values too large for int clamp to the nearest bound. Input with no leading
// digits yields fallback.
func clampInt(raw string, fallback, lo, hi int) int {
	s := strings.TrimLeftFunc(raw, unicode.IsSpace)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return fallback
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		if !errors.Is(err, strconv.ErrRange) {
			return fallback
		}
		if s[0] == '-' {
			return lo
		}
		return hi
	}
	return max(lo, min(hi, n))
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func isStructured(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// toInt64 accepts JSON numbers without a fractional part and strings holding
// such a number.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || n >= math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		return parseInteger(n.String())
	case string:
		return parseInteger(n)
	case int:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

func parseInteger(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return toInt64(f)
}
