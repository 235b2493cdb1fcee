package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Simulation is a saved unit of work owned by exactly one user.
// Configuration and Results are opaque JSON documents kept verbatim.
type Simulation struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	Name          *string         `json:"name"`
	Description   *string         `json:"description"`
	Configuration json.RawMessage `json:"configuration"`
	Results       json.RawMessage `json:"results"`
	Notes         *string         `json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// SimulationPatch carries a partial update.
//
// A nil *sql.NullString means "field absent"; a non-nil one with Valid=false
// clears the column. For the JSON columns a nil RawMessage means absent and
// the literal null clears Results.
type SimulationPatch struct {
	Name          *sql.NullString
	Description   *sql.NullString
	Notes         *sql.NullString
	Configuration json.RawMessage
	Results       json.RawMessage
}

// Empty reports whether the patch changes nothing.
func (p SimulationPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Notes == nil &&
		p.Configuration == nil && p.Results == nil
}

// Sort columns accepted by list queries.
const (
	SortCreatedAt = "created_at"
	SortUpdatedAt = "updated_at"
	SortName      = "name"
)

// Sort directions.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// ListQuery is a normalised, owner-independent paging request.
type ListQuery struct {
	Page    int
	PerPage int
	SortBy  string
	Order   string
}

// Offset is the number of rows skipped before the requested page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PerPage
}

// PageMeta describes where a page sits in the full result set.
type PageMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int64 `json:"total_pages"`
}

// SimulationPage is one page of a user's simulations.
type SimulationPage struct {
	Data []*Simulation `json:"data"`
	Meta PageMeta      `json:"meta"`
}
