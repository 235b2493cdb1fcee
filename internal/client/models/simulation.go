package models

import (
	"encoding/json"
	"net/url"
	"strconv"
	"time"
)

// Simulation is a stored simulation run.
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

// DisplayName returns the name or "-" when unset.
func (s *Simulation) DisplayName() string {
	if s.Name == nil || *s.Name == "" {
		return "-"
	}
	return *s.Name
}

// NewSimulation is the body of a create call.
type NewSimulation struct {
	Name          *string         `json:"name,omitempty"`
	Description   *string         `json:"description,omitempty"`
	Configuration json.RawMessage `json:"configuration"`
	Results       json.RawMessage `json:"results,omitempty"`
	Notes         *string         `json:"notes,omitempty"`
}

// SimulationChanges is the body of an update call. Only keys present in the
// map are sent; a nil value clears the field on the server.
type SimulationChanges map[string]any

// PageMeta describes the position of a page.
type PageMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int64 `json:"total_pages"`
}

// SimulationPage is one page of list results.
type SimulationPage struct {
	Data []*Simulation `json:"data"`
	Meta PageMeta      `json:"meta"`
}

// ListParams selects a page. Zero values are left to server defaults.
type ListParams struct {
	Page    int
	PerPage int
	SortBy  string
	Order   string
}

// Values encodes p as a query string.
func (p ListParams) Values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(p.PerPage))
	}
	if p.SortBy != "" {
		v.Set("sort_by", p.SortBy)
	}
	if p.Order != "" {
		v.Set("order", p.Order)
	}
	return v
}
