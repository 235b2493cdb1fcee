package httpapi

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/simkeeper/internal/common"
	"github.com/dmitrijs2005/simkeeper/internal/server/models"
	"github.com/dmitrijs2005/simkeeper/internal/server/services"
)

type simulationResponse struct {
	Message    string             `json:"message"`
	Simulation *models.Simulation `json:"simulation"`
}

type bulkDeleteRequest struct {
	IDs any `json:"ids"`
}

func (s *Server) listSimulations(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	qs := r.URL.Query()
	q := services.NewListQuery(qs.Get("page"), qs.Get("per_page"), qs.Get("sort_by"), qs.Get("order"))

	page, err := s.simulations.List(r.Context(), p.User.ID, q)
	if err != nil {
		s.fail(w, r, err, msgSimulationNotFound)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) createSimulation(w http.ResponseWriter, r *http.Request) {
	var in services.CreateInput
	if err := decodeJSON(w, r, &in, false); err != nil {
		s.fail(w, r, err, "")
		return
	}

	p, _ := PrincipalFromContext(r.Context())
	sim, err := s.simulations.Create(r.Context(), p.User.ID, in)
	if err != nil {
		s.fail(w, r, err, msgSimulationNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, simulationResponse{Message: "Simulation saved successfully", Simulation: sim})
}

func (s *Server) getSimulation(w http.ResponseWriter, r *http.Request) {
	id, ok := simulationID(w, r)
	if !ok {
		return
	}

	p, _ := PrincipalFromContext(r.Context())
	sim, err := s.simulations.Get(r.Context(), p.User.ID, id)
	if err != nil {
		s.fail(w, r, err, msgSimulationNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sim)
}

func (s *Server) updateSimulation(w http.ResponseWriter, r *http.Request) {
	id, ok := simulationID(w, r)
	if !ok {
		return
	}

	var raw map[string]json.RawMessage
	if err := decodeJSON(w, r, &raw, false); err != nil {
		s.fail(w, r, err, "")
		return
	}
	patch, err := patchFromFields(raw)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}

	p, _ := PrincipalFromContext(r.Context())
	sim, err := s.simulations.Update(r.Context(), p.User.ID, id, patch)
	if err != nil {
		s.fail(w, r, err, msgSimulationNotFound)
		return
	}
	writeJSON(w, http.StatusOK, simulationResponse{Message: "Simulation updated successfully", Simulation: sim})
}

func (s *Server) deleteSimulation(w http.ResponseWriter, r *http.Request) {
	id, ok := simulationID(w, r)
	if !ok {
		return
	}

	p, _ := PrincipalFromContext(r.Context())
	if err := s.simulations.Delete(r.Context(), p.User.ID, id); err != nil {
		s.fail(w, r, err, msgSimulationNotFound)
		return
	}
	writeMessage(w, http.StatusOK, "Simulation deleted successfully")
}

func (s *Server) bulkDeleteSimulations(w http.ResponseWriter, r *http.Request) {
	var in bulkDeleteRequest
	if err := decodeJSON(w, r, &in, true); err != nil {
		s.fail(w, r, err, "")
		return
	}

	p, _ := PrincipalFromContext(r.Context())
	n, err := s.simulations.BulkDelete(r.Context(), p.User.ID, in.IDs)
	if err != nil {
		s.fail(w, r, err, msgSimulationNotFound)
		return
	}

	s.logger.Debug(r.Context(), "bulk delete", "user_id", p.User.ID, "deleted", n)
	writeMessage(w, http.StatusOK, "Simulations deleted successfully")
}

// simulationID parses the {id} path segment, answering 400 when it is not
// a positive integer.
func simulationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, msgInvalidID)
		return 0, false
	}
	return id, true
}

// patchFromFields keeps absent and null apart: a missing key leaves the
// column alone, null clears it.
func patchFromFields(raw map[string]json.RawMessage) (models.SimulationPatch, error) {
	var patch models.SimulationPatch
	violations := common.Violations{}

	text := func(field string) *sql.NullString {
		v, ok := raw[field]
		if !ok {
			return nil
		}
		if string(v) == "null" {
			return &sql.NullString{}
		}
		var str string
		if err := json.Unmarshal(v, &str); err != nil {
			violations.Add(field, "The "+field+" field must be a string.")
			return nil
		}
		return &sql.NullString{String: str, Valid: true}
	}

	patch.Name = text("name")
	patch.Description = text("description")
	patch.Notes = text("notes")
	if v, ok := raw["configuration"]; ok {
		patch.Configuration = v
	}
	if v, ok := raw["results"]; ok {
		patch.Results = v
	}

	if !violations.Empty() {
		return models.SimulationPatch{}, &common.ValidationError{Violations: violations}
	}
	return patch, nil
}
