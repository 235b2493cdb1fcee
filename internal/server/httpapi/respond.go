package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/simkeeper/internal/common"
)

// Response messages.
const (
	msgServerError        = "Server error"
	msgInvalidInput       = "Invalid input"
	msgInvalidID          = "Invalid id"
	msgUnauthorized       = "Unauthorized"
	msgInvalidCredentials = "Invalid credentials"
	msgTooManyRequests    = "Too many requests"
	msgBodyTooLarge       = "Request entity too large"
	msgSimulationNotFound = "Simulation not found"
	msgEmailTaken         = "Email already in use"
	msgTumIDTaken         = "TUM ID already in use"
	msgTumFailed          = "TUM verification failed"
)

var errBodyTooLarge = errors.New("request body too large")

type errorBody struct {
	Error  string            `json:"error"`
	Errors common.Violations `json:"errors,omitempty"`
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageBody{Message: msg})
}

// fail maps a service error onto a status and body. notFound is the message
// used for common.ErrorNotFound. Unexpected errors are logged and reported
// generically.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var (
		validation *common.ValidationError
		conflict   *common.ConflictError
	)

	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: msgInvalidInput, Errors: validation.Violations})
	case errors.As(err, &conflict):
		msg, field := msgEmailTaken, "email"
		if conflict.Field == "tum_id" {
			msg, field = msgTumIDTaken, "tum_id"
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error:  msg,
			Errors: common.Violations{field: "The " + field + " has already been taken."},
		})
	case errors.Is(err, common.ErrorInvalidCredentials):
		writeError(w, http.StatusUnauthorized, msgInvalidCredentials)
	case errors.Is(err, common.ErrorUnauthorized):
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, errBodyTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
	default:
		s.logger.Error(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, msgServerError)
	}
}

// decodeJSON reads a bounded JSON body into dst. An empty body leaves dst
// untouched. Malformed input yields a ValidationError without field detail.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, useNumber bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if useNumber {
		dec.UseNumber()
	}

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.As(err, &maxErr):
			return errBodyTooLarge
		default:
			return &common.ValidationError{}
		}
	}
	return nil
}
