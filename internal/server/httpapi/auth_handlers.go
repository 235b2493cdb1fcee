package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/simkeeper/internal/common"
	"github.com/dmitrijs2005/simkeeper/internal/server/models"
	"github.com/dmitrijs2005/simkeeper/internal/server/services"
)

type authResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
	Token   string       `json:"token"`
}

type userResponse struct {
	Message string       `json:"message,omitempty"`
	User    *models.User `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyTumRequest struct {
	TumID    string `json:"tum_id"`
	Password string `json:"password"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decodeJSON(w, r, &in, false); err != nil {
		s.fail(w, r, err, "")
		return
	}

	user, token, err := s.accounts.Register(r.Context(), in)
	if err != nil {
		s.metrics.AuthEvent("register", "failure")
		s.fail(w, r, err, "")
		return
	}

	s.metrics.AuthEvent("register", "success")
	s.logger.Info(r.Context(), "Registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, authResponse{Message: "User registered successfully", User: user, Token: token})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeJSON(w, r, &in, false); err != nil {
		s.fail(w, r, err, "")
		return
	}

	user, token, err := s.accounts.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		s.metrics.AuthEvent("login", "failure")
		s.fail(w, r, err, "")
		return
	}

	s.metrics.AuthEvent("login", "success")
	writeJSON(w, http.StatusOK, authResponse{Message: "Login successful", User: user, Token: token})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	if err := s.accounts.Logout(r.Context(), p); err != nil {
		s.fail(w, r, err, "")
		return
	}
	writeMessage(w, http.StatusOK, "Logout successful")
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	writeJSON(w, http.StatusOK, userResponse{User: p.User})
}

func (s *Server) verifyTum(w http.ResponseWriter, r *http.Request) {
	var in verifyTumRequest
	if err := decodeJSON(w, r, &in, false); err != nil {
		s.fail(w, r, err, "")
		return
	}

	p, _ := PrincipalFromContext(r.Context())
	user, err := s.accounts.VerifyExternalIdentity(r.Context(), p.User.ID, in.TumID, in.Password)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrorUnauthorized):
		s.metrics.AuthEvent("verify_tum", "rejected")
		writeError(w, http.StatusUnauthorized, msgTumFailed)
		return
	case errors.Is(err, common.ErrUpstream):
		s.metrics.AuthEvent("verify_tum", "upstream_error")
		writeError(w, http.StatusInternalServerError, msgTumFailed)
		return
	default:
		s.fail(w, r, err, "")
		return
	}

	s.metrics.AuthEvent("verify_tum", "success")
	writeJSON(w, http.StatusOK, userResponse{Message: "TUM verification successful", User: user})
}
