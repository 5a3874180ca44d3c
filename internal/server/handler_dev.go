package server

import (
	"errors"
	"net/http"

	"github.com/me/entrena/pkg/model"
)

// handlePromote gives an account a trainer profile. It is disabled unless a
// promote secret is configured.
func (s *Server) handlePromote(w http.ResponseWriter, r *http.Request) {
	if s.config.PromoteSecret == "" {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	var req model.PromoteRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Secret == "" || req.Secret != s.config.PromoteSecret {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if req.Email == "" {
		respondError(w, http.StatusBadRequest, "email required")
		return
	}

	id, created, err := s.data.promote(req.Email)
	if errors.Is(err, errNoAccount) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !created {
		respondJSON(w, http.StatusOK, model.PromoteResponse{Message: "already entrenador", EntrenadorID: idOf(id)})
		return
	}
	s.logger.Info("account promoted", "email", req.Email, "entrenador_id", id)
	respondJSON(w, http.StatusCreated, model.PromoteResponse{Message: "entrenador creado", EntrenadorID: idOf(id)})
}
