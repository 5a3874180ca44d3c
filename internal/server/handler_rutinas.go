package server

import (
	"net/http"
	"strconv"

	"github.com/me/entrena/pkg/model"
)

type createRutinaRequest struct {
	model.Rutina
	EntrenadorID *model.ID `json:"entrenador_id,omitempty"`
}

type rutinaCreated struct {
	Message string       `json:"message"`
	Rutina  model.Rutina `json:"rutina"`
}

func (s *Server) handleCreateRutina(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	var req createRutinaRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.EntrenadorID != nil && *req.EntrenadorID != "" {
		n, err := strconv.ParseInt(req.EntrenadorID.String(), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid entrenador_id")
			return
		}
		if n != claims.UserID {
			respondError(w, http.StatusForbidden, "forbidden: cannot create rutina for another entrenador")
			return
		}
	}

	a, ok := s.data.accountByID(claims.UserID)
	if !ok || a.entrenadorID == 0 {
		respondError(w, http.StatusNotFound, "entrenador not found or not authenticated as entrenador")
		return
	}
	if req.Nombre == "" {
		respondError(w, http.StatusBadRequest, "nombre required")
		return
	}

	created := s.data.addRutina(a.entrenadorID, req.Rutina, s.clock.Now())
	respondJSON(w, http.StatusCreated, rutinaCreated{Message: "rutina creada", Rutina: created})
}

func (s *Server) handleListRutinas(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	if userID != ClaimsFromContext(r.Context()).UserID {
		respondError(w, http.StatusForbidden, "forbidden: cannot view rutinas of another entrenador")
		return
	}
	a, ok := s.data.accountByID(userID)
	if !ok || a.entrenadorID == 0 {
		respondError(w, http.StatusNotFound, "entrenador not found")
		return
	}
	respondJSON(w, http.StatusOK, s.data.rutinasFor(a.entrenadorID))
}

func (s *Server) handleListPublicRutinas(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.data.publicRutinas())
}

func (s *Server) handleDeleteRutina(w http.ResponseWriter, r *http.Request) {
	rutinaID, ok := pathID(w, r, "rutinaID")
	if !ok {
		return
	}
	rt, ok := s.data.rutina(rutinaID)
	if !ok {
		respondError(w, http.StatusNotFound, "rutina not found")
		return
	}
	owner, ok := s.data.entrenadorOwner(rt.entrenadorID)
	if !ok || owner != ClaimsFromContext(r.Context()).UserID {
		respondError(w, http.StatusForbidden, "forbidden: cannot delete this rutina")
		return
	}
	s.data.deleteRutina(rutinaID)
	respondJSON(w, http.StatusOK, message{Message: "rutina eliminada"})
}
