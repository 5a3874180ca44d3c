package server

import (
	"net/http"

	"github.com/me/entrena/pkg/model"
)

func (s *Server) handleCreateMedicion(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	var req model.Medicion
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	a, ok := s.data.accountByID(claims.UserID)
	if !ok || a.clienteID == 0 {
		respondError(w, http.StatusNotFound, "cliente not found")
		return
	}

	now := s.clock.Now()
	fecha := req.Fecha
	if fecha == "" {
		fecha = model.FechaFor(now)
	}
	id := s.data.addMedicion(medicion{
		clienteID: a.clienteID,
		peso:      req.Peso,
		altura:    req.Altura,
		cintura:   req.Cintura,
		fecha:     fecha,
		creadoEn:  now,
	})
	respondJSON(w, http.StatusCreated, model.Created{Message: "medicion creada", ID: idOf(id)})
}

func (s *Server) handleListMediciones(w http.ResponseWriter, r *http.Request) {
	clienteID, ok := pathID(w, r, "clienteID")
	if !ok {
		return
	}
	owner, ok := s.data.clienteOwner(clienteID)
	if !ok {
		respondError(w, http.StatusNotFound, "cliente not found")
		return
	}
	if owner != ClaimsFromContext(r.Context()).UserID {
		respondError(w, http.StatusForbidden, "forbidden: cannot view mediciones of another cliente")
		return
	}
	respondJSON(w, http.StatusOK, s.data.medicionesFor(clienteID))
}
