package server

import (
	"errors"
	"net/http"

	"github.com/me/entrena/pkg/model"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nombre   string `json:"nombre"`
	Name     string `json:"name"`
}

type loginResponse struct {
	Message string   `json:"message"`
	UserID  model.ID `json:"user_id"`
	Role    string   `json:"role"`
	Nombre  string   `json:"nombre"`
	Token   string   `json:"token"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !s.config.AllowRegistration && !s.adminBearer(r) {
		respondError(w, http.StatusForbidden, "registration disabled")
		return
	}

	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password required")
		return
	}
	nombre := req.Nombre
	if nombre == "" {
		nombre = req.Name
	}
	if nombre == "" {
		nombre = "Usuario"
	}

	a, err := s.data.createAccount(req.Email, req.Password, nombre)
	if errors.Is(err, errAccountExists) {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("account registered", "user_id", a.id)
	respondJSON(w, http.StatusCreated, model.Created{Message: "user created", ID: idOf(a.id)})
}

// adminBearer reports whether the request carries a valid admin token.
func (s *Server) adminBearer(r *http.Request) bool {
	raw, ok := bearer(r)
	if !ok {
		return false
	}
	claims, err := s.parseToken(raw)
	return err == nil && claims.Role == string(model.RoleAdmin)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password required")
		return
	}

	a, ok := s.data.accountByEmail(req.Email)
	if !ok || !a.checkPassword(req.Password) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	role := s.roleOf(a)
	token, err := s.issueToken(a, role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, loginResponse{
		Message: "ok",
		UserID:  idOf(a.id),
		Role:    role,
		Nombre:  a.nombre,
		Token:   token,
	})
}
