package model

import "time"

// LoginRequest is the body of POST /api/usuarios/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	UserID ID     `json:"user_id"`
	Role   string `json:"role"`
	Nombre string `json:"nombre,omitempty"`
}

// Session converts the response into the session it commits.
func (r LoginResponse) Session() Session {
	return Session{UserID: string(r.UserID), Role: r.Role, DisplayName: r.Nombre, Token: r.Token}
}

// RegisterRequest is the body of POST /api/usuarios/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nombre   string `json:"nombre"`
}

// PromoteRequest is the body of POST /api/dev/promote_entrenador.
type PromoteRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

// PromoteResponse acknowledges a promotion.
type PromoteResponse struct {
	Message      string `json:"message"`
	EntrenadorID ID     `json:"entrenador_id,omitempty"`
}

// Medicion is a body measurement recorded by a client.
type Medicion struct {
	ID      ID       `json:"id,omitempty"`
	Peso    float64  `json:"peso"`
	Altura  *float64 `json:"altura,omitempty"`
	Cintura *float64 `json:"cintura,omitempty"`
	Fecha   string   `json:"fecha,omitempty"` // YYYY-MM-DD
}

// FechaFor formats t the way the API expects measurement dates.
func FechaFor(t time.Time) string {
	return t.Format(time.DateOnly)
}

// Rutina is a training routine published by a trainer.
type Rutina struct {
	ID          ID       `json:"id,omitempty"`
	Nombre      string   `json:"nombre"`
	Descripcion string   `json:"descripcion,omitempty"`
	Nivel       string   `json:"nivel,omitempty"`
	Ejercicios  []string `json:"ejercicios,omitempty"`
	EsPublica   bool     `json:"es_publica,omitempty"`
	CreadoEn    string   `json:"creado_en,omitempty"`
}

// RutinaEnvelope is the body returned when a routine is created.
type RutinaEnvelope struct {
	Rutina *Rutina `json:"rutina"`
}

// Created is the acknowledgement returned by create endpoints.
type Created struct {
	Message string `json:"message,omitempty"`
	ID      ID     `json:"id,omitempty"`
}
