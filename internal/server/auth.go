package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/me/entrena/internal/config"
	"github.com/me/entrena/pkg/model"
)

// Claims is the payload of issued tokens.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	Nombre string `json:"nombre,omitempty"`
	jwt.RegisteredClaims
}

var errTokenRevoked = errors.New("token revoked")

// issueToken signs an HS256 token for the account.
func (s *Server) issueToken(a account, role string) (string, error) {
	now := s.clock.Now()
	jti := uuid.NewString()
	claims := Claims{
		UserID: a.id,
		Role:   role,
		Nombre: a.nombre,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	s.data.recordToken(jti)
	return signed, nil
}

// parseToken verifies signature, expiry and revocation.
func (s *Server) parseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.clock.Now))
	if err != nil {
		return nil, err
	}
	if s.data.isRevoked(claims.ID) {
		return nil, errTokenRevoked
	}
	return claims, nil
}

// bearer extracts the token from an Authorization header.
func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(h, "Bearer "), true
}

// jwtRequired rejects requests without a valid bearer token.
func (s *Server) jwtRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearer(r)
		if !ok {
			respondError(w, http.StatusUnauthorized, "authorization required")
			return
		}
		claims, err := s.parseToken(raw)
		if err != nil {
			s.logger.Debug("token rejected", "error", err, "request_id", RequestIDFromContext(r.Context()))
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithClaims(r.Context(), claims)))
	})
}

// roleOf derives the role reported at login.
func (s *Server) roleOf(a account) string {
	switch {
	case a.email == s.config.AdminEmail:
		return string(model.RoleAdmin)
	case a.entrenadorID != 0:
		return string(model.RoleTrainer)
	case a.clienteID != 0:
		return string(model.RoleClient)
	}
	return string(model.RoleUser)
}

// AddAccount creates an account directly, as a seed file does.
func (s *Server) AddAccount(seed config.SeedAccount) (model.ID, error) {
	nombre := seed.Nombre
	if nombre == "" {
		nombre = "Usuario"
	}
	a, err := s.data.createAccount(seed.Email, seed.Password, nombre)
	if err != nil {
		return "", fmt.Errorf("add account %s: %w", seed.Email, err)
	}
	switch seed.Role {
	case "", string(model.RoleClient):
	case string(model.RoleTrainer):
		if _, _, err := s.data.promote(seed.Email); err != nil {
			return "", fmt.Errorf("promote %s: %w", seed.Email, err)
		}
	default:
		return "", fmt.Errorf("add account %s: unknown role %q", seed.Email, seed.Role)
	}
	return idOf(a.id), nil
}

// RevokeTokens invalidates every token issued so far, as a server-side
// session reset would. It returns the number of tokens revoked.
func (s *Server) RevokeTokens() int {
	n := s.data.revokeAll()
	s.logger.Info("tokens revoked", "count", n)
	return n
}
