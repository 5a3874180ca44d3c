package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/me/entrena/internal/gateway"
	"github.com/me/entrena/internal/router"
	"github.com/me/entrena/pkg/model"
)

// Gateway is the transport the endpoints go through. *gateway.Client implements it.
type Gateway interface {
	Get(ctx context.Context, path string, opts ...gateway.RequestOption) (*gateway.Response, error)
	Post(ctx context.Context, path string, body any, opts ...gateway.RequestOption) (*gateway.Response, error)
	Del(ctx context.Context, path string, opts ...gateway.RequestOption) (*gateway.Response, error)
}

// Sessions is the part of the session store the endpoints use.
type Sessions interface {
	SetSession(ctx context.Context, s model.Session) error
	ClearSession(ctx context.Context) error
	Session(ctx context.Context) (model.Session, error)
}

// Navigator moves to the landing route after logout. *router.Router implements it.
type Navigator interface {
	Landing() string
	Navigate(ctx context.Context, target string) (router.Decision, error)
}

// Client exposes the EntrenaPro endpoints as typed calls.
type Client struct {
	gw       Gateway
	sessions Sessions
	nav      Navigator
	logger   *slog.Logger
}

// New creates an API client. nav may be nil when there is no navigation.
func New(gw Gateway, sessions Sessions, nav Navigator, logger *slog.Logger) *Client {
	return &Client{
		gw:       gw,
		sessions: sessions,
		nav:      nav,
		logger:   logger.With("component", "api"),
	}
}

// Login authenticates and, on 200, commits the returned identity as the session.
func (c *Client) Login(ctx context.Context, email, password string) (model.LoginResponse, error) {
	var out model.LoginResponse
	resp, err := c.gw.Post(ctx, "/api/usuarios/login", model.LoginRequest{Email: email, Password: password}, gateway.SkipAuth())
	if err != nil {
		return out, fmt.Errorf("login: %w", err)
	}
	if err := check(resp); err != nil {
		return out, fmt.Errorf("login: %w", err)
	}
	if err := resp.JSON(&out); err != nil {
		return out, fmt.Errorf("login: %w", err)
	}
	if out.Token == "" {
		return out, ErrNoToken
	}
	if out.UserID == "" || out.Role == "" {
		return out, ErrIncompleteLogin
	}
	// Replace, not merge: no field of the previous identity may survive.
	if err := c.sessions.ClearSession(ctx); err != nil {
		return out, fmt.Errorf("save session: %w", err)
	}
	if err := c.sessions.SetSession(ctx, out.Session()); err != nil {
		return out, fmt.Errorf("save session: %w", err)
	}
	c.logger.Info("logged in", "user_id", out.UserID, "role", out.Role)
	return out, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, req model.RegisterRequest) (model.Created, error) {
	var out model.Created
	err := c.post(ctx, "register", "/api/usuarios/register", req, &out, gateway.SkipAuth())
	return out, err
}

// Promote grants the trainer role through the development endpoint.
func (c *Client) Promote(ctx context.Context, req model.PromoteRequest) (model.PromoteResponse, error) {
	var out model.PromoteResponse
	err := c.post(ctx, "promote", "/api/dev/promote_entrenador", req, &out, gateway.SkipAuth())
	return out, err
}

// CreateMedicion records a body measurement for the logged-in client.
func (c *Client) CreateMedicion(ctx context.Context, m model.Medicion) (model.Created, error) {
	var out model.Created
	err := c.post(ctx, "create medicion", "/api/mediciones", m, &out)
	return out, err
}

// CreateRutina publishes a routine as the logged-in trainer and returns it as stored.
func (c *Client) CreateRutina(ctx context.Context, r model.Rutina) (*model.Rutina, error) {
	var out model.RutinaEnvelope
	if err := c.post(ctx, "create rutina", "/api/rutinas", r, &out); err != nil {
		return nil, err
	}
	return out.Rutina, nil
}

// ListRutinas returns the routines of a trainer.
func (c *Client) ListRutinas(ctx context.Context, userID string) ([]model.Rutina, error) {
	resp, err := c.gw.Get(ctx, "/api/rutinas/"+url.PathEscape(userID))
	if err != nil {
		return nil, fmt.Errorf("list rutinas: %w", err)
	}
	if err := check(resp); err != nil {
		return nil, fmt.Errorf("list rutinas: %w", err)
	}
	var out []model.Rutina
	if err := resp.JSON(&out); err != nil {
		return nil, fmt.Errorf("list rutinas: %w", err)
	}
	return out, nil
}

// DeleteRutina removes a routine.
func (c *Client) DeleteRutina(ctx context.Context, id string) error {
	resp, err := c.gw.Del(ctx, "/api/rutinas/"+url.PathEscape(id))
	if err != nil {
		return fmt.Errorf("delete rutina: %w", err)
	}
	if err := check(resp); err != nil {
		return fmt.Errorf("delete rutina %s: %w", id, err)
	}
	return nil
}

// Logout clears the session and returns to the landing route.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.sessions.ClearSession(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	c.logger.Info("logged out")
	if c.nav == nil {
		return nil
	}
	if _, err := c.nav.Navigate(ctx, c.nav.Landing()); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Whoami returns the stored session.
func (c *Client) Whoami(ctx context.Context) (model.Session, error) {
	return c.sessions.Session(ctx)
}

func (c *Client) post(ctx context.Context, op, path string, body, out any, opts ...gateway.RequestOption) error {
	resp, err := c.gw.Post(ctx, path, body, opts...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := check(resp); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(resp.Body) == 0 {
		return nil
	}
	if err := resp.JSON(out); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
