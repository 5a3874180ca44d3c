package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/me/entrena/internal/config"
	"github.com/me/entrena/internal/gateway"
	"github.com/me/entrena/internal/logging"
	"github.com/me/entrena/internal/router"
	"github.com/me/entrena/internal/server"
	"github.com/me/entrena/internal/session"
	"github.com/me/entrena/pkg/model"
)

type silentNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *silentNotifier) Show(msg string, _ time.Duration) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return ""
}

type harness struct {
	api      *Client
	sessions *session.Store
	router   *router.Router
	backend  *server.Server
	notifier *silentNotifier
}

// newHarness wires the client stack against an in-memory backend.
func newHarness(t *testing.T, policy gateway.Policy) *harness {
	t.Helper()
	logger := logging.Discard()

	cfg := config.DefaultServerConfig()
	cfg.PromoteSecret = "promote-me"
	backend := server.New(cfg, logger)
	ts := httptest.NewServer(backend.Handler())
	t.Cleanup(ts.Close)

	sessions := session.NewStore(session.NewMemoryBackend(), logger)
	rt := router.New(router.DefaultGuard(), sessions, logger)
	notifier := &silentNotifier{}
	gw := gateway.New(ts.URL, sessions, logger,
		gateway.WithPolicy(policy),
		gateway.WithNavigator(rt),
		gateway.WithNotifier(notifier),
	)
	rt.Observe(gw.Navigated)

	return &harness{
		api:      New(gw, sessions, rt, logger),
		sessions: sessions,
		router:   rt,
		backend:  backend,
		notifier: notifier,
	}
}

func TestLogin_CommitsSession(t *testing.T) {
	h := newHarness(t, gateway.PolicyNotifyOnly)
	_, err := h.backend.AddAccount(config.SeedAccount{Email: "ana@test.local", Password: "pw", Nombre: "Ana"})
	require.NoError(t, err)
	ctx := context.Background()

	resp, err := h.api.Login(ctx, "ana@test.local", "pw")
	require.NoError(t, err)
	assert.Equal(t, "cliente", resp.Role)
	assert.NotEmpty(t, resp.Token)

	s, err := h.api.Whoami(ctx)
	require.NoError(t, err)
	assert.Equal(t, resp.UserID.String(), s.UserID)
	assert.Equal(t, "cliente", s.Role)
	assert.Equal(t, "Ana", s.DisplayName)

	token, err := h.sessions.AuthToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, resp.Token, token)

	d, err := h.router.Navigate(ctx, "/cliente/mediciones")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestLogin_Failure_LeavesSessionAndSkipsPolicy(t *testing.T) {
	h := newHarness(t, gateway.PolicyForceLogout)
	ctx := context.Background()
	require.NoError(t, h.sessions.SetSession(ctx, model.Session{UserID: "9", Role: "cliente", Token: "old"}))

	_, err := h.api.Login(ctx, "ana@test.local", "wrong")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "invalid credentials", se.Message())
	assert.NotErrorIs(t, err, ErrNetwork)

	token, err := h.sessions.AuthToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "old", token, "a failed login must not touch the session")
	assert.Empty(t, h.notifier.msgs)
}

// newLoginStub serves canned login bodies keyed by email.
func newLoginStub(t *testing.T, bodies map[string]string) (*Client, *session.Store) {
	t.Helper()
	logger := logging.Discard()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req model.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(bodies[req.Email]))
	}))
	t.Cleanup(ts.Close)

	sessions := session.NewStore(session.NewMemoryBackend(), logger)
	gw := gateway.New(ts.URL, sessions, logger, gateway.WithNotifier(&silentNotifier{}))
	return New(gw, sessions, nil, logger), sessions
}

func TestLogin_ReplacesPreviousIdentity(t *testing.T) {
	api, sessions := newLoginStub(t, map[string]string{
		"ana":   `{"message":"ok","user_id":1,"role":"cliente","nombre":"Ana","token":"tA"}`,
		"bruno": `{"message":"ok","user_id":2,"role":"entrenador","nombre":null,"token":"tB"}`,
	})
	ctx := context.Background()

	_, err := api.Login(ctx, "ana", "pw")
	require.NoError(t, err)
	_, err = api.Login(ctx, "bruno", "pw")
	require.NoError(t, err)

	s, err := sessions.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2", s.UserID)
	assert.Equal(t, "entrenador", s.Role)
	assert.Empty(t, s.DisplayName, "display name of the previous user must not survive")

	token, err := sessions.AuthToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tB", token)
}

func TestLogin_RejectsIncompleteResponse(t *testing.T) {
	api, sessions := newLoginStub(t, map[string]string{
		"ana":     `{"user_id":1,"role":"cliente","nombre":"Ana","token":"tA"}`,
		"norole":  `{"user_id":2,"nombre":"Bruno","token":"tB"}`,
		"noid":    `{"role":"cliente","token":"tC"}`,
		"notoken": `{"user_id":3,"role":"cliente"}`,
	})
	ctx := context.Background()

	_, err := api.Login(ctx, "ana", "pw")
	require.NoError(t, err)

	_, err = api.Login(ctx, "norole", "pw")
	assert.ErrorIs(t, err, ErrIncompleteLogin)
	_, err = api.Login(ctx, "noid", "pw")
	assert.ErrorIs(t, err, ErrIncompleteLogin)
	_, err = api.Login(ctx, "notoken", "pw")
	assert.ErrorIs(t, err, ErrNoToken)

	s, err := sessions.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Session{UserID: "1", Role: "cliente", DisplayName: "Ana"}, s)
}

func TestRegisterThenLogin(t *testing.T) {
	h := newHarness(t, gateway.PolicyNotifyOnly)
	ctx := context.Background()

	created, err := h.api.Register(ctx, model.RegisterRequest{Email: "beto@test.local", Password: "pw", Nombre: "Beto"})
	require.NoError(t, err)
	assert.Equal(t, "user created", created.Message)
	assert.NotEmpty(t, created.ID)

	_, err = h.api.Register(ctx, model.RegisterRequest{Email: "beto@test.local", Password: "pw"})
	assert.Equal(t, http.StatusConflict, StatusCode(err))

	_, err = h.api.Login(ctx, "beto@test.local", "pw")
	require.NoError(t, err)
}

func TestTrainerFlow(t *testing.T) {
	h := newHarness(t, gateway.PolicyNotifyOnly)
	ctx := context.Background()
	_, err := h.backend.AddAccount(config.SeedAccount{Email: "coach@test.local", Password: "pw"})
	require.NoError(t, err)

	promoted, err := h.api.Promote(ctx, model.PromoteRequest{Email: "coach@test.local", Secret: "promote-me"})
	require.NoError(t, err)
	assert.Equal(t, "entrenador creado", promoted.Message)

	login, err := h.api.Login(ctx, "coach@test.local", "pw")
	require.NoError(t, err)
	require.Equal(t, "entrenador", login.Role)

	r, err := h.api.CreateRutina(ctx, model.Rutina{Nombre: "E2E Rutina", Ejercicios: []string{"A", "B"}})
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.NotEmpty(t, r.ID)

	list, err := h.api.ListRutinas(ctx, login.UserID.String())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "E2E Rutina", list[0].Nombre)

	require.NoError(t, h.api.DeleteRutina(ctx, r.ID.String()))
	err = h.api.DeleteRutina(ctx, r.ID.String())
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
}

func TestCreateMedicion(t *testing.T) {
	h := newHarness(t, gateway.PolicyNotifyOnly)
	ctx := context.Background()
	_, err := h.backend.AddAccount(config.SeedAccount{Email: "ana@test.local", Password: "pw"})
	require.NoError(t, err)
	_, err = h.api.Login(ctx, "ana@test.local", "pw")
	require.NoError(t, err)

	created, err := h.api.CreateMedicion(ctx, model.Medicion{Peso: 70, Fecha: model.FechaFor(time.Now())})
	require.NoError(t, err)
	assert.Equal(t, "medicion creada", created.Message)
}

func TestUnauthorized_NotifyOnlyKeepsSession(t *testing.T) {
	h := newHarness(t, gateway.PolicyNotifyOnly)
	ctx := context.Background()
	_, err := h.backend.AddAccount(config.SeedAccount{Email: "ana@test.local", Password: "pw"})
	require.NoError(t, err)
	_, err = h.api.Login(ctx, "ana@test.local", "pw")
	require.NoError(t, err)
	h.backend.RevokeTokens()

	_, err = h.api.CreateMedicion(ctx, model.Medicion{Peso: 70})
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
	assert.Equal(t, []string{gateway.MessageUnauthorized}, h.notifier.msgs)

	complete, err := h.sessions.Complete(ctx)
	require.NoError(t, err)
	assert.True(t, complete)
}

func TestUnauthorized_ForceLogoutClearsSession(t *testing.T) {
	h := newHarness(t, gateway.PolicyForceLogout)
	ctx := context.Background()
	_, err := h.backend.AddAccount(config.SeedAccount{Email: "ana@test.local", Password: "pw"})
	require.NoError(t, err)
	_, err = h.api.Login(ctx, "ana@test.local", "pw")
	require.NoError(t, err)
	h.backend.RevokeTokens()

	_, err = h.api.CreateMedicion(ctx, model.Medicion{Peso: 70})
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))

	token, err := h.sessions.AuthToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestNetworkError(t *testing.T) {
	logger := logging.Discard()
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	sessions := session.NewStore(session.NewMemoryBackend(), logger)
	gw := gateway.New(url, sessions, logger, gateway.WithNotifier(&silentNotifier{}))
	c := New(gw, sessions, nil, logger)

	_, err := c.Login(context.Background(), "a", "b")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, 0, StatusCode(err))
	assert.Error(t, gw.LastNetworkError())
}

func TestLogout(t *testing.T) {
	h := newHarness(t, gateway.PolicyNotifyOnly)
	ctx := context.Background()
	_, err := h.backend.AddAccount(config.SeedAccount{Email: "ana@test.local", Password: "pw"})
	require.NoError(t, err)
	_, err = h.api.Login(ctx, "ana@test.local", "pw")
	require.NoError(t, err)
	_, err = h.router.Navigate(ctx, "/cliente")
	require.NoError(t, err)

	require.NoError(t, h.api.Logout(ctx))
	assert.Equal(t, "/", h.router.Current())
	s, err := h.api.Whoami(ctx)
	require.NoError(t, err)
	assert.True(t, s.Empty())

	// Idempotent.
	require.NoError(t, h.api.Logout(ctx))
}

func TestStatusError(t *testing.T) {
	err := &StatusError{Status: 500, Body: []byte(`{"error":"db error","detail":"flush failed"}`)}
	assert.Equal(t, "status 500: db error: flush failed", err.Error())
	assert.False(t, errors.Is(err, ErrNetwork))

	plain := &StatusError{Status: 502, Body: []byte("Bad Gateway\n")}
	assert.Equal(t, "status 502: Bad Gateway", plain.Error())

	cause := errors.New("connection refused")
	netErr := &StatusError{Err: cause}
	assert.ErrorIs(t, netErr, ErrNetwork)
	assert.ErrorIs(t, netErr, cause)
	assert.Equal(t, "network error: connection refused", netErr.Error())

	assert.Equal(t, -1, StatusCode(errors.New("other")))
}
