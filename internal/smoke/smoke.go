// Package smoke runs an end-to-end pass over the EntrenaPro API and records
// every exchange in a report.
package smoke

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/jonboulle/clockwork"

	"github.com/me/entrena/internal/gateway"
	"github.com/me/entrena/pkg/model"
)

// ErrLoginFailed is returned when neither login nor register-then-login succeeds.
var ErrLoginFailed = errors.New("login failed, aborting")

// Step names as they appear in the report.
const (
	StepLogin              = "login"
	StepRegister           = "register_admin_attempt"
	StepLoginAfterRegister = "login-after-register"
	StepPromote            = "promote"
	StepCreateMedicion     = "create_medicion"
	StepCreateRutina       = "create_rutina"
	StepListRutinas        = "list_rutinas"
	StepDeleteRutina       = "delete_rutina"
)

// Gateway is the transport the runner uses. *gateway.Client implements it.
type Gateway interface {
	Get(ctx context.Context, path string, opts ...gateway.RequestOption) (*gateway.Response, error)
	Post(ctx context.Context, path string, body any, opts ...gateway.RequestOption) (*gateway.Response, error)
	Del(ctx context.Context, path string, opts ...gateway.RequestOption) (*gateway.Response, error)
}

// Sessions receives the identity returned by login.
type Sessions interface {
	SetSession(ctx context.Context, s model.Session) error
	ClearSession(ctx context.Context) error
}

// Options selects the account the run uses.
type Options struct {
	Email    string `env:"ADMIN_EMAIL" default:"admin@test.local"`
	Password string `env:"ADMIN_PASS" default:"admin123"`
	// Nombre is the display name used if the account has to be registered.
	Nombre string `env:"E2E_NOMBRE" default:"AutoAdmin"`
	// PromoteSecret, when set, promotes the account to trainer before the
	// routine steps.
	PromoteSecret string `env:"DEV_PROMOTE_SECRET"`
}

// DefaultOptions returns the account the backend seeds for development.
func DefaultOptions() Options {
	return Options{Email: "admin@test.local", Password: "admin123", Nombre: "AutoAdmin"}
}

// Step is one recorded exchange.
type Step struct {
	Step   string `json:"step"`
	Status int    `json:"status"`
	Body   any    `json:"body"`
}

// Report is the outcome of a run.
type Report struct {
	Steps []Step `json:"steps"`
	// Token describes the session token without revealing it.
	Token string `json:"token,omitempty"`
}

// Write prints the report as indented JSON.
func (r *Report) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Runner drives the end-to-end flow.
type Runner struct {
	gw       Gateway
	sessions Sessions
	clock    clockwork.Clock
	logger   *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock sets the clock used for measurement dates.
func WithClock(c clockwork.Clock) Option { return func(r *Runner) { r.clock = c } }

// New creates a runner. Login commits the session into sessions so later steps
// are sent with the bearer token.
func New(gw Gateway, sessions Sessions, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		gw:       gw,
		sessions: sessions,
		clock:    clockwork.NewRealClock(),
		logger:   logger.With("component", "smoke"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Redact describes a token by its length only.
func Redact(token string) string {
	if token == "" {
		return ""
	}
	return fmt.Sprintf("[REDACTED length:%d]", len(token))
}

// Run executes the flow. The report is returned even when err is non-nil.
func (r *Runner) Run(ctx context.Context, opts Options) (*Report, error) {
	rep := &Report{Steps: []Step{}}
	creds := model.LoginRequest{Email: opts.Email, Password: opts.Password}

	login, ok, err := r.login(ctx, rep, StepLogin, creds)
	if err != nil {
		return rep, err
	}
	if !ok {
		reg, err := r.gw.Post(ctx, "/api/usuarios/register",
			model.RegisterRequest{Email: opts.Email, Password: opts.Password, Nombre: opts.Nombre}, gateway.SkipAuth())
		if err != nil {
			return rep, err
		}
		r.record(rep, StepRegister, reg)
		if reg.OK() {
			login, ok, err = r.login(ctx, rep, StepLoginAfterRegister, creds)
			if err != nil {
				return rep, err
			}
		}
	}
	if !ok {
		r.logger.Error("login failed", "email", opts.Email)
		return rep, ErrLoginFailed
	}
	rep.Token = Redact(login.Token)

	if opts.PromoteSecret != "" {
		resp, err := r.gw.Post(ctx, "/api/dev/promote_entrenador",
			model.PromoteRequest{Email: opts.Email, Secret: opts.PromoteSecret}, gateway.SkipAuth())
		if err != nil {
			return rep, err
		}
		r.record(rep, StepPromote, resp)
	}

	resp, err := r.gw.Post(ctx, "/api/mediciones", model.Medicion{Peso: 70, Fecha: model.FechaFor(r.clock.Now())})
	if err != nil {
		return rep, err
	}
	r.record(rep, StepCreateMedicion, resp)

	resp, err = r.gw.Post(ctx, "/api/rutinas", model.Rutina{Nombre: "E2E Rutina", Ejercicios: []string{"A", "B"}})
	if err != nil {
		return rep, err
	}
	r.record(rep, StepCreateRutina, resp)

	var rutinaID model.ID
	if resp.OK() {
		var env model.RutinaEnvelope
		if err := resp.JSON(&env); err == nil && env.Rutina != nil {
			rutinaID = env.Rutina.ID
		}
	}

	resp, err = r.gw.Get(ctx, "/api/rutinas/"+url.PathEscape(login.UserID.String()))
	if err != nil {
		return rep, err
	}
	r.record(rep, StepListRutinas, resp)

	if rutinaID != "" {
		resp, err = r.gw.Del(ctx, "/api/rutinas/"+url.PathEscape(rutinaID.String()))
		if err != nil {
			return rep, err
		}
		r.record(rep, StepDeleteRutina, resp)
	}
	return rep, nil
}

// login records one login attempt and commits the session on 200.
func (r *Runner) login(ctx context.Context, rep *Report, step string, creds model.LoginRequest) (model.LoginResponse, bool, error) {
	var out model.LoginResponse
	resp, err := r.gw.Post(ctx, "/api/usuarios/login", creds, gateway.SkipAuth())
	if err != nil {
		return out, false, err
	}
	r.record(rep, step, resp)
	if resp.Status != 200 {
		return out, false, nil
	}
	if err := resp.JSON(&out); err != nil {
		return out, false, fmt.Errorf("decode login response: %w", err)
	}
	if !out.Session().Complete() {
		r.logger.Warn("login response lacks user_id, role or token", "step", step)
		return out, false, nil
	}
	if err := r.sessions.ClearSession(ctx); err != nil {
		return out, false, fmt.Errorf("save session: %w", err)
	}
	if err := r.sessions.SetSession(ctx, out.Session()); err != nil {
		return out, false, fmt.Errorf("save session: %w", err)
	}
	return out, true, nil
}

func (r *Runner) record(rep *Report, step string, resp *gateway.Response) {
	body := resp.Payload()
	if m, ok := body.(map[string]any); ok {
		if tok, ok := m["token"].(string); ok {
			m["token"] = Redact(tok)
		}
	}
	r.logger.Info("step", "step", step, "status", resp.Status, "request_id", resp.RequestID)
	rep.Steps = append(rep.Steps, Step{Step: step, Status: resp.Status, Body: body})
}
