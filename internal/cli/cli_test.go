package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/me/entrena/internal/config"
	"github.com/me/entrena/internal/gateway"
	"github.com/me/entrena/internal/server"
	"github.com/me/entrena/internal/smoke"
)

type testEnv struct {
	url     string
	db      string
	backend *server.Server
}

// startTestServer starts an in-memory API and returns it with a session path.
func startTestServer(t *testing.T, mutate ...func(*config.ServerConfig)) testEnv {
	t.Helper()
	t.Setenv("ENTRENA_DEV", "false")
	t.Setenv("ENTRENA_REDIRECT_DELAY", "10ms")

	srvLogger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	cfg := config.DefaultServerConfig()
	cfg.PromoteSecret = "promote-me"
	for _, m := range mutate {
		m(&cfg)
	}
	backend := server.New(cfg, srvLogger)
	ts := httptest.NewServer(backend.Handler())
	t.Cleanup(ts.Close)

	return testEnv{
		url:     ts.URL,
		db:      filepath.Join(t.TempDir(), "session.db"),
		backend: backend,
	}
}

func (e testEnv) seed(t *testing.T, email, role string) {
	t.Helper()
	if _, err := e.backend.AddAccount(config.SeedAccount{Email: email, Password: "pw", Nombre: "Test", Role: role}); err != nil {
		t.Fatalf("seed %s: %v", email, err)
	}
}

// run executes one CLI invocation against the test server.
func (e testEnv) run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	return runCLI(t, append([]string{"--api-base", e.url, "--session-db", e.db}, args...)...)
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)

	err := root.Execute()
	Shutdown()
	return out.String(), errOut.String(), err
}

func TestLoginWhoamiLogout(t *testing.T) {
	env := startTestServer(t)
	env.seed(t, "ana@test.local", "")

	out, _, err := env.run(t, "login", "--email", "ana@test.local", "--password", "pw")
	if err != nil {
		t.Fatalf("login error: %v", err)
	}
	if !strings.Contains(out, "Logged in as Test (cliente)") {
		t.Errorf("unexpected login output: %s", out)
	}

	// The session survives across invocations.
	out, _, err = env.run(t, "whoami")
	if err != nil {
		t.Fatalf("whoami error: %v", err)
	}
	if !strings.Contains(out, "Role:  cliente") {
		t.Errorf("expected role in output, got: %s", out)
	}
	if !strings.Contains(out, "Token: expires") {
		t.Errorf("expected token expiry in output, got: %s", out)
	}

	out, _, err = env.run(t, "open", "/cliente/mediciones")
	if err != nil {
		t.Fatalf("open error: %v", err)
	}
	if !strings.Contains(out, "Opened /cliente/mediciones") {
		t.Errorf("unexpected open output: %s", out)
	}

	if _, _, err := env.run(t, "logout"); err != nil {
		t.Fatalf("logout error: %v", err)
	}

	out, _, _ = env.run(t, "whoami")
	if !strings.Contains(out, "Not logged in") {
		t.Errorf("expected Not logged in, got: %s", out)
	}
	out, _, _ = env.run(t, "open", "/cliente/mediciones")
	if !strings.Contains(out, "Redirected to /") {
		t.Errorf("expected redirect after logout, got: %s", out)
	}
}

func TestLogin_PromptsForCredentials(t *testing.T) {
	env := startTestServer(t)
	env.seed(t, "ana@test.local", "")

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader("ana@test.local\npw\n"))
	root.SetArgs([]string{"--api-base", env.url, "--session-db", env.db, "login"})
	err := root.Execute()
	Shutdown()
	if err != nil {
		t.Fatalf("login error: %v", err)
	}
	if !strings.Contains(out.String(), "Email: ") || !strings.Contains(out.String(), "Logged in as") {
		t.Errorf("unexpected output: %s", out.String())
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := startTestServer(t)
	_, stderr, err := env.run(t, "login", "--email", "nobody@test.local", "--password", "x")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "invalid credentials") {
		t.Errorf("error = %v", err)
	}
	// Login skips the authorization policy, so no notice is shown.
	if strings.Contains(stderr, gateway.MessageUnauthorized) {
		t.Errorf("unexpected notice: %s", stderr)
	}
}

func TestRegisterCommand(t *testing.T) {
	env := startTestServer(t)
	out, _, err := env.run(t, "register", "--email", "new@test.local", "--password", "pw", "--nombre", "Nuevo")
	if err != nil {
		t.Fatalf("register error: %v", err)
	}
	if !strings.Contains(out, "Account created: ") {
		t.Errorf("unexpected output: %s", out)
	}
	if _, _, err := env.run(t, "login", "--email", "new@test.local", "--password", "pw"); err != nil {
		t.Fatalf("login after register: %v", err)
	}
}

func TestMedicionAdd(t *testing.T) {
	env := startTestServer(t)
	env.seed(t, "ana@test.local", "")
	if _, _, err := env.run(t, "login", "--email", "ana@test.local", "--password", "pw"); err != nil {
		t.Fatal(err)
	}

	out, _, err := env.run(t, "medicion", "add", "--peso", "70.5", "--cintura", "80")
	if err != nil {
		t.Fatalf("medicion add error: %v", err)
	}
	if !strings.Contains(out, "Medicion recorded: ") {
		t.Errorf("unexpected output: %s", out)
	}

	if _, _, err := env.run(t, "medicion", "add", "--peso", "70", "--fecha", "01/02/2024"); err == nil {
		t.Error("expected error for malformed --fecha")
	}
}

func TestRutinaCommands(t *testing.T) {
	env := startTestServer(t)
	env.seed(t, "coach@test.local", "entrenador")
	if _, _, err := env.run(t, "login", "--email", "coach@test.local", "--password", "pw"); err != nil {
		t.Fatal(err)
	}

	out, _, err := env.run(t, "rutina", "create", "--nombre", "Fuerza", "--nivel", "inicial", "--ejercicio", "Sentadilla", "--ejercicio", "Press")
	if err != nil {
		t.Fatalf("rutina create error: %v", err)
	}
	id := strings.TrimSpace(strings.TrimPrefix(out, "Rutina created: "))
	if id == "" || id == out {
		t.Fatalf("unexpected create output: %s", out)
	}

	out, _, err = env.run(t, "rutina", "list")
	if err != nil {
		t.Fatalf("rutina list error: %v", err)
	}
	if !strings.Contains(out, "Fuerza") || !strings.Contains(out, "Sentadilla, Press") {
		t.Errorf("unexpected list output: %s", out)
	}

	out, _, err = env.run(t, "rutina", "delete", id)
	if err != nil {
		t.Fatalf("rutina delete error: %v", err)
	}
	if !strings.Contains(out, "deleted") {
		t.Errorf("unexpected delete output: %s", out)
	}

	out, _, _ = env.run(t, "rutina", "list")
	if !strings.Contains(out, "No rutinas found.") {
		t.Errorf("expected empty list, got: %s", out)
	}
}

func TestPromoteCommand(t *testing.T) {
	env := startTestServer(t)
	env.seed(t, "ana@test.local", "")

	out, _, err := env.run(t, "promote", "--email", "ana@test.local", "--secret", "promote-me")
	if err != nil {
		t.Fatalf("promote error: %v", err)
	}
	if !strings.Contains(out, "entrenador creado") {
		t.Errorf("unexpected output: %s", out)
	}
	out, _, _ = env.run(t, "login", "--email", "ana@test.local", "--password", "pw")
	if !strings.Contains(out, "(entrenador)") {
		t.Errorf("expected trainer role after promote, got: %s", out)
	}
}

func TestNotifyOnly_KeepsSession(t *testing.T) {
	env := startTestServer(t)
	env.seed(t, "ana@test.local", "")
	if _, _, err := env.run(t, "login", "--email", "ana@test.local", "--password", "pw"); err != nil {
		t.Fatal(err)
	}
	env.backend.RevokeTokens()

	_, stderr, err := env.run(t, "medicion", "add", "--peso", "70")
	if err == nil {
		t.Fatal("expected 401 error")
	}
	if !strings.Contains(stderr, gateway.MessageUnauthorized) {
		t.Errorf("expected unauthorized notice, got: %s", stderr)
	}

	out, _, _ := env.run(t, "whoami")
	if !strings.Contains(out, "Role:  cliente") {
		t.Errorf("session should be intact, got: %s", out)
	}
}

func TestForceLogout_ClearsSession(t *testing.T) {
	env := startTestServer(t)
	env.seed(t, "ana@test.local", "")
	if _, _, err := env.run(t, "login", "--email", "ana@test.local", "--password", "pw"); err != nil {
		t.Fatal(err)
	}
	env.backend.RevokeTokens()

	_, stderr, err := env.run(t, "--auth-policy", "forceLogout", "medicion", "add", "--peso", "70")
	if err == nil {
		t.Fatal("expected 401 error")
	}
	if !strings.Contains(stderr, gateway.MessageSessionExpired) {
		t.Errorf("expected session expired notice, got: %s", stderr)
	}

	out, _, _ := env.run(t, "whoami")
	if !strings.Contains(out, "Not logged in") {
		t.Errorf("session should be cleared, got: %s", out)
	}
}

func TestInvalidAuthPolicy(t *testing.T) {
	env := startTestServer(t)
	if _, _, err := env.run(t, "--auth-policy", "sometimes", "whoami"); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}

func TestE2ECommand(t *testing.T) {
	env := startTestServer(t)

	out, _, err := env.run(t, "e2e", "--promote-secret", "promote-me")
	if err != nil {
		t.Fatalf("e2e error: %v\n%s", err, out)
	}
	var rep smoke.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("report is not JSON: %v\n%s", err, out)
	}
	last := rep.Steps[len(rep.Steps)-1]
	if last.Step != smoke.StepDeleteRutina || last.Status != 200 {
		t.Errorf("last step = %+v", last)
	}
	if !strings.HasPrefix(rep.Token, "[REDACTED length:") {
		t.Errorf("token = %q", rep.Token)
	}

	// The run does not touch the stored session.
	whoami, _, _ := env.run(t, "whoami")
	if !strings.Contains(whoami, "Not logged in") {
		t.Errorf("e2e changed the stored session: %s", whoami)
	}
}

func TestE2ECommand_LoginFailureExitCode(t *testing.T) {
	env := startTestServer(t, func(c *config.ServerConfig) { c.AllowRegistration = false })

	out, stderr, err := env.run(t, "e2e")
	if err == nil {
		t.Fatal("expected error")
	}
	if code := ExitCode(err); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stderr, "Login failed, aborting.") {
		t.Errorf("stderr = %s", stderr)
	}
	if !strings.Contains(out, `"step": "register_admin_attempt"`) {
		t.Errorf("report missing register step: %s", out)
	}
}

func TestExitCode(t *testing.T) {
	if ExitCode(nil) != 0 {
		t.Error("nil error should exit 0")
	}
	if ExitCode(io.EOF) != 1 {
		t.Error("generic error should exit 1")
	}
}

func TestTokenLine(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	sign := func(exp time.Time) string {
		claims := jwt.MapClaims{"user_id": 1, "role": "cliente"}
		if !exp.IsZero() {
			claims["exp"] = exp.Unix()
		}
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
		if err != nil {
			t.Fatal(err)
		}
		return s
	}

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"none", "", "Token: none"},
		{"opaque", "not-a-jwt", "Token: present (not a JWT)"},
		{"no expiry", sign(time.Time{}), "Token: no expiry"},
		{"valid", sign(now.Add(2 * time.Hour)), "Token: expires 2 hours from now"},
		{"expired", sign(now.Add(-3 * time.Minute)), "Token: expired 3 minutes ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tokenLine(tt.token, now); got != tt.want {
				t.Errorf("tokenLine = %q, want %q", got, tt.want)
			}
		})
	}
}
