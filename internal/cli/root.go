package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/entrena/internal/api"
	"github.com/me/entrena/internal/config"
	"github.com/me/entrena/internal/gateway"
	"github.com/me/entrena/internal/logging"
	"github.com/me/entrena/internal/notify"
	"github.com/me/entrena/internal/router"
	"github.com/me/entrena/internal/session"
	"github.com/me/entrena/internal/smoke"
	"github.com/me/entrena/internal/store"
)

var (
	flagAPIBase    string
	flagSessionDB  string
	flagAuthPolicy string
	flagConfig     string
	flagDebug      bool
	flagLogLevel   string
	flagLogFormat  string

	cfg          *config.Config
	logger       *slog.Logger
	sessionStore *store.SQLiteStore
	sessions     *session.Store
	notices      *notify.Channel
	nav          *router.Router
	gw           *gateway.Client
	client       *api.Client
)

// NewRootCmd creates the root cobra command for the entrena CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "entrena",
		Short: "entrena — EntrenaPro client",
		Long:  "entrena signs in to the EntrenaPro API, keeps the session, and calls the client and trainer endpoints.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagAPIBase, "api-base", "", "API base URL, e.g. :5000 or https://host (or ENTRENA_API_BASE env)")
	root.PersistentFlags().StringVar(&flagSessionDB, "session-db", "", "Session database path (default ~/.entrena/session.db)")
	root.PersistentFlags().StringVar(&flagAuthPolicy, "auth-policy", "", "Reaction to 401/403: notifyOnly or forceLogout (or ENTRENA_AUTH_POLICY env)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "Optional YAML config file")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format (text, json, console)")

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newRegisterCmd(),
		newWhoamiCmd(),
		newOpenCmd(),
		newMedicionCmd(),
		newRutinaCmd(),
		newPromoteCmd(),
		newE2ECmd(),
	)

	return root
}

// setup resolves configuration and wires the client stack.
func setup(cmd *cobra.Command) error {
	c, err := config.Load()
	if err != nil {
		return err
	}
	if flagConfig != "" {
		if err := config.LoadFile(flagConfig, c); err != nil {
			return err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("api-base") {
		c.APIBase = &flagAPIBase
	}
	if flagSessionDB != "" {
		c.SessionDB = flagSessionDB
	}
	if flagAuthPolicy != "" {
		c.AuthPolicy = flagAuthPolicy
	}
	if flagLogLevel != "" {
		c.LogLevel = flagLogLevel
	}
	if flagLogFormat != "" {
		c.LogFormat = flagLogFormat
	}
	if flagDebug {
		c.LogLevel = "debug"
	}
	cfg = c

	logger = logging.NewLoggerWithWriter(logging.ParseLevel(c.LogLevel), c.LogFormat, cmd.ErrOrStderr())

	policy, err := gateway.ParsePolicy(c.AuthPolicy)
	if err != nil {
		return err
	}

	dbPath, err := c.SessionPath()
	if err != nil {
		return err
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
			return fmt.Errorf("create session directory: %w", err)
		}
	}
	st, err := store.NewSQLiteStore(dbPath, logger)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	if err := st.Migrate(cmd.Context()); err != nil {
		st.Close()
		return fmt.Errorf("migrate session store: %w", err)
	}
	sessionStore = st
	sessions = session.NewStore(st, logger)

	notices = notify.NewChannel(notify.NewTerminalHost(cmd.ErrOrStderr()),
		notify.WithLogger(logger),
		notify.WithAlert(cmd.ErrOrStderr()),
	)
	nav = router.New(router.Guard{Protected: c.Protected, Landing: c.Landing}, sessions, logger)
	gw = gateway.New(c.BaseURL(), sessions, logger,
		gateway.WithPolicy(policy),
		gateway.WithNotifier(notices),
		gateway.WithNavigator(nav),
		gateway.WithRedirectDelay(c.RedirectDelay),
		gateway.WithNoticeDuration(c.NoticeDuration),
	)
	nav.Observe(gw.Navigated)
	client = api.New(gw, sessions, nav, logger)

	logger.Debug("client ready", "api_base", c.BaseURL(), "policy", policy, "session_db", dbPath)
	return nil
}

// Shutdown lets a pending forced-logout redirect finish, then releases the
// session store. It is safe to call when setup never ran.
func Shutdown() {
	if gw != nil && cfg != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.RedirectDelay+time.Second)
		if err := gw.WaitRedirect(ctx); err != nil {
			logger.Warn("redirect did not finish", "error", err)
		}
		cancel()
	}
	if notices != nil {
		notices.Close()
	}
	if sessionStore != nil {
		sessionStore.Close()
	}
	cfg, logger, sessionStore, sessions, notices, nav, gw, client = nil, nil, nil, nil, nil, nil, nil, nil
}

// ExitCode maps a command error to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, smoke.ErrLoginFailed):
		return 2
	}
	return 1
}
