package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go-simpler.org/env"

	"github.com/me/entrena/internal/gateway"
	"github.com/me/entrena/internal/session"
	"github.com/me/entrena/internal/smoke"
)

func newE2ECmd() *cobra.Command {
	var email, password, secret string

	cmd := &cobra.Command{
		Use:   "e2e",
		Short: "Run the end-to-end smoke flow and print a JSON report",
		Long: "Log in (registering the account if needed), optionally promote it, " +
			"then create a measurement, create, list and delete a routine. The " +
			"stored session is not touched. Exits with status 2 if login fails.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts smoke.Options
			if err := env.Load(&opts, nil); err != nil {
				return fmt.Errorf("load environment: %w", err)
			}
			if email != "" {
				opts.Email = email
			}
			if password != "" {
				opts.Password = password
			}
			if secret != "" {
				opts.PromoteSecret = secret
			}

			// The run uses its own in-memory session.
			runSessions := session.NewStore(session.NewMemoryBackend(), logger)
			runGateway := gateway.New(cfg.BaseURL(), runSessions, logger,
				gateway.WithPolicy(gw.Policy()),
				gateway.WithNotifier(notices),
			)
			runner := smoke.New(runGateway, runSessions, logger)

			rep, err := runner.Run(cmd.Context(), opts)
			if errors.Is(err, smoke.ErrLoginFailed) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Login failed, aborting.")
			}
			if werr := rep.Write(cmd.OutOrStdout()); werr != nil && err == nil {
				err = werr
			}
			return err
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (or ADMIN_EMAIL env)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (or ADMIN_PASS env)")
	cmd.Flags().StringVar(&secret, "promote-secret", "", "Promotion secret (or DEV_PROMOTE_SECRET env)")
	return cmd
}
