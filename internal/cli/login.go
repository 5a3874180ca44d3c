package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/me/entrena/internal/session"
	"github.com/me/entrena/pkg/model"
)

func newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long:  "Sign in to EntrenaPro. On success the user id, role, name and token are stored in the session database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			var err error
			if email == "" {
				if email, err = prompt(cmd.OutOrStdout(), in, "Email: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = prompt(cmd.OutOrStdout(), in, "Password: "); err != nil {
					return err
				}
			}
			if email == "" || password == "" {
				return fmt.Errorf("email and password are required")
			}

			resp, err := client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			name := resp.Nombre
			if name == "" {
				name = email
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", name, resp.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (prompted if omitted)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted if omitted)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newRegisterCmd() *cobra.Command {
	var req model.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a client account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Email == "" || req.Password == "" {
				return fmt.Errorf("--email and --password are required")
			}
			created, err := client.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account created: %s\n", created.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "Account password")
	cmd.Flags().StringVar(&req.Nombre, "nombre", "", "Display name")
	return cmd
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := client.Whoami(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if s.Empty() {
				fmt.Fprintln(out, "Not logged in")
				return nil
			}

			fmt.Fprintf(out, "User:  %s\n", s.UserID)
			fmt.Fprintf(out, "Role:  %s\n", s.Role)
			if s.DisplayName != "" {
				fmt.Fprintf(out, "Name:  %s\n", s.DisplayName)
			}

			token, err := sessions.AuthToken(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, tokenLine(token, time.Now()))
			return nil
		},
	}
}

// tokenLine describes the stored token without revealing it.
func tokenLine(token string, now time.Time) string {
	if token == "" {
		return "Token: none"
	}
	info, err := session.ParseToken(token)
	if err != nil {
		return "Token: present (not a JWT)"
	}
	switch {
	case info.Expiry.IsZero():
		return "Token: no expiry"
	case info.IsExpired(now):
		return fmt.Sprintf("Token: expired %s", humanize.RelTime(info.Expiry, now, "ago", "from now"))
	}
	return fmt.Sprintf("Token: expires %s", humanize.RelTime(info.Expiry, now, "ago", "from now"))
}

func prompt(w io.Writer, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
