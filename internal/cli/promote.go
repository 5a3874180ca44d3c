package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/me/entrena/pkg/model"
)

func newPromoteCmd() *cobra.Command {
	var req model.PromoteRequest

	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Grant the trainer role (development backends only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Secret == "" {
				req.Secret = os.Getenv("DEV_PROMOTE_SECRET")
			}
			if req.Email == "" || req.Secret == "" {
				return fmt.Errorf("--email and --secret (or DEV_PROMOTE_SECRET) are required")
			}
			resp, err := client.Promote(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (entrenador %s)\n", resp.Message, resp.EntrenadorID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&req.Secret, "secret", "", "Promotion secret")
	return cmd
}
