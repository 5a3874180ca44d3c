package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Navigate to a route, applying the login guard",
		Long: "Resolve a route the way the web client does: protected areas " +
			"(/cliente, /entrenador, /admin by default) require a complete session " +
			"and fall back to the landing route otherwise.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := nav.Navigate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if d.Allowed {
				fmt.Fprintf(cmd.OutOrStdout(), "Opened %s\n", d.Target)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Redirected to %s\n", d.Target)
			}
			return nil
		},
	}
}
