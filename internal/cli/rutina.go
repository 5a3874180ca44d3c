package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/me/entrena/pkg/model"
)

func newRutinaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rutina",
		Short: "Training routines (trainer accounts)",
	}
	cmd.AddCommand(newRutinaCreateCmd(), newRutinaListCmd(), newRutinaDeleteCmd())
	return cmd
}

func newRutinaCreateCmd() *cobra.Command {
	var r model.Rutina

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a routine",
		RunE: func(cmd *cobra.Command, args []string) error {
			if r.Nombre == "" {
				return fmt.Errorf("--nombre is required")
			}
			created, err := client.CreateRutina(cmd.Context(), r)
			if err != nil {
				return err
			}
			if created == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Rutina created")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rutina created: %s\n", created.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&r.Nombre, "nombre", "", "Routine name")
	cmd.Flags().StringVar(&r.Descripcion, "descripcion", "", "Description")
	cmd.Flags().StringVar(&r.Nivel, "nivel", "", "Level")
	cmd.Flags().StringArrayVar(&r.Ejercicios, "ejercicio", nil, "Exercise (repeatable)")
	return cmd
}

func newRutinaListCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a trainer's routines",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if userID == "" {
				s, err := sessions.Session(ctx)
				if err != nil {
					return err
				}
				if s.UserID == "" {
					return fmt.Errorf("not logged in; pass --user or run entrena login")
				}
				userID = s.UserID
			}

			list, err := client.ListRutinas(ctx, userID)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No rutinas found.")
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-6s  %-24s  %-12s  %s\n", "ID", "NOMBRE", "NIVEL", "EJERCICIOS")
			fmt.Fprintf(out, "%-6s  %-24s  %-12s  %s\n", "--", "------", "-----", "----------")
			for _, r := range list {
				fmt.Fprintf(out, "%-6s  %-24s  %-12s  %s\n", r.ID, r.Nombre, dash(r.Nivel), dash(strings.Join(r.Ejercicios, ", ")))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Trainer user id (default: the logged-in user)")
	return cmd
}

func newRutinaDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a routine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.DeleteRutina(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rutina %s deleted\n", args[0])
			return nil
		},
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
