package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/entrena/pkg/model"
)

func newMedicionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "medicion",
		Short: "Body measurements",
	}
	cmd.AddCommand(newMedicionAddCmd())
	return cmd
}

func newMedicionAddCmd() *cobra.Command {
	var (
		peso, altura, cintura float64
		fecha                 string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a measurement for the logged-in client",
		RunE: func(cmd *cobra.Command, args []string) error {
			if peso <= 0 {
				return fmt.Errorf("--peso must be positive")
			}
			m := model.Medicion{Peso: peso, Fecha: fecha}
			if m.Fecha == "" {
				m.Fecha = model.FechaFor(time.Now())
			} else if _, err := time.Parse(time.DateOnly, m.Fecha); err != nil {
				return fmt.Errorf("--fecha must be YYYY-MM-DD: %w", err)
			}
			if cmd.Flags().Changed("altura") {
				m.Altura = &altura
			}
			if cmd.Flags().Changed("cintura") {
				m.Cintura = &cintura
			}

			created, err := client.CreateMedicion(cmd.Context(), m)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Medicion recorded: %s\n", created.ID)
			return nil
		},
	}

	cmd.Flags().Float64Var(&peso, "peso", 0, "Weight in kg")
	cmd.Flags().Float64Var(&altura, "altura", 0, "Height in cm")
	cmd.Flags().Float64Var(&cintura, "cintura", 0, "Waist in cm")
	cmd.Flags().StringVar(&fecha, "fecha", "", "Date (YYYY-MM-DD, default today)")
	return cmd
}
