package cmd

import (
	"fmt"

	"github.com/ecoalerta/ecoalerta-api/database"
	"github.com/spf13/cobra"
)

// NewSeedCommand creates the seed command, which loads the waste
// categories and the default inspector account.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load initial categories and the inspector user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := rootOpts.openDB()
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}

			result, err := database.Seed(db, rootOpts.cfg.SeedInspectorPassword)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Categorías creadas: %d\n", result.CategoriesCreated)
			if result.InspectorCreated {
				fmt.Fprintln(out, "Usuario inspector creado (usuario: inspector)")
			}
			fmt.Fprintln(out, "¡Datos iniciales cargados exitosamente!")
			return nil
		},
	}
}
