package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/erazemk/fixitforward/internal/db"
	"github.com/erazemk/fixitforward/internal/store"
)

func newInitCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create and migrate the SQLite database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.cfg.DB
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("database file %s already exists", path)
			}

			database, err := db.Open(path)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer database.Close()

			if err := db.Migrate(database); err != nil {
				database.Close()
				os.Remove(path)
				return fmt.Errorf("running migrations: %w", err)
			}
			// Generates and stores the signing key.
			if _, err := store.GetJWTSecret(cmd.Context(), database); err != nil {
				return fmt.Errorf("creating JWT secret: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Database created: %s\n", path)
			fmt.Fprintln(out, "Schema initialized.")
			return nil
		},
	}
}
