package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/subscription-backoffice/internal/migrations"
)

func newMigrateCmd(opts *options) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.load()
			if err != nil {
				return err
			}
			if path == "" {
				path = e.cfg.MigrationsPath
			}
			db, err := e.storage()
			if err != nil {
				return err
			}
			defer closeWith(e.log, "storage", db)

			if err := migrations.Run(db.DB, path); err != nil {
				return err
			}
			version, dirty, err := migrations.Version(db.DB, path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t)\n", version, dirty)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "migrations directory (defaults to migrations_path from config)")
	return cmd
}
