package migrate

import (
	"github.com/spf13/cobra"

	"github.com/mpapenbr/splash-track/log"
	"github.com/mpapenbr/splash-track/pkg/config"
	"github.com/mpapenbr/splash-track/pkg/db/migrate"
	"github.com/mpapenbr/splash-track/pkg/db/sqlite"
)

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "performs database migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startMigration(cmd)
		},
	}

	cmd.Flags().StringVar(&config.DB,
		"db",
		"splash.db",
		"path of the lap record database")

	return cmd
}

func startMigration(cmd *cobra.Command) error {
	log.Info("Using database", log.String("db", config.DB))
	db, err := sqlite.Open(cmd.Context(), config.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	before, _, err := migrate.Version(db)
	if err != nil {
		return err
	}
	if err := migrate.MigrateDb(db); err != nil {
		log.Error("Could not migrate database", log.ErrorField(err))
		return err
	}
	after, dirty, err := migrate.Version(db)
	if err != nil {
		return err
	}
	if before == after {
		log.Info("No Migration required", log.Uint("version", after))
		return nil
	}
	log.Info("Database migrated",
		log.Uint("from", before),
		log.Uint("to", after),
		log.Bool("dirty", dirty))
	return nil
}
