package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	db "github.com/TechXTT/tormprobe"
	"github.com/TechXTT/tormprobe/pkg/config"
	"github.com/TechXTT/tormprobe/pkg/internal/schema"
	"github.com/TechXTT/tormprobe/pkg/migrate"
)

// NewMigrateCmd builds the `migrate` command that prepares the probed tables.
func NewMigrateCmd(logLevel *string) *cobra.Command {
	var (
		schemaFile string
		migrations string
		driver     string
	)

	cmd := &cobra.Command{
		Use:   "migrate [dev|up|down|status]",
		Short: "Manage the tables the probe queries",
		Long: `dev     write CREATE TABLE stubs for new models, then apply pending migrations
up      apply pending migrations
down    roll back the latest migration
status  show applied and pending migrations`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"dev", "up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(cmd.ErrOrStderr(), *logLevel)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			cfg, err := config.Load(schemaFile)
			if err != nil {
				return err
			}
			if driver != "" {
				cfg.Driver = driver
			}

			if args[0] == "dev" {
				data, err := os.ReadFile(schemaFile)
				if err != nil {
					return err
				}
				ast, err := schema.ParseSchema(data)
				if err != nil {
					return fmt.Errorf("parse schema: %w", err)
				}
				if _, err := migrate.EnsureStubs(ast, migrations, log); err != nil {
					return fmt.Errorf("ensure stubs: %w", err)
				}
			}

			conn, err := db.Open(ctx, cfg.Driver, cfg.DSN)
			if err != nil {
				return err
			}
			defer conn.Disconnect(ctx)

			mgr, err := migrate.NewManager(conn.Conn, migrations, log)
			if err != nil {
				return err
			}

			switch args[0] {
			case "dev", "up":
				return mgr.Up(ctx)
			case "down":
				return mgr.Down(ctx)
			case "status":
				status, err := mgr.Status(ctx)
				if err != nil {
					return err
				}
				cmd.Println(status)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&schemaFile, "schema", config.DefaultSchemaPath, "Prisma schema path")
	cmd.Flags().StringVar(&migrations, "dir", "migrations", "Migrations directory")
	cmd.Flags().StringVar(&driver, "driver", "", "database/sql driver override (postgres, pgx, sqlite)")
	return cmd
}
