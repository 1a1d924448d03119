package main

import (
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"crawling_observer/migrations"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down|status|version|redo|reset] [args...]",
		Short: "Apply the embedded database migrations",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) > 0 {
				command, args = args[0], args[1:]
			}

			ctx := cmd.Context()

			db, err := a.connectDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := goose.SetDialect("postgres"); err != nil {
				return fmt.Errorf("set goose dialect: %w", err)
			}
			goose.SetBaseFS(migrations.FS)

			a.logger.Info("goose run started", "cmd", command)
			if err := goose.RunContext(ctx, command, db.DB, ".", args...); err != nil {
				return fmt.Errorf("goose run %q: %w", command, err)
			}
			a.logger.Info("goose run completed", "cmd", command)
			return nil
		},
	}
}
