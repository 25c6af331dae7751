package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yatube/backend/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Migrate(db); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Migrations applied")
		return nil
	},
}
