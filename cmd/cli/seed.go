package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yatube/backend/internal/database"
	"github.com/yatube/backend/internal/seed"
)

var confirmClean bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the database with sample data",
}

var seedDevCmd = &cobra.Command{
	Use:   "dev",
	Short: "Seed development database with realistic data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Migrate(db); err != nil {
			return err
		}
		if err := seed.NewSeeder(db).SeedDev(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Development data seeded (password for every account: %s)\n", seed.DefaultPassword)
		return nil
	},
}

var seedTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Seed test database with a small fixed data set",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Migrate(db); err != nil {
			return err
		}
		if err := seed.NewSeeder(db).SeedTest(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Test data seeded: alice, bob, charlie, diana, eve")
		return nil
	},
}

var seedCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove all data (use with caution)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmClean {
			return errors.New("refusing to delete every row without --yes")
		}
		if err := seed.NewSeeder(db).Clean(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ All data removed")
		return nil
	},
}

func init() {
	seedCleanCmd.Flags().BoolVar(&confirmClean, "yes", false, "Confirm deleting every row")

	seedCmd.AddCommand(seedDevCmd)
	seedCmd.AddCommand(seedTestCmd)
	seedCmd.AddCommand(seedCleanCmd)
}
