package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/yatube/backend/internal/config"
	"github.com/yatube/backend/internal/database"
	"github.com/yatube/backend/internal/logger"
	"gorm.io/gorm"
)

var (
	output  string = "text" // "text" or "json"
	verbose bool

	cfg *config.Config
	db  *gorm.DB
)

var rootCmd = &cobra.Command{
	Use:   "yatube",
	Short: "Yatube CLI - Administer a Yatube installation",
	Long: `Yatube CLI works directly against the configured database.
Run migrations, seed data, manage groups and accounts, and clear the page cache.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Parent() == nil {
			return nil
		}
		if output != "text" && output != "json" {
			return fmt.Errorf("unknown output format %q", output)
		}

		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		if verbose {
			if err := logger.Initialize(cfg.Log.Level, cfg.Log.File); err != nil {
				return err
			}
		}

		if err := database.Initialize(cfg.Database, verbose); err != nil {
			return err
		}
		db = database.DB
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		_ = logger.Close()
		return database.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&output, "output", output, "Output format: text or json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log SQL and progress")

	// Add command groups
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(groupCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(cacheCmd)
}

// printResult writes v as JSON when --output=json, otherwise the text form
func printResult(w io.Writer, v interface{}, text string) error {
	if output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(w, text)
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
