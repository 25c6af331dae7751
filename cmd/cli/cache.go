package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yatube/backend/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the page cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached page",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Redis.Host == "" {
			// nothing shared to clear from another process
			fmt.Fprintln(cmd.OutOrStdout(), "Page cache is in-process; restart the server or POST /admin/cache/clear/ as an admin")
			return nil
		}

		client, err := cache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password)
		if err != nil {
			return err
		}
		defer client.Close()

		if err := client.Clear(cmd.Context()); err != nil {
			return fmt.Errorf("failed to clear page cache: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Page cache cleared")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
}
