package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/mallet/internal/cache"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the lint cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "dir",
		Short: "Print the cache directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			dir, err := cacheDir(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clean",
		Short: "Remove every cached lint result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			dir, err := cacheDir(cfg)
			if err != nil {
				return err
			}
			n, err := cache.NewLocalCache(dir).Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("cleaning cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached entries from %s\n", n, dir)
			return nil
		},
	})
	return cmd
}

func init() {
	rootCmd.AddCommand(newCacheCmd())
}
