package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/truthlens/internal/cache"
	"github.com/spf13/cobra"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the assessment cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove expired cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := effectiveConfig()
		if err != nil {
			return err
		}

		n, err := cache.NewDiskCache(cfg.Cache.Dir, time.Duration(cfg.Cache.DiskTTLHours)*time.Hour).Purge()
		if err != nil {
			return fmt.Errorf("purge cache: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Purged %d expired entries from %s\n", n, cfg.Cache.Dir)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cache entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := effectiveConfig()
		if err != nil {
			return err
		}

		if err := cache.NewDiskCache(cfg.Cache.Dir, 0).Clear(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Cleared %s\n", cfg.Cache.Dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cachePurgeCmd, cacheClearCmd)
}
