package cli

import (
	"fmt"

	"github.com/ppiankov/attrib/internal/cache"
	"github.com/spf13/cobra"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the embedding vector cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all cached embedding vectors",
	Long:  `Remove the on-disk embedding cache directory (cache.dir). The next embedding run recomputes every vector.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if err := clearCache(cfg.Cache.Dir); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared embedding cache: %s\n", cfg.Cache.Dir)
		return nil
	},
}

func clearCache(dir string) error {
	if err := cache.NewDiskCache(dir, 0).Clear(); err != nil {
		return fmt.Errorf("clear cache %s: %w", dir, err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
