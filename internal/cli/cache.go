package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowtower/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local graph, layout and render cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePruneCommand())
	cmd.AddCommand(c.cacheStatsCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// openFileCache opens the local cache directory. A Redis cache configured
// for the server is not touched by the cache commands.
func (c *CLI) openFileCache() (*cache.FileCache, bool, error) {
	if c.cfg.Cache.RedisURL != "" {
		printWarning(c.Out, "Redis cache configured; cache commands only manage the local directory")
	}
	dir, err := c.cacheDir()
	if err != nil {
		return nil, false, fmt.Errorf("get cache dir: %w", err)
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, false, nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, false, err
	}
	return fc, true, nil
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, ok, err := c.openFileCache()
			if err != nil {
				return err
			}
			if !ok {
				printInfo(c.Out, "Cache is empty")
				return nil
			}
			n, err := fc.Clear()
			if err != nil {
				return err
			}
			printSuccess(c.Out, "Cleared %d cached entries", n)
			printDetail(c.Out, "Directory: %s", fc.Dir())
			return nil
		},
	}
}

// cachePruneCommand creates the "cache prune" subcommand.
func (c *CLI) cachePruneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired and unreadable entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, ok, err := c.openFileCache()
			if err != nil {
				return err
			}
			if !ok {
				printInfo(c.Out, "Cache is empty")
				return nil
			}
			n, err := fc.Prune()
			if err != nil {
				return err
			}
			printSuccess(c.Out, "Pruned %d expired entries", n)
			return nil
		},
	}
}

// cacheStatsCommand creates the "cache stats" subcommand.
func (c *CLI) cacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the number and size of cached entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, ok, err := c.openFileCache()
			if err != nil {
				return err
			}
			if !ok {
				printInfo(c.Out, "Cache is empty")
				return nil
			}
			entries, size, err := fc.Stats()
			if err != nil {
				return err
			}
			printKeyValue(c.Out, "Directory", fc.Dir())
			printKeyValue(c.Out, "Entries", fmt.Sprintf("%d", entries))
			printKeyValue(c.Out, "Size", formatBytes(size))
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(c.Out, dir)
			return nil
		},
	}
}

// formatBytes renders a size with a binary unit, e.g. "1.5 KiB".
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
