package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/dooosp/ghostcode-auditor/internal/cache"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the result cache",
		Subcommands: []*cli.Command{
			{
				Name:      "stats",
				Usage:     "Show cache entry count and size",
				ArgsUsage: "[path]",
				Action:    runCacheStats,
			},
			{
				Name:      "clear",
				Usage:     "Remove all cached results",
				ArgsUsage: "[path]",
				Action:    runCacheClear,
			},
		},
	}
}

func openCache(c *cli.Context) (*cache.Cache, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	dir := cfg.Cache.Dir
	if dir != "" && !filepath.IsAbs(dir) {
		dir = filepath.Join(getPath(c), dir)
	}
	return cache.New(dir, cfg.Cache.TTLDays, true)
}

func runCacheStats(c *cli.Context) error {
	store, err := openCache(c)
	if err != nil {
		return err
	}
	count, bytes := store.Stats()
	fmt.Printf("Entries: %d\n", count)
	fmt.Printf("Size:    %.1f KB\n", float64(bytes)/1024)
	return nil
}

func runCacheClear(c *cli.Context) error {
	store, err := openCache(c)
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return err
	}
	color.Green("Cache cleared")
	return nil
}
