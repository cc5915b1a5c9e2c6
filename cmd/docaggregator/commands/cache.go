package commands

import (
	"fmt"
	"os"

	"git.home.luguber.info/inful/docaggregator/internal/config"
	foundationerrors "git.home.luguber.info/inful/docaggregator/internal/foundation/errors"
)

// CacheCmd groups the cache subcommands.
type CacheCmd struct {
	Dir   CacheDirCmd   `cmd:"" help:"Print the content cache directory"`
	Clean CacheCleanCmd `cmd:"" help:"Remove every cached repository"`
}

// CacheDirCmd implements 'cache dir'.
type CacheDirCmd struct {
	CacheDir string `name:"cache-dir" help:"Override runtime.cache_dir"`
}

func (c *CacheDirCmd) Run(g *Global, root *CLI) error {
	dir, err := contentCacheDir(root.Playbook, c.CacheDir)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(g.Out, dir)
	return nil
}

// CacheCleanCmd implements 'cache clean'.
type CacheCleanCmd struct {
	CacheDir string `name:"cache-dir" help:"Override runtime.cache_dir"`
}

func (c *CacheCleanCmd) Run(g *Global, root *CLI) error {
	dir, err := contentCacheDir(root.Playbook, c.CacheDir)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem,
			"Failed to remove content cache: "+dir).Build()
	}
	g.Logger.Debug("Removed content cache", "path", dir)
	_, _ = fmt.Fprintf(g.Out, "Removed %s\n", dir)
	return nil
}

func contentCacheDir(playbook, override string) (string, error) {
	pb, err := loadPlaybookOrDefault(playbook)
	if err != nil {
		return "", err
	}
	if override != "" {
		pb.Runtime.CacheDir = override
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "cannot determine working directory").Build()
	}
	return config.ContentCacheDir(config.ResolveCacheDir(pb, cwd)), nil
}
