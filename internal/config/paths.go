package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves a configured path the way the playbook expects:
//   - "~" or "~/..." resolves against the user's home directory
//   - "./..." or "." resolves against base (the playbook directory)
//   - "~+/..." resolves against the current working directory
//   - any other relative path resolves against cwd
//
// An empty path stays empty.
func ExpandPath(p, base, cwd string) string {
	switch {
	case p == "":
		return ""
	case p == "~" || strings.HasPrefix(p, "~/"):
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Clean(p)
		}
		return filepath.Join(home, p[1:])
	case p == "~+" || strings.HasPrefix(p, "~+/"):
		return filepath.Join(cwd, p[2:])
	case p == "." || strings.HasPrefix(p, "./"):
		return filepath.Join(base, p[1:])
	case filepath.IsAbs(p):
		return filepath.Clean(p)
	default:
		return filepath.Join(cwd, p)
	}
}

// ResolveCacheDir returns the absolute cache root for the playbook. Without an
// explicit cache_dir the user cache directory is used, falling back to a hidden
// directory next to the playbook when no user cache directory is available.
func ResolveCacheDir(pb *Playbook, cwd string) string {
	if pb.Runtime.CacheDir != "" {
		return ExpandPath(pb.Runtime.CacheDir, pb.Dir, cwd)
	}
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, DefaultCacheDirName)
	}
	base := pb.Dir
	if base == "" {
		base = cwd
	}
	return filepath.Join(base, "."+DefaultCacheDirName, "cache")
}

// ContentCacheDir is the directory holding the cached content repositories.
func ContentCacheDir(cacheDir string) string {
	return filepath.Join(cacheDir, ContentCacheFolder)
}
