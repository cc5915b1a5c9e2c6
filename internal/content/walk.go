package content

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5/plumbing"
	"golang.org/x/sync/errgroup"

	foundationerrors "git.home.luguber.info/inful/docaggregator/internal/foundation/errors"
	"git.home.luguber.info/inful/docaggregator/internal/git"
)

// collectable reports whether a file or directory name is collected. Hidden
// entries are skipped, as are files without an extension.
func collectable(name string, isDir bool) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return isDir || strings.Contains(name, ".")
}

// readWorktree reads the files below startPath of a checked out tree.
func readWorktree(ctx context.Context, worktree, startPath string) ([]*File, error) {
	root := filepath.Join(worktree, filepath.FromSlash(startPath))
	fi, err := os.Stat(root)
	if err != nil {
		return nil, startPathError(startPath, ErrStartPathNotFound)
	}
	if !fi.IsDir() {
		return nil, startPathError(startPath, ErrStartPathNotDirectory)
	}

	var files []*File
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if p == root {
			return nil
		}
		if !collectable(d.Name(), d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := os.Stat(p) // follows symlinks
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		contents, err := os.ReadFile(p) // #nosec G304 -- walking the configured content worktree
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		mtime := info.ModTime()
		files = append(files, &File{
			Path:     filepath.ToSlash(rel),
			Contents: contents,
			Stat:     FileStat{Mode: info.Mode(), Size: info.Size(), ModTime: &mtime},
			Src:      FileSrc{AbsPath: p},
		})
		return nil
	})
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, err.Error()).Build()
	}
	sortFiles(files)
	return files, nil
}

// readGitTree reads the files below startPath of the tree at oid. Subtrees
// and blobs are read concurrently as they are discovered; the first failure
// aborts the walk.
func readGitTree(ctx context.Context, repo *git.Repository, oid plumbing.Hash, startPath string) ([]*File, error) {
	root, err := repo.ReadTree(git.ReadTreeOptions{OID: oid, Path: startPath})
	if err != nil {
		switch {
		case errors.Is(err, git.ErrNotDirectory):
			return nil, startPathError(startPath, ErrStartPathNotDirectory)
		case errors.Is(err, git.ErrPathNotFound):
			return nil, startPathError(startPath, ErrStartPathNotFound)
		default:
			return nil, err
		}
	}

	var (
		mu    sync.Mutex
		files []*File
	)
	g, ctx := errgroup.WithContext(ctx)
	var visit func(entries []git.TreeEntry, dir string)
	visit = func(entries []git.TreeEntry, dir string) {
		for _, e := range entries {
			if !collectable(e.Name, e.Type == git.EntryTree) {
				continue
			}
			p := path.Join(dir, e.Name)
			switch e.Type {
			case git.EntryBlob:
				if e.Mode == 0 {
					continue
				}
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					contents, err := repo.ReadBlob(git.ReadBlobOptions{OID: e.OID})
					if err != nil {
						return err
					}
					mu.Lock()
					files = append(files, &File{
						Path:     p,
						Contents: contents,
						Stat:     FileStat{Mode: e.Mode, Size: int64(len(contents))},
					})
					mu.Unlock()
					return nil
				})
			case git.EntryTree:
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					sub, err := repo.ReadTree(git.ReadTreeOptions{OID: e.OID})
					if err != nil {
						return err
					}
					visit(sub, p)
					return nil
				})
			case git.EntryOther:
			}
		}
	}
	visit(root, "")
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sortFiles(files)
	return files, nil
}

func sortFiles(files []*File) {
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
}
