package content

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/docaggregator/internal/git"
	"git.home.luguber.info/inful/docaggregator/internal/util/sets"
)

// cleanStartPath drops leading, trailing and repeated slashes.
func cleanStartPath(p string) string {
	negated := strings.HasPrefix(p, "!")
	if negated {
		p = p[1:]
	}
	segments := strings.FieldsFunc(p, func(r rune) bool { return r == '/' })
	cleaned := strings.Join(segments, "/")
	if negated {
		return "!" + cleaned
	}
	return cleaned
}

// subdirLister returns the names of the directories directly below dir, where
// dir is relative to the root being searched and "" is the root itself.
type subdirLister func(dir string) ([]string, error)

// resolveStartPaths expands start path globs against the directories listed
// by ls. Literal entries are kept as they are, so a missing directory is
// reported when it is read. An entry prefixed with "!" removes the paths it
// matches from those collected so far. The result keeps the order in which
// paths were first found and contains no duplicates.
func resolveStartPaths(patterns []string, ls subdirLister) ([]string, error) {
	var out []string
	seen := sets.New[string]()
	add := func(p string) {
		if !seen.Has(p) {
			seen.Add(p)
			out = append(out, p)
		}
	}
	for _, p := range patterns {
		if strings.HasPrefix(p, "!") {
			m, err := newMatcher([]string{p[1:]}, matchPaths)
			if err != nil {
				return nil, err
			}
			out = slices.DeleteFunc(out, func(c string) bool {
				if m.match(c) {
					seen.Delete(c)
					return true
				}
				return false
			})
			continue
		}
		if !isGlob(p) {
			add(p)
			continue
		}
		matches, err := expandGlob(p, ls)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			add(m)
		}
	}
	return out, nil
}

// expandGlob walks the pattern one segment at a time. Hidden directories only
// match segments that start with a dot themselves.
func expandGlob(pattern string, ls subdirLister) ([]string, error) {
	candidates := []string{""}
	for _, seg := range strings.Split(pattern, "/") {
		var next []string
		switch {
		case seg == "**":
			for _, c := range candidates {
				all, err := descendants(c, ls)
				if err != nil {
					return nil, err
				}
				next = append(next, c)
				next = append(next, all...)
			}
		case isGlob(seg):
			m, err := newMatcher([]string{seg}, matchPaths)
			if err != nil {
				return nil, err
			}
			for _, c := range candidates {
				names, err := ls(c)
				if err != nil {
					return nil, err
				}
				for _, n := range names {
					if strings.HasPrefix(n, ".") && !strings.HasPrefix(seg, ".") {
						continue
					}
					if m.match(n) {
						next = append(next, path.Join(c, n))
					}
				}
			}
		default:
			for _, c := range candidates {
				names, err := ls(c)
				if err != nil {
					return nil, err
				}
				if slices.Contains(names, seg) {
					next = append(next, path.Join(c, seg))
				}
			}
		}
		if candidates = next; len(candidates) == 0 {
			return nil, nil
		}
	}
	return slices.DeleteFunc(candidates, func(c string) bool { return c == "" }), nil
}

func descendants(dir string, ls subdirLister) ([]string, error) {
	names, err := ls(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, n := range names {
		if strings.HasPrefix(n, ".") {
			continue
		}
		child := path.Join(dir, n)
		out = append(out, child)
		below, err := descendants(child, ls)
		if err != nil {
			return nil, err
		}
		out = append(out, below...)
	}
	return out, nil
}

// worktreeDirs lists directories of a checked out tree. Missing directories
// have no children.
func worktreeDirs(root string) subdirLister {
	return func(dir string) ([]string, error) {
		entries, err := os.ReadDir(filepath.Join(root, filepath.FromSlash(dir)))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, nil
			}
			return nil, err
		}
		var out []string
		for _, e := range entries {
			if e.IsDir() {
				out = append(out, e.Name())
			}
		}
		return out, nil
	}
}

// treeDirs lists directories of the tree at oid.
func treeDirs(repo *git.Repository, oid plumbing.Hash) subdirLister {
	return func(dir string) ([]string, error) {
		entries, err := repo.ReadTree(git.ReadTreeOptions{OID: oid, Path: dir})
		if err != nil {
			if errors.Is(err, git.ErrPathNotFound) || errors.Is(err, git.ErrNotDirectory) {
				return nil, nil
			}
			return nil, err
		}
		var out []string
		for _, e := range entries {
			if e.Type == git.EntryTree {
				out = append(out, e.Name)
			}
		}
		return out, nil
	}
}
