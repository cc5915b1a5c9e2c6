package git

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var (
	// ErrPathNotFound is returned by ReadTree when the path does not exist in the tree.
	ErrPathNotFound = errors.New("path not found")
	// ErrNotDirectory is returned by ReadTree when the path names a file.
	ErrNotDirectory = errors.New("path is not a directory")
)

// EntryType distinguishes tree entries that can be collected from.
type EntryType int

const (
	EntryBlob EntryType = iota
	EntryTree
	EntryOther // symlinks, submodules
)

// TreeEntry is one entry of a tree object.
type TreeEntry struct {
	Name string
	Type EntryType
	// Mode is the POSIX file mode of a blob. It is zero for non-regular files,
	// which callers skip.
	Mode fs.FileMode
	OID  plumbing.Hash
}

// FileMode maps a git file mode to the POSIX mode of a materialized file.
// Modes other than regular and executable files map to 0.
func FileMode(m filemode.FileMode) fs.FileMode {
	switch m {
	case filemode.Regular, filemode.Deprecated:
		return 0o644
	case filemode.Executable:
		return 0o755
	default:
		return 0
	}
}

// ReadTreeOptions configures ReadTree.
type ReadTreeOptions struct {
	// OID is a commit, annotated tag or tree id.
	OID plumbing.Hash
	// Path selects a subtree; empty means the root tree.
	Path string
}

// ReadTree returns the entries of the tree at OID/Path. Tags and commits are
// peeled to their tree.
func (r *Repository) ReadTree(opts ReadTreeOptions) ([]TreeEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tree, err := r.peelToTree(opts.OID)
	if err != nil {
		return nil, err
	}
	if opts.Path != "" {
		entry, err := tree.FindEntry(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, opts.Path)
		}
		if entry.Mode != filemode.Dir {
			return nil, fmt.Errorf("%w: %s", ErrNotDirectory, opts.Path)
		}
		if tree, err = r.repo.TreeObject(entry.Hash); err != nil {
			return nil, err
		}
	}
	return convertEntries(tree.Entries), nil
}

func (r *Repository) peelToTree(h plumbing.Hash) (*object.Tree, error) {
	obj, err := r.repo.Object(plumbing.AnyObject, h)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", h, err)
	}
	for {
		switch o := obj.(type) {
		case *object.Tree:
			return o, nil
		case *object.Commit:
			return o.Tree()
		case *object.Tag:
			if obj, err = o.Object(); err != nil {
				return nil, fmt.Errorf("peel tag %s: %w", o.Name, err)
			}
		default:
			return nil, fmt.Errorf("object %s is a %s, not a tree-ish", h, obj.Type())
		}
	}
}

func convertEntries(entries []object.TreeEntry) []TreeEntry {
	out := make([]TreeEntry, 0, len(entries))
	for _, e := range entries {
		te := TreeEntry{Name: e.Name, OID: e.Hash}
		switch {
		case e.Mode == filemode.Dir:
			te.Type = EntryTree
		case e.Mode.IsFile() && e.Mode != filemode.Symlink:
			te.Type = EntryBlob
			te.Mode = FileMode(e.Mode)
		default:
			te.Type = EntryOther
		}
		out = append(out, te)
	}
	return out
}

// ReadBlobOptions configures ReadBlob.
type ReadBlobOptions struct {
	OID plumbing.Hash
}

// ReadBlob returns the raw contents of a blob.
func (r *Repository) ReadBlob(opts ReadBlobOptions) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	blob, err := r.repo.BlobObject(opts.OID)
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", opts.OID, err)
	}
	rd, err := blob.Reader()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rd.Close() }()
	return io.ReadAll(rd)
}
