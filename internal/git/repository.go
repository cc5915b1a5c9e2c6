package git

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

const privateOption = "private"

// Repository is an opened repository plus the handle it was opened from.
// Object reads are serialized because go-git's filesystem storage caches are
// not safe for concurrent use.
type Repository struct {
	Handle Handle

	mu   sync.Mutex
	repo *gogit.Repository
}

// Open opens the repository identified by h.
func Open(h Handle) (*Repository, error) {
	r, err := gogit.PlainOpen(h.Dir)
	if err != nil {
		return nil, err
	}
	return &Repository{Handle: h, repo: r}, nil
}

// Go exposes the underlying go-git repository.
func (r *Repository) Go() *gogit.Repository { return r.repo }

// ResolveHead resolves HEAD to a commit id, failing for empty or broken repositories.
func (r *Repository) ResolveHead() (plumbing.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, err := r.repo.Head()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return ref.Hash(), nil
}

// CurrentBranchOptions configures CurrentBranch.
type CurrentBranchOptions struct {
	// Remote is consulted for its symbolic HEAD in bare repositories.
	Remote string
}

// CurrentBranch returns the short name of the branch HEAD points at, or "" when
// HEAD is detached. Bare repositories prefer refs/remotes/<remote>/HEAD since a
// mirror's own HEAD may not follow the upstream default branch.
func (r *Repository) CurrentBranch(opts CurrentBranchOptions) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Handle.IsBare() && opts.Remote != "" {
		name := plumbing.NewRemoteHEADReferenceName(opts.Remote)
		if ref, err := r.repo.Storer.Reference(name); err == nil {
			if target := symbolicTarget(ref); target != "" {
				return target, nil
			}
		}
	}
	ref, err := r.repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return "", err
	}
	return symbolicTarget(ref), nil
}

func symbolicTarget(ref *plumbing.Reference) string {
	if ref.Type() != plumbing.SymbolicReference {
		return ""
	}
	target := ref.Target().String()
	if !strings.HasPrefix(target, "refs/") {
		return ""
	}
	return ShortenRefName(target)
}

// ListBranchesOptions configures ListBranches.
type ListBranchesOptions struct {
	// Remote selects remote-tracking branches of that remote; empty lists local branches.
	Remote string
}

// ListBranches returns sorted short branch names. The symbolic HEAD of a
// remote is not a branch and is omitted.
func (r *Repository) ListBranches(opts ListBranchesOptions) ([]string, error) {
	prefix := "refs/heads/"
	if opts.Remote != "" {
		prefix = "refs/remotes/" + opts.Remote + "/"
	}
	names, err := r.listRefs(prefix)
	if err != nil {
		return nil, err
	}
	out := names[:0]
	for _, n := range names {
		if n != "HEAD" {
			out = append(out, n)
		}
	}
	return out, nil
}

// ListTagsOptions configures ListTags.
type ListTagsOptions struct{}

// ListTags returns sorted tag names.
func (r *Repository) ListTags(ListTagsOptions) ([]string, error) {
	return r.listRefs("refs/tags/")
}

func (r *Repository) listRefs(prefix string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	iter, err := r.repo.Storer.IterReferences()
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if n := ref.Name().String(); strings.HasPrefix(n, prefix) {
			names = append(names, n[len(prefix):])
		}
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// ResolveRefOptions configures ResolveRef.
type ResolveRefOptions struct {
	// Ref is a full reference name such as refs/heads/main or HEAD.
	Ref string
}

// ResolveRef follows symbolic references and returns the object id Ref points
// at. Annotated tags resolve to the tag object, not the commit.
func (r *Repository) ResolveRef(opts ResolveRefOptions) (plumbing.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, err := r.repo.Reference(plumbing.ReferenceName(opts.Ref), true)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve %s: %w", opts.Ref, err)
	}
	return ref.Hash(), nil
}

// PrivateStatus reads the persisted auth status from remote.origin.private.
func (r *Repository) PrivateStatus() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, err := r.repo.Config()
	if err != nil {
		return "", err
	}
	return cfg.Raw.Section("remote").Subsection(DefaultRemote).Option(privateOption), nil
}

// SetPrivateStatus persists the auth status in remote.origin.private, removing
// the option when status is empty.
func (r *Repository) SetPrivateStatus(status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, err := r.repo.Config()
	if err != nil {
		return err
	}
	sub := cfg.Raw.Section("remote").Subsection(DefaultRemote)
	if status == "" {
		sub.RemoveOption(privateOption)
	} else {
		sub.SetOption(privateOption, status)
	}
	return r.repo.SetConfig(cfg)
}

// RemoteURL returns the first configured URL of the named remote, or "" if the
// remote does not exist.
func (r *Repository) RemoteURL(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, err := r.repo.Config()
	if err != nil {
		return "", err
	}
	rc, ok := cfg.Remotes[name]
	if !ok || len(rc.URLs) == 0 {
		return "", nil
	}
	return rc.URLs[0], nil
}
