package git

import (
	"context"
	"errors"
	"fmt"
	"io"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// CloneOptions configures a bare clone into the cache directory.
type CloneOptions struct {
	Dir   string
	URL   string
	Auth  transport.AuthMethod
	Depth int
	// Tags fetches all tags; otherwise no tags are transferred.
	Tags     bool
	Progress io.Writer
}

// Clone creates a bare clone of opts.URL at opts.Dir with origin as its remote.
func Clone(ctx context.Context, opts CloneOptions) (*Repository, error) {
	tags := gogit.NoTags
	if opts.Tags {
		tags = gogit.AllTags
	}
	r, err := gogit.PlainCloneContext(ctx, opts.Dir, true, &gogit.CloneOptions{
		URL:        opts.URL,
		Auth:       opts.Auth,
		RemoteName: DefaultRemote,
		Depth:      opts.Depth,
		Tags:       tags,
		Progress:   opts.Progress,
	})
	if err != nil {
		return nil, err
	}
	return &Repository{Handle: NewRemoteManaged(opts.Dir, opts.URL), repo: r}, nil
}

// FetchOptions configures a fetch into a managed clone.
type FetchOptions struct {
	Auth  transport.AuthMethod
	Depth int
	// Tags fetches and prunes tags as well as branches.
	Tags     bool
	Progress io.Writer
}

// Fetch updates the remote-tracking branches of origin, pruning branches (and
// tags when opts.Tags is set) that no longer exist upstream. An up-to-date
// repository is not an error.
func (r *Repository) Fetch(ctx context.Context, opts FetchOptions) error {
	refSpecs := []gitconfig.RefSpec{
		gitconfig.RefSpec(fmt.Sprintf(gitconfig.DefaultFetchRefSpec, DefaultRemote)),
	}
	tags := gogit.NoTags
	if opts.Tags {
		refSpecs = append(refSpecs, "+refs/tags/*:refs/tags/*")
		tags = gogit.AllTags
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.repo.FetchContext(ctx, &gogit.FetchOptions{
		RemoteName: DefaultRemote,
		RefSpecs:   refSpecs,
		Depth:      opts.Depth,
		Auth:       opts.Auth,
		Progress:   opts.Progress,
		Tags:       tags,
		Force:      true,
		Prune:      true,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return err
	}
	return nil
}
