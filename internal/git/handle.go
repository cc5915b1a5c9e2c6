package git

import "fmt"

// Kind distinguishes the three shapes a content repository can take.
type Kind int

const (
	// RemoteManaged is a bare clone of a remote URL kept in the cache directory.
	RemoteManaged Kind = iota
	// LocalBare is a local repository without a working tree.
	LocalBare
	// LocalWorktree is a local checkout with a .git directory.
	LocalWorktree
)

func (k Kind) String() string {
	switch k {
	case RemoteManaged:
		return "remote-managed"
	case LocalBare:
		return "local-bare"
	case LocalWorktree:
		return "local-worktree"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// DefaultRemote is the remote name of managed clones.
const DefaultRemote = "origin"

// Handle identifies a repository on disk.
type Handle struct {
	Kind Kind
	// Dir is the repository directory: the git dir for bare repositories,
	// the worktree root otherwise.
	Dir string
	// URL is the credential-free URL of a managed clone, before any .git suffix
	// is added for transport. Empty for local repositories.
	URL string
}

// NewRemoteManaged returns the handle of a cached bare clone of url.
func NewRemoteManaged(dir, url string) Handle { return Handle{Kind: RemoteManaged, Dir: dir, URL: url} }

// NewLocalBare returns the handle of a local bare repository.
func NewLocalBare(dir string) Handle { return Handle{Kind: LocalBare, Dir: dir} }

// NewLocalWorktree returns the handle of a local checkout.
func NewLocalWorktree(dir string) Handle { return Handle{Kind: LocalWorktree, Dir: dir} }

// IsBare reports whether the repository has no working tree to read from.
func (h Handle) IsBare() bool {
	switch h.Kind {
	case RemoteManaged, LocalBare:
		return true
	case LocalWorktree:
		return false
	default:
		panic(fmt.Sprintf("unhandled repository kind %v", h.Kind))
	}
}

// IsManaged reports whether the repository is a cached clone of a remote URL.
func (h Handle) IsManaged() bool { return h.Kind == RemoteManaged }

// RemoteName returns the remote to read remote-tracking branches from. Managed
// clones always use origin; local repositories use the configured remote.
func (h Handle) RemoteName(configured string) string {
	if h.Kind == RemoteManaged || configured == "" {
		return DefaultRemote
	}
	return configured
}
