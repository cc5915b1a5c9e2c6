package testutils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var signature = object.Signature{Name: "Test User", Email: "test@example.com", When: time.Unix(1700000000, 0).UTC()}

// GitRepo is a throwaway repository with a worktree, initialized on branch main.
type GitRepo struct {
	t        *testing.T
	Dir      string
	Repo     *git.Repository
	Worktree *git.Worktree
}

// SetupTestGitRepo initializes a repository with a worktree in a temporary directory.
func SetupTestGitRepo(t *testing.T) *GitRepo {
	t.Helper()
	return SetupTestGitRepoAt(t, filepath.Join(t.TempDir(), "repo"))
}

// SetupTestGitRepoAt initializes a repository with a worktree at dir.
func SetupTestGitRepoAt(t *testing.T, dir string) *GitRepo {
	t.Helper()
	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName("main")},
	})
	if err != nil {
		t.Fatalf("failed to initialize git repo: %v", err)
	}
	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	return &GitRepo{t: t, Dir: dir, Repo: repo, Worktree: w}
}

// WriteFiles writes files (relative path -> content) into the worktree.
func (g *GitRepo) WriteFiles(files map[string]string) *GitRepo {
	g.t.Helper()
	for rel, content := range files {
		p := filepath.Join(g.Dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			g.t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			g.t.Fatalf("write %s: %v", rel, err)
		}
	}
	return g
}

// Remove deletes a path from the worktree.
func (g *GitRepo) Remove(rel string) *GitRepo {
	g.t.Helper()
	if err := os.RemoveAll(filepath.Join(g.Dir, filepath.FromSlash(rel))); err != nil {
		g.t.Fatalf("remove %s: %v", rel, err)
	}
	return g
}

// Commit stages every change in the worktree and commits it.
func (g *GitRepo) Commit(msg string) plumbing.Hash {
	g.t.Helper()
	if err := g.Worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		g.t.Fatalf("add: %v", err)
	}
	sig := signature
	h, err := g.Worktree.Commit(msg, &git.CommitOptions{All: true, Author: &sig, Committer: &sig, AllowEmptyCommits: true})
	if err != nil {
		g.t.Fatalf("commit: %v", err)
	}
	return h
}

// CreateBranch creates and checks out a new branch at HEAD.
func (g *GitRepo) CreateBranch(name string) *GitRepo {
	g.t.Helper()
	if err := g.Worktree.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(name), Create: true}); err != nil {
		g.t.Fatalf("create branch %s: %v", name, err)
	}
	return g
}

// Checkout switches to an existing branch.
func (g *GitRepo) Checkout(name string) *GitRepo {
	g.t.Helper()
	if err := g.Worktree.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(name)}); err != nil {
		g.t.Fatalf("checkout %s: %v", name, err)
	}
	return g
}

// Detach checks out a commit, leaving HEAD detached.
func (g *GitRepo) Detach(h plumbing.Hash) *GitRepo {
	g.t.Helper()
	if err := g.Worktree.Checkout(&git.CheckoutOptions{Hash: h}); err != nil {
		g.t.Fatalf("detach at %s: %v", h, err)
	}
	return g
}

// Tag creates a lightweight tag at HEAD, or an annotated one when msg is non-empty.
func (g *GitRepo) Tag(name, msg string) plumbing.Hash {
	g.t.Helper()
	head, err := g.Repo.Head()
	if err != nil {
		g.t.Fatalf("head: %v", err)
	}
	var opts *git.CreateTagOptions
	if msg != "" {
		sig := signature
		opts = &git.CreateTagOptions{Tagger: &sig, Message: msg}
	}
	ref, err := g.Repo.CreateTag(name, head.Hash(), opts)
	if err != nil {
		g.t.Fatalf("tag %s: %v", name, err)
	}
	return ref.Hash()
}

// AddRemote registers a remote with the given URL.
func (g *GitRepo) AddRemote(name, url string) *GitRepo {
	g.t.Helper()
	if _, err := g.Repo.CreateRemote(&gitconfig.RemoteConfig{Name: name, URLs: []string{url}}); err != nil {
		g.t.Fatalf("add remote %s: %v", name, err)
	}
	return g
}

// SetRef writes a reference directly, e.g. a remote-tracking branch.
func (g *GitRepo) SetRef(name string, h plumbing.Hash) *GitRepo {
	g.t.Helper()
	if err := g.Repo.Storer.SetReference(plumbing.NewHashReference(plumbing.ReferenceName(name), h)); err != nil {
		g.t.Fatalf("set ref %s: %v", name, err)
	}
	return g
}

// GitDir is the repository's .git directory.
func (g *GitRepo) GitDir() string { return filepath.Join(g.Dir, ".git") }
