package git

import (
	"context"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docaggregator/internal/testutil/testutils"
)

func newFixture(t *testing.T) (*testutils.GitRepo, plumbing.Hash) {
	t.Helper()
	fx := testutils.SetupTestGitRepo(t).WriteFiles(map[string]string{
		"README.md":                    "# readme",
		"docs/antora.yml":              "name: test\nversion: '1.0'\n",
		"docs/modules/ROOT/index.adoc": "= Index",
		"docs/run.sh":                  "#!/bin/sh",
	})
	return fx, fx.Commit("initial")
}

func TestRepository_BranchesAndTags(t *testing.T) {
	fx, _ := newFixture(t)
	fx.CreateBranch("v2.x").Commit("v2")
	fx.Tag("v2.0", "")
	fx.Tag("v2.1", "release 2.1")
	fx.Checkout("main")

	repo, err := Open(NewLocalWorktree(fx.Dir))
	require.NoError(t, err)

	current, err := repo.CurrentBranch(CurrentBranchOptions{Remote: "origin"})
	require.NoError(t, err)
	assert.Equal(t, "main", current)

	branches, err := repo.ListBranches(ListBranchesOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "v2.x"}, branches)

	tags, err := repo.ListTags(ListTagsOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"v2.0", "v2.1"}, tags)

	remoteBranches, err := repo.ListBranches(ListBranchesOptions{Remote: "origin"})
	require.NoError(t, err)
	assert.Empty(t, remoteBranches)
}

func TestRepository_CurrentBranchDetached(t *testing.T) {
	fx, first := newFixture(t)
	fx.WriteFiles(map[string]string{"docs/more.adoc": "more"}).Commit("second")
	fx.Detach(first)

	repo, err := Open(NewLocalWorktree(fx.Dir))
	require.NoError(t, err)
	current, err := repo.CurrentBranch(CurrentBranchOptions{})
	require.NoError(t, err)
	assert.Empty(t, current)

	head, err := repo.ResolveHead()
	require.NoError(t, err)
	assert.Equal(t, first, head)
}

func TestRepository_CurrentBranchPrefersRemoteHEADWhenBare(t *testing.T) {
	fx, h := newFixture(t)
	fx.SetRef("refs/remotes/origin/trunk", h)
	require.NoError(t, fx.Repo.Storer.SetReference(
		plumbing.NewSymbolicReference("refs/remotes/origin/HEAD", "refs/remotes/origin/trunk")))

	repo, err := Open(NewLocalBare(fx.GitDir()))
	require.NoError(t, err)
	current, err := repo.CurrentBranch(CurrentBranchOptions{Remote: "origin"})
	require.NoError(t, err)
	assert.Equal(t, "trunk", current)

	remoteBranches, err := repo.ListBranches(ListBranchesOptions{Remote: "origin"})
	require.NoError(t, err)
	assert.Equal(t, []string{"trunk"}, remoteBranches, "remote HEAD is not a branch")
}

func TestRepository_ReadTreeAndBlob(t *testing.T) {
	fx, commit := newFixture(t)
	tagHash := fx.Tag("v1.0", "annotated")

	repo, err := Open(NewLocalWorktree(fx.Dir))
	require.NoError(t, err)

	for _, oid := range []plumbing.Hash{commit, tagHash} {
		entries, err := repo.ReadTree(ReadTreeOptions{OID: oid, Path: "docs"})
		require.NoError(t, err)
		byName := map[string]TreeEntry{}
		for _, e := range entries {
			byName[e.Name] = e
		}
		require.Contains(t, byName, "antora.yml")
		assert.Equal(t, EntryBlob, byName["antora.yml"].Type)
		assert.Equal(t, fs.FileMode(0o644), byName["antora.yml"].Mode)
		assert.Equal(t, EntryTree, byName["modules"].Type)

		blob, err := repo.ReadBlob(ReadBlobOptions{OID: byName["antora.yml"].OID})
		require.NoError(t, err)
		assert.Equal(t, "name: test\nversion: '1.0'\n", string(blob))
	}

	_, err = repo.ReadTree(ReadTreeOptions{OID: commit, Path: "missing"})
	assert.ErrorIs(t, err, ErrPathNotFound)
	_, err = repo.ReadTree(ReadTreeOptions{OID: commit, Path: "README.md"})
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestRepository_ResolveRef(t *testing.T) {
	fx, commit := newFixture(t)
	tagHash := fx.Tag("v1.0", "annotated")

	repo, err := Open(NewLocalWorktree(fx.Dir))
	require.NoError(t, err)

	h, err := repo.ResolveRef(ResolveRefOptions{Ref: "refs/heads/main"})
	require.NoError(t, err)
	assert.Equal(t, commit, h)

	h, err = repo.ResolveRef(ResolveRefOptions{Ref: "refs/tags/v1.0"})
	require.NoError(t, err)
	assert.Equal(t, tagHash, h)
	assert.NotEqual(t, commit, h)

	_, err = repo.ResolveRef(ResolveRefOptions{Ref: "refs/heads/nope"})
	assert.Error(t, err)
}

func TestClone_FetchAndPrivateStatus(t *testing.T) {
	testutils.UseInProcessFileTransport()
	upstream, _ := newFixture(t)
	upstream.Tag("v1.0", "")

	dir := filepath.Join(t.TempDir(), CacheFolderName(upstream.FileURL()))
	repo, err := Clone(context.Background(), CloneOptions{Dir: dir, URL: upstream.FileURL(), Tags: true})
	require.NoError(t, err)
	assert.True(t, repo.Handle.IsManaged())

	branches, err := repo.ListBranches(ListBranchesOptions{Remote: DefaultRemote})
	require.NoError(t, err)
	assert.Equal(t, []string{"main"}, branches)
	tags, err := repo.ListTags(ListTagsOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"v1.0"}, tags)

	status, err := repo.PrivateStatus()
	require.NoError(t, err)
	assert.Empty(t, status)
	require.NoError(t, repo.SetPrivateStatus("auth-required"))

	reopened, err := Open(NewRemoteManaged(dir, upstream.FileURL()))
	require.NoError(t, err)
	status, err = reopened.PrivateStatus()
	require.NoError(t, err)
	assert.Equal(t, "auth-required", status)
	u, err := reopened.RemoteURL(DefaultRemote)
	require.NoError(t, err)
	assert.Equal(t, upstream.FileURL(), u)

	upstream.CreateBranch("v2.x").Commit("v2")
	require.NoError(t, reopened.Fetch(context.Background(), FetchOptions{Tags: true}))
	branches, err = reopened.ListBranches(ListBranchesOptions{Remote: DefaultRemote})
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "v2.x"}, branches)

	// nothing new upstream
	require.NoError(t, reopened.Fetch(context.Background(), FetchOptions{Tags: true}))

	require.NoError(t, reopened.SetPrivateStatus(""))
	status, err = reopened.PrivateStatus()
	require.NoError(t, err)
	assert.Empty(t, status)
}
