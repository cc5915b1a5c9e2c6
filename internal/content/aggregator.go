// Package content collects the files of every configured content source into
// component versions.
//
// Sources are grouped by repository URL so each repository is loaded once.
// For every source the matching branches and tags are selected, and for every
// reference and start path the files are read, the component descriptor is
// extracted and provenance is attached to each file. The resulting batches
// are merged by component version.
package content

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docaggregator/internal/auth"
	"git.home.luguber.info/inful/docaggregator/internal/config"
	"git.home.luguber.info/inful/docaggregator/internal/credentials"
	foundationerrors "git.home.luguber.info/inful/docaggregator/internal/foundation/errors"
	"git.home.luguber.info/inful/docaggregator/internal/git"
	"git.home.luguber.info/inful/docaggregator/internal/logfields"
	"git.home.luguber.info/inful/docaggregator/internal/metrics"
	"git.home.luguber.info/inful/docaggregator/internal/progress"
	"git.home.luguber.info/inful/docaggregator/internal/repository"
	"git.home.luguber.info/inful/docaggregator/internal/retry"
)

// Aggregator runs content aggregation for a playbook.
type Aggregator struct {
	playbook    *config.Playbook
	store       credentials.Store
	auth        *auth.Manager
	recorder    metrics.Recorder
	logger      *slog.Logger
	newReporter func(labels []string) *progress.Reporter
	depth       int
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithCredentialStore replaces the git credential-store file reader.
func WithCredentialStore(s credentials.Store) Option {
	return func(a *Aggregator) { a.store = s }
}

// WithAuthManager replaces the manager turning repository credentials into
// transport auth, e.g. one built with auth.NewManager and extra providers.
func WithAuthManager(m *auth.Manager) Option {
	return func(a *Aggregator) { a.auth = m }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(a *Aggregator) { a.recorder = r }
}

// WithLogger sets the logger. A run id is attached to every record.
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) { a.logger = l }
}

// WithProgressOutput draws clone and fetch progress on out when it is a
// terminal. Progress is off when the playbook asks for a quiet or silent run.
func WithProgressOutput(out *os.File) Option {
	return func(a *Aggregator) {
		a.newReporter = func(labels []string) *progress.Reporter { return progress.New(out, labels) }
	}
}

// WithCloneDepth overrides the history depth of clones and fetches (default 1).
func WithCloneDepth(depth int) Option {
	return func(a *Aggregator) { a.depth = depth }
}

// New returns an aggregator for pb. The playbook is expected to have been
// loaded with config.Load or config.Parse so that defaults are applied.
func New(pb *config.Playbook, opts ...Option) *Aggregator {
	a := &Aggregator{
		playbook: pb,
		store:    credentials.NewFileStore(),
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		depth:    1,
	}
	WithProgressOutput(os.Stdout)(a)
	for _, o := range opts {
		o(a)
	}
	return a
}

// run holds the state shared by the units of work of one Aggregate call.
type run struct {
	*Aggregator
	log      *slog.Logger
	loader   *repository.Loader
	startDir string
	fetch    bool
}

// Aggregate loads every content source and returns the merged component
// versions. The first failure aborts the run.
func (a *Aggregator) Aggregate(ctx context.Context) ([]*ComponentVersion, error) {
	start := time.Now()
	log := a.logger.With(logfields.RunID(uuid.NewString()))
	aggregate, err := a.aggregate(ctx, log)
	elapsed := time.Since(start)
	a.recorder.ObserveRunDuration(elapsed)
	if err != nil {
		a.recorder.IncRunOutcome(metrics.OutcomeFailed)
		log.Debug("Content aggregation failed", logfields.Error(err))
		return nil, err
	}
	a.recorder.IncRunOutcome(metrics.OutcomeSuccess)
	a.recorder.SetComponentVersions(len(aggregate))
	log.Info("Content aggregated",
		logfields.Count(len(aggregate)),
		logfields.DurationMS(float64(elapsed.Microseconds())/1000))
	return aggregate, nil
}

func (a *Aggregator) aggregate(ctx context.Context, log *slog.Logger) ([]*ComponentVersion, error) {
	pb := a.playbook
	cwd, err := os.Getwd()
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "cannot determine working directory").Build()
	}
	startDir := pb.Dir
	if startDir == "" {
		startDir = cwd
	}
	if startDir, err = filepath.Abs(startDir); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "cannot resolve playbook directory").Build()
	}

	cacheDir := config.ResolveCacheDir(pb, cwd)
	if err := os.MkdirAll(config.ContentCacheDir(cacheDir), 0o750); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem,
			"Failed to create content cache directory: "+config.ContentCacheDir(cacheDir)).Build()
	}
	if err := a.store.Configure(pb.Git.Credentials, startDir); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "cannot read git credentials: "+err.Error()).Build()
	}

	groups := GroupSources(pb.Content.Sources)
	var reporter *progress.Reporter
	if !pb.Runtime.Quiet && !pb.Runtime.Silent && a.newReporter != nil {
		reporter = a.newReporter(progressLabels(groups))
	}
	loaderOpts := []repository.Option{
		repository.WithCredentialStore(a.store),
		repository.WithRetryPolicy(retry.FromConfig(pb.Git.Retry)),
		repository.WithRecorder(a.recorder),
		repository.WithProgress(reporter),
		repository.WithGitSuffix(pb.Git.EnsureGitSuffixEnabled()),
		repository.WithDepth(a.depth),
	}
	if a.auth != nil {
		loaderOpts = append(loaderOpts, repository.WithAuthManager(a.auth))
	}
	r := &run{
		Aggregator: a,
		log:        log,
		startDir:   startDir,
		fetch:      pb.Runtime.Fetch,
		loader:     repository.NewLoader(cacheDir, loaderOpts...),
	}
	log.Debug("Aggregating content",
		logfields.Count(len(groups)),
		logfields.Path(config.ContentCacheDir(cacheDir)))

	results := make([][]*ComponentVersion, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	for i, grp := range groups {
		g.Go(func() error {
			batches, err := r.collectGroup(gctx, grp)
			results[i] = batches
			return err
		})
	}
	if err := g.Wait(); err != nil {
		reporter.Terminate()
		return nil, err
	}
	return BuildAggregate(flatten(results)), nil
}

// progressLabels are the display URLs of the remote repositories in the run.
func progressLabels(groups []SourceGroup) []string {
	var labels []string
	for _, grp := range groups {
		if git.IsRemoteURL(grp.URL) {
			labels = append(labels, git.ParseRemoteURL(grp.URL).DisplayURL)
		}
	}
	return labels
}

func flatten(nested [][]*ComponentVersion) []*ComponentVersion {
	var out []*ComponentVersion
	for _, batches := range nested {
		out = append(out, batches...)
	}
	return out
}

func (r *run) collectGroup(ctx context.Context, grp SourceGroup) ([]*ComponentVersion, error) {
	repo, authStatus, err := r.loader.Load(ctx, grp.URL, repository.LoadOptions{
		FetchTags: config.TagsRequested(grp.Sources),
		Fetch:     r.fetch,
		StartDir:  r.startDir,
	})
	if err != nil {
		return nil, err
	}
	results := make([][]*ComponentVersion, len(grp.Sources))
	g, ctx := errgroup.WithContext(ctx)
	for i, src := range grp.Sources {
		g.Go(func() error {
			batches, err := r.collectSource(ctx, repo, authStatus, src)
			results[i] = batches
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return flatten(results), nil
}

// repoLocation names a repository in messages: its URL when managed, its
// directory otherwise.
func repoLocation(repo *git.Repository) string {
	if repo.Handle.URL != "" {
		return repo.Handle.URL
	}
	return repo.Handle.Dir
}

func (r *run) collectSource(ctx context.Context, repo *git.Repository, authStatus string, src config.Source) ([]*ComponentVersion, error) {
	remote := repo.Handle.RemoteName(src.Remote)
	originURL := repo.Handle.URL
	if originURL == "" {
		u, err := repo.RemoteURL(remote)
		if err != nil {
			return nil, foundationerrors.WrapError(err, foundationerrors.CategoryGit,
				"cannot read remote "+remote+" of "+repo.Handle.Dir).Build()
		}
		originURL = git.CleanRemoteURL(u)
	}

	refs, err := SelectReferences(repo, src, remote)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryGit,
			"cannot select references in "+repoLocation(repo)+": "+err.Error()).Build()
	}
	var branches, tags int
	for _, ref := range refs {
		if ref.Type == RefTag {
			tags++
		} else {
			branches++
		}
	}
	r.recorder.AddReferences(string(RefBranch), branches)
	r.recorder.AddReferences(string(RefTag), tags)
	if len(refs) == 0 {
		r.log.Warn("No references matched", logfields.URL(repoLocation(repo)))
	}

	results := make([][]*ComponentVersion, len(refs))
	g, ctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		g.Go(func() error {
			batches, err := r.collectReference(ctx, repo, authStatus, originURL, src, ref)
			results[i] = batches
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return flatten(results), nil
}

func (r *run) collectReference(
	ctx context.Context,
	repo *git.Repository,
	authStatus, originURL string,
	src config.Source,
	ref Reference,
) ([]*ComponentVersion, error) {
	location := repoLocation(repo)
	worktree := ""
	if ref.IsHead() && !repo.Handle.IsBare() {
		worktree = repo.Handle.Dir
	} else {
		oid, err := repo.ResolveRef(git.ResolveRefOptions{Ref: "refs/" + ref.FullName})
		if err != nil {
			return nil, annotate(err, location, ref, false, "")
		}
		ref.OID = oid
	}

	startPaths := []string{cleanStartPath(src.StartPath)}
	if src.HasStartPaths() {
		patterns := make([]string, 0, len(src.StartPaths))
		for _, p := range src.StartPaths {
			patterns = append(patterns, cleanStartPath(p))
		}
		ls := treeDirs(repo, ref.OID)
		if worktree != "" {
			ls = worktreeDirs(worktree)
		}
		var err error
		if startPaths, err = resolveStartPaths(patterns, ls); err != nil {
			return nil, annotate(err, location, ref, worktree != "", "")
		}
		if len(startPaths) == 0 {
			return nil, foundationerrors.ConfigError("no start paths found in "+location+" ("+refInfo(ref, worktree != "")+")").
				WithCause(ErrNoStartPaths).
				WithContext("repository", location).
				Build()
		}
	}

	results := make([]*ComponentVersion, len(startPaths))
	g, ctx := errgroup.WithContext(ctx)
	for i, sp := range startPaths {
		g.Go(func() error {
			cv, err := r.collectStartPath(ctx, repo, authStatus, originURL, src, ref, worktree, sp)
			if err != nil {
				return annotate(err, location, ref, worktree != "", sp)
			}
			results[i] = cv
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *run) collectStartPath(
	ctx context.Context,
	repo *git.Repository,
	authStatus, originURL string,
	src config.Source,
	ref Reference,
	worktree, startPath string,
) (*ComponentVersion, error) {
	var (
		files []*File
		err   error
	)
	if worktree != "" {
		files, err = readWorktree(ctx, worktree, startPath)
	} else {
		files, err = readGitTree(ctx, repo, ref.OID, startPath)
	}
	if err != nil {
		return nil, err
	}
	cv, files, err := loadDescriptor(files, ref)
	if err != nil {
		return nil, err
	}
	origin := computeOrigin(originURL, authStatus, ref, startPath, worktree, src.EditURL)
	for _, f := range files {
		assignFileProperties(f, origin)
	}
	cv.Files = files
	r.recorder.ObserveBatchFiles(len(files))
	r.log.Debug("Collected component version",
		logfields.Component(cv.Name),
		logfields.Version(cv.Version),
		logfields.Ref(ref.ShortName),
		logfields.RefType(string(ref.Type)),
		logfields.StartPath(startPath),
		logfields.Count(len(files)))
	return cv, nil
}
