// Package repository makes content repositories available locally: remote
// sources are cloned into (or fetched within) the content cache, local sources
// are opened in place.
package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/docaggregator/internal/auth"
	"git.home.luguber.info/inful/docaggregator/internal/config"
	"git.home.luguber.info/inful/docaggregator/internal/credentials"
	foundationerrors "git.home.luguber.info/inful/docaggregator/internal/foundation/errors"
	"git.home.luguber.info/inful/docaggregator/internal/git"
	"git.home.luguber.info/inful/docaggregator/internal/logfields"
	"git.home.luguber.info/inful/docaggregator/internal/metrics"
	"git.home.luguber.info/inful/docaggregator/internal/progress"
	"git.home.luguber.info/inful/docaggregator/internal/retry"
)

// ValidStateFile marks a cached clone as complete. Only its presence matters.
const ValidStateFile = "valid"

// Auth status values persisted in remote.origin.private.
const (
	AuthEmbedded = "auth-embedded"
	AuthRequired = "auth-required"
)

// Loader resolves content source URLs to opened repositories.
type Loader struct {
	cacheDir        string
	store           credentials.Store
	auth            *auth.Manager
	policy          retry.Policy
	recorder        metrics.Recorder
	progress        *progress.Reporter
	ensureGitSuffix bool
	depth           int
}

// Option configures a Loader.
type Option func(*Loader)

// WithCredentialStore sets the store consulted for URLs without embedded credentials.
func WithCredentialStore(s credentials.Store) Option { return func(l *Loader) { l.store = s } }

// WithAuthManager overrides the manager turning credentials into transport auth.
func WithAuthManager(m *auth.Manager) Option { return func(l *Loader) { l.auth = m } }

// WithRetryPolicy sets the retry policy for clone and fetch.
func WithRetryPolicy(p retry.Policy) Option { return func(l *Loader) { l.policy = p } }

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option { return func(l *Loader) { l.recorder = r } }

// WithProgress draws clone and fetch progress on r. A nil reporter disables it.
func WithProgress(r *progress.Reporter) Option { return func(l *Loader) { l.progress = r } }

// WithGitSuffix controls whether ".git" is appended to remote HTTP(S) URLs.
func WithGitSuffix(enabled bool) Option { return func(l *Loader) { l.ensureGitSuffix = enabled } }

// WithDepth sets the history depth of clones and fetches. Zero transfers the
// full history.
func WithDepth(depth int) Option { return func(l *Loader) { l.depth = depth } }

// NewLoader returns a loader caching remote repositories below
// <cacheDir>/content.
func NewLoader(cacheDir string, opts ...Option) *Loader {
	l := &Loader{
		cacheDir:        cacheDir,
		store:           credentials.NewFileStore(),
		auth:            auth.DefaultManager,
		policy:          retry.None,
		recorder:        metrics.NoopRecorder{},
		ensureGitSuffix: true,
		depth:           1,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// LoadOptions configures a single Load call.
type LoadOptions struct {
	// FetchTags transfers tags; only needed when a source selects tags.
	FetchTags bool
	// Fetch updates an existing cached clone instead of reusing it as is.
	Fetch bool
	// StartDir resolves relative local paths.
	StartDir string
}

// Load returns the repository for url together with its auth status: one of
// AuthEmbedded, AuthRequired or "" for public or local repositories.
func (l *Loader) Load(ctx context.Context, url string, opts LoadOptions) (*git.Repository, string, error) {
	if git.IsRemoteURL(url) {
		return l.loadRemote(ctx, url, opts)
	}
	start := time.Now()
	repo, err := l.loadLocal(url, opts.StartDir)
	l.recorder.ObserveRepositoryLoad(metrics.OpLocal, time.Since(start), err == nil)
	return repo, "", err
}

func (l *Loader) loadRemote(ctx context.Context, rawURL string, opts LoadOptions) (*git.Repository, string, error) {
	remote := git.ParseRemoteURL(rawURL)
	transportURL := remote.URL
	if l.ensureGitSuffix {
		transportURL = git.EnsureGitSuffix(transportURL)
	}
	dir := filepath.Join(config.ContentCacheDir(l.cacheDir), git.CacheFolderName(remote.DisplayURL))
	marker := filepath.Join(dir, ValidStateFile)
	log := slog.With(logfields.URL(remote.DisplayURL), logfields.Path(dir))

	creds := remote.Credentials
	if creds == nil && l.store != nil {
		creds = l.store.Fill(remote.URL)
	}
	method, err := l.auth.CreateAuth(creds)
	if err != nil {
		return nil, "", foundationerrors.WrapError(err, foundationerrors.CategoryAuth,
			"Invalid credentials for content repository (url: "+remote.DisplayURL+")").Build()
	}
	t := transfer{
		url:          remote.URL,
		displayURL:   remote.DisplayURL,
		transportURL: transportURL,
		dir:          dir,
		marker:       marker,
		auth:         method,
		embedded:     remote.Credentials != nil,
		supplied:     creds != nil,
		tags:         opts.FetchTags,
	}

	if _, statErr := os.Stat(marker); statErr == nil {
		repo, openErr := git.Open(git.NewRemoteManaged(dir, remote.URL))
		switch {
		case openErr != nil:
			log.Warn("Cached repository is unreadable, cloning again", logfields.Error(openErr))
		case !opts.Fetch:
			start := time.Now()
			status, err := repo.PrivateStatus()
			l.recorder.ObserveRepositoryLoad(metrics.OpCache, time.Since(start), err == nil)
			if err != nil {
				return nil, "", foundationerrors.WrapError(err, foundationerrors.CategoryGit,
					"Cannot read cached repository (url: "+remote.DisplayURL+")").Build()
			}
			log.Debug("Using cached repository")
			return repo, status, nil
		default:
			status, err := l.fetch(ctx, repo, t)
			if err == nil {
				return repo, status, nil
			}
			if foundationerrors.HasCategory(err, foundationerrors.CategoryAuth) {
				return nil, "", err
			}
			log.Warn("Fetch failed, cloning again", logfields.Error(err))
			cloned, status, cloneErr := l.clone(ctx, t)
			if cloneErr != nil {
				// the failed fetch left refs untouched and the clone never replaced the directory
				l.restoreMarker(marker)
			}
			return cloned, status, cloneErr
		}
	}
	return l.clone(ctx, t)
}

func (l *Loader) restoreMarker(marker string) {
	f, err := os.Create(marker) // #nosec G304 -- marker lives in the cache directory
	if err == nil {
		err = f.Close()
	}
	if err != nil {
		slog.Warn("Failed to restore cached repository marker", logfields.Path(marker), logfields.Error(err))
	}
}

// transfer carries what clone and fetch need to know about one remote.
type transfer struct {
	url          string
	displayURL   string
	transportURL string
	dir          string
	marker       string
	auth         transport.AuthMethod
	embedded     bool
	supplied     bool
	tags         bool
}

func (l *Loader) fetch(ctx context.Context, repo *git.Repository, t transfer) (string, error) {
	start := time.Now()
	if err := os.Remove(t.marker); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem,
			"Cannot invalidate cached repository (url: "+t.displayURL+")").Build()
	}
	bar := l.progress.NewBar(t.displayURL, "fetch")
	err := l.withRetry(ctx, metrics.OpFetch, t.displayURL, func() error {
		return repo.Fetch(ctx, git.FetchOptions{
			Auth:     t.auth,
			Depth:    l.depth,
			Tags:     t.tags,
			Progress: progressWriter(bar),
		})
	})
	var status string
	if err == nil {
		status = l.authStatus(t)
		err = l.markValid(repo, status, t.marker)
	}
	bar.Complete(err)
	l.recorder.ObserveRepositoryLoad(metrics.OpFetch, time.Since(start), err == nil)
	if err != nil {
		return "", l.translate(err, t)
	}
	slog.Debug("Fetched repository", logfields.URL(t.displayURL))
	return status, nil
}

// clone transfers the repository into a temporary sibling of the cache
// directory and only replaces the cache directory once the clone is complete,
// so a failed clone leaves an existing cached copy in place.
func (l *Loader) clone(ctx context.Context, t transfer) (*git.Repository, string, error) {
	start := time.Now()
	bar := l.progress.NewBar(t.displayURL, "clone")
	repo, status, err := l.cloneAndSwap(ctx, t, bar)
	bar.Complete(err)
	l.recorder.ObserveRepositoryLoad(metrics.OpClone, time.Since(start), err == nil)
	if err != nil {
		return nil, "", l.translate(err, t)
	}
	slog.Debug("Cloned repository", logfields.URL(t.displayURL), logfields.Path(t.dir))
	return repo, status, nil
}

func (l *Loader) cloneAndSwap(ctx context.Context, t transfer, bar *progress.Bar) (*git.Repository, string, error) {
	parent := filepath.Dir(t.dir)
	if err := os.MkdirAll(parent, 0o750); err != nil {
		return nil, "", err
	}
	tmp, err := os.MkdirTemp(parent, filepath.Base(t.dir)+".tmp-")
	if err != nil {
		return nil, "", err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmp); rmErr != nil {
			slog.Warn("Failed to remove partial clone", logfields.Path(tmp), logfields.Error(rmErr))
		}
	}()

	err = l.withRetry(ctx, metrics.OpClone, t.displayURL, func() error {
		entries, err := os.ReadDir(tmp)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := os.RemoveAll(filepath.Join(tmp, e.Name())); err != nil {
				return err
			}
		}
		r, err := git.Clone(ctx, git.CloneOptions{
			Dir:      tmp,
			URL:      t.transportURL,
			Auth:     t.auth,
			Depth:    l.depth,
			Tags:     t.tags,
			Progress: progressWriter(bar),
		})
		if err != nil {
			return err
		}
		_, err = r.ResolveHead()
		return err
	})
	if err != nil {
		return nil, "", err
	}

	if err := os.RemoveAll(t.dir); err != nil {
		return nil, "", err
	}
	if err := os.Rename(tmp, t.dir); err != nil {
		return nil, "", err
	}
	repo, err := git.Open(git.NewRemoteManaged(t.dir, t.url))
	if err != nil {
		return nil, "", err
	}
	status := l.authStatus(t)
	if err := l.markValid(repo, status, t.marker); err != nil {
		return nil, "", err
	}
	return repo, status, nil
}

func (l *Loader) withRetry(ctx context.Context, op metrics.Operation, displayURL string, fn func() error) error {
	return retry.Do(ctx, l.policy, fn, git.IsPermanent, func(attempt int, err error) {
		l.recorder.IncTransportRetry(op)
		slog.Warn("Retrying git transfer",
			logfields.URL(displayURL),
			logfields.Operation(string(op)),
			logfields.Attempt(attempt),
			logfields.Error(err))
	})
}

func (l *Loader) authStatus(t transfer) string {
	switch {
	case t.embedded:
		return AuthEmbedded
	case l.store != nil && l.store.Status(t.url):
		return AuthRequired
	default:
		return ""
	}
}

func (l *Loader) markValid(repo *git.Repository, status, marker string) error {
	if err := repo.SetPrivateStatus(status); err != nil {
		return err
	}
	f, err := os.Create(marker) // #nosec G304 -- marker lives in the cache directory
	if err != nil {
		slog.Warn("Failed to mark cached repository as valid", logfields.Path(marker), logfields.Error(err))
		return nil
	}
	return f.Close()
}

func (l *Loader) translate(err error, t transfer) error {
	translated := git.TranslateTransportError(err, t.displayURL, t.supplied)
	if t.supplied && !t.embedded && l.store != nil &&
		foundationerrors.HasCategory(translated, foundationerrors.CategoryAuth) {
		l.store.Reject(t.url)
	}
	return translated
}

func (l *Loader) loadLocal(url, startDir string) (*git.Repository, error) {
	if startDir == "" {
		startDir, _ = os.Getwd()
	}
	dir := config.ExpandPath(url, startDir, startDir)
	suffix := ""
	if url != dir {
		suffix = " (url: " + url + ")"
	}
	if !isDir(dir) {
		return nil, foundationerrors.NotFoundError("Local content source does not exist: "+dir+suffix).
			WithContext("path", dir).
			Build()
	}
	h := git.NewLocalBare(dir)
	if isDir(filepath.Join(dir, ".git")) {
		h = git.NewLocalWorktree(dir)
	}
	repo, err := git.Open(h)
	if err == nil {
		_, err = repo.ResolveHead()
	}
	if err != nil {
		return nil, foundationerrors.GitError("Local content source must be a git repository: "+dir+suffix).
			WithCause(err).
			WithContext("path", dir).
			Build()
	}
	slog.Debug("Opened local repository", logfields.Path(dir), slog.String("kind", h.Kind.String()))
	return repo, nil
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}

// progressWriter avoids handing go-git a non-nil interface wrapping a nil bar.
func progressWriter(b *progress.Bar) io.Writer {
	if b == nil {
		return nil
	}
	return b
}
