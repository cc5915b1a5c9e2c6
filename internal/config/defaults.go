package config

import "time"

const (
	// DefaultCacheDirName is the directory created under the user cache dir.
	DefaultCacheDirName = "docaggregator"
	// ContentCacheFolder holds the bare clones inside the cache directory.
	ContentCacheFolder = "content"

	defaultMaxRetries   = 2
	defaultInitialDelay = 500 * time.Millisecond
	defaultMaxDelay     = 5 * time.Second
)

// DefaultBranches selects the current branch plus any branch that looks like a version.
var DefaultBranches = Patterns{"HEAD", "v{0..9}*"}

// ApplyDefaults fills unset content and git settings and pushes the content-level
// defaults down onto every source.
func ApplyDefaults(pb *Playbook) {
	if pb.Content.Branches == nil {
		pb.Content.Branches = append(Patterns(nil), DefaultBranches...)
	}
	if pb.Content.EditURL == nil {
		pb.Content.EditURL = EditURLEnabled()
	}
	for i := range pb.Content.Sources {
		src := &pb.Content.Sources[i]
		if src.Branches == nil {
			src.Branches = pb.Content.Branches
		}
		if src.Tags == nil {
			src.Tags = pb.Content.Tags
		}
		if src.EditURL == nil {
			src.EditURL = pb.Content.EditURL
		}
	}

	r := &pb.Git.Retry
	if r.MaxRetries == nil {
		n := defaultMaxRetries
		r.MaxRetries = &n
	}
	if r.InitialDelay == "" {
		r.InitialDelay = defaultInitialDelay.String()
	}
	if r.MaxDelay == "" {
		r.MaxDelay = defaultMaxDelay.String()
	}
	if r.Backoff == "" {
		r.Backoff = RetryBackoffExponential
	}
}

// Delays parses the configured retry delays. Invalid values fall back to defaults;
// Validate reports them before this is reached.
func (r RetryConfig) Delays() (initial, maxDelay time.Duration) {
	initial, maxDelay = defaultInitialDelay, defaultMaxDelay
	if d, err := time.ParseDuration(r.InitialDelay); err == nil {
		initial = d
	}
	if d, err := time.ParseDuration(r.MaxDelay); err == nil {
		maxDelay = d
	}
	return initial, maxDelay
}

// Retries returns the configured number of retries after the first attempt.
func (r RetryConfig) Retries() int {
	if r.MaxRetries == nil {
		return defaultMaxRetries
	}
	return *r.MaxRetries
}

// TagsRequested reports whether any source selects tags, in which case clones and
// fetches must transfer tags as well.
func TagsRequested(sources []Source) bool {
	for _, s := range sources {
		if len(s.Tags) > 0 {
			return true
		}
	}
	return false
}
