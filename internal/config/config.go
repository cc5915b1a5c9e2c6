package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Playbook is the aggregator configuration: where to cache repositories, how to talk
// to git hosts and which content sources to collect.
type Playbook struct {
	// Dir is the directory the playbook was loaded from. A leading "." segment in
	// configured paths resolves against it.
	Dir     string        `yaml:"-"`
	Runtime RuntimeConfig `yaml:"runtime"`
	Git     GitConfig     `yaml:"git"`
	Content ContentConfig `yaml:"content"`
}

// RuntimeConfig holds per-run switches.
type RuntimeConfig struct {
	CacheDir string `yaml:"cache_dir,omitempty"`
	Fetch    bool   `yaml:"fetch,omitempty"`  // fetch updates for cached repositories
	Silent   bool   `yaml:"silent,omitempty"` // suppress progress and warnings
	Quiet    bool   `yaml:"quiet,omitempty"`  // suppress progress
}

// GitConfig controls transport behaviour.
type GitConfig struct {
	EnsureGitSuffix *bool              `yaml:"ensure_git_suffix,omitempty"`
	Credentials     *CredentialsConfig `yaml:"credentials,omitempty"`
	Retry           RetryConfig        `yaml:"retry,omitempty"`
}

// CredentialsConfig points the credential store at stored git credentials.
type CredentialsConfig struct {
	Path     string `yaml:"path,omitempty"`
	Contents string `yaml:"contents,omitempty"`
}

// RetryConfig configures retries of transient clone/fetch failures. An unset
// max_retries means two retries; 0 disables them.
type RetryConfig struct {
	MaxRetries   *int             `yaml:"max_retries,omitempty"`
	InitialDelay string           `yaml:"initial_delay,omitempty"`
	MaxDelay     string           `yaml:"max_delay,omitempty"`
	Backoff      RetryBackoffMode `yaml:"backoff,omitempty"`
}

// ContentConfig lists the content sources plus defaults shared by all of them.
type ContentConfig struct {
	Branches Patterns `yaml:"branches,omitempty"`
	Tags     Patterns `yaml:"tags,omitempty"`
	EditURL  *EditURL `yaml:"edit_url,omitempty"`
	Sources  []Source `yaml:"sources"`
}

// Source is a single content source: a git repository (remote URL or local path)
// plus the references and start paths to collect from it.
type Source struct {
	URL        string        `yaml:"url"`
	Branches   Patterns      `yaml:"branches,omitempty"`
	Tags       Patterns      `yaml:"tags,omitempty"`
	StartPath  string        `yaml:"start_path,omitempty"`
	StartPaths StartPathList `yaml:"start_paths,omitempty"`
	EditURL    *EditURL      `yaml:"edit_url,omitempty"`
	Remote     string        `yaml:"remote,omitempty"`
}

// UnmarshalYAML keeps "branches: ~" and "tags: ~" apart from absent keys so an
// explicitly empty selection is not replaced by the content-level default.
func (c *ContentConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain ContentConfig
	if err := node.Decode((*plain)(c)); err != nil {
		return err
	}
	keepEmptyPatterns(node, map[string]*Patterns{"branches": &c.Branches, "tags": &c.Tags})
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler; see ContentConfig.UnmarshalYAML.
func (s *Source) UnmarshalYAML(node *yaml.Node) error {
	type plain Source
	if err := node.Decode((*plain)(s)); err != nil {
		return err
	}
	keepEmptyPatterns(node, map[string]*Patterns{"branches": &s.Branches, "tags": &s.Tags})
	return nil
}

// HasStartPaths reports whether the source uses (possibly globbed) start paths.
func (s Source) HasStartPaths() bool { return s.StartPaths != nil }

// EnsureGitSuffixEnabled returns the effective ensure_git_suffix flag (default true).
func (g GitConfig) EnsureGitSuffixEnabled() bool {
	return g.EnsureGitSuffix == nil || *g.EnsureGitSuffix
}

// Load reads a playbook file, expands environment variables and applies defaults.
func Load(path string) (*Playbook, error) {
	// .env files only fill variables that are not already set
	if files := envFiles(filepath.Dir(path)); len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("playbook file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read playbook file: %w", err)
	}

	pb, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve playbook directory: %w", err)
	}
	pb.Dir = abs
	return pb, nil
}

// Parse decodes playbook YAML, applies defaults and validates the result.
func Parse(data []byte) (*Playbook, error) {
	var pb Playbook
	if err := yaml.Unmarshal(data, &pb); err != nil {
		return nil, fmt.Errorf("failed to unmarshal playbook: %w", err)
	}
	ApplyDefaults(&pb)
	if err := Validate(&pb); err != nil {
		return nil, err
	}
	return &pb, nil
}

func envFiles(dir string) []string {
	var files []string
	for _, name := range []string{".env", ".env.local"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			files = append(files, p)
		}
	}
	return files
}
