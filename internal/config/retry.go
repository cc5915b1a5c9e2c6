package config

import (
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docaggregator/internal/foundation/normalization"
)

// RetryBackoffMode enumerates supported backoff strategies for transport retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffModes = normalization.NewNormalizer(map[string]RetryBackoffMode{
	"fixed":       RetryBackoffFixed,
	"linear":      RetryBackoffLinear,
	"exponential": RetryBackoffExponential,
}, "")

// NormalizeRetryBackoff converts arbitrary user input (case-insensitive) into a typed mode, returning empty string for unknown.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	return retryBackoffModes.Normalize(raw)
}

// UnmarshalYAML accepts any casing and keeps unknown values verbatim so validation can report them.
func (m *RetryBackoffMode) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if mode := NormalizeRetryBackoff(raw); mode != "" {
		*m = mode
		return nil
	}
	*m = RetryBackoffMode(raw)
	return nil
}
