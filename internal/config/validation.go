package config

import (
	"fmt"
	"strings"
	"time"

	foundationerrors "git.home.luguber.info/inful/docaggregator/internal/foundation/errors"
)

// Validate checks the playbook for settings that cannot be acted on.
func Validate(pb *Playbook) error {
	if len(pb.Content.Sources) == 0 {
		return foundationerrors.ConfigError("no content sources configured").Build()
	}
	for i, src := range pb.Content.Sources {
		if err := validateSource(i, src); err != nil {
			return err
		}
	}
	return validateRetry(pb.Git.Retry)
}

func validateSource(idx int, src Source) error {
	if strings.TrimSpace(src.URL) == "" {
		return foundationerrors.ConfigError(fmt.Sprintf("content source %d is missing a url", idx+1)).Build()
	}
	if src.StartPath != "" && src.StartPaths != nil {
		return foundationerrors.ConfigError(
			fmt.Sprintf("content source %s cannot set both start_path and start_paths", src.URL)).
			WithContext("url", src.URL).
			Build()
	}
	if strings.ContainsAny(src.Remote, " \t/") {
		return foundationerrors.ConfigError(
			fmt.Sprintf("content source %s has an invalid remote name: %q", src.URL, src.Remote)).
			WithContext("url", src.URL).
			Build()
	}
	return nil
}

func validateRetry(r RetryConfig) error {
	if r.Retries() < 0 {
		return foundationerrors.ConfigError("git.retry.max_retries cannot be negative").Build()
	}
	if _, err := retryBackoffModes.NormalizeWithError(string(r.Backoff)); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryConfig,
			fmt.Sprintf("git.retry.backoff must be one of %s: %q",
				strings.Join(retryBackoffModes.ValidKeys(), ", "), r.Backoff)).Build()
	}
	delays := []struct{ name, raw string }{
		{"initial_delay", r.InitialDelay},
		{"max_delay", r.MaxDelay},
	}
	for _, d := range delays {
		if _, err := time.ParseDuration(d.raw); err != nil {
			return foundationerrors.WrapError(err, foundationerrors.CategoryConfig,
				fmt.Sprintf("git.retry.%s is not a valid duration: %q", d.name, d.raw)).Build()
		}
	}
	return nil
}
