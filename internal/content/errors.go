package content

import (
	"errors"
	"fmt"
	"strings"

	foundationerrors "git.home.luguber.info/inful/docaggregator/internal/foundation/errors"
)

// Causes of the errors returned while collecting a component version. Match
// them with errors.Is; the returned errors carry the user-facing message.
var (
	ErrDescriptorNotFound    = errors.New("component descriptor not found")
	ErrInvalidDescriptor     = errors.New("invalid component descriptor")
	ErrStartPathNotFound     = errors.New("start path does not exist")
	ErrStartPathNotDirectory = errors.New("start path is not a directory")
	ErrNoStartPaths          = errors.New("no start paths found")
)

const startPathMessagePrefix = "the start path "

func startPathError(startPath string, cause error) error {
	what := "does not exist"
	if errors.Is(cause, ErrStartPathNotDirectory) {
		what = "is not a directory"
	}
	return foundationerrors.ConfigError(fmt.Sprintf("%s'%s' %s", startPathMessagePrefix, startPath, what)).
		WithCause(cause).
		WithContext("start_path", startPath).
		Build()
}

// refInfo renders the reference part of an error location, e.g.
// "ref: main <worktree>".
func refInfo(ref Reference, worktree bool) string {
	s := "ref: " + strings.TrimPrefix(ref.FullName, "heads/")
	if worktree {
		s += " <worktree>"
	}
	return s
}

// annotate appends the repository, reference and start path an error was
// raised for to its message. The start path is left out when the message
// already names it.
func annotate(err error, repoLocation string, ref Reference, worktree bool, startPath string) error {
	var msg string
	ce, classified := foundationerrors.AsClassified(err)
	if classified {
		msg = ce.Message()
	} else {
		msg = err.Error()
	}
	pathInfo := ""
	if startPath != "" && !strings.HasPrefix(msg, startPathMessagePrefix) {
		pathInfo = " | path: " + startPath
	}
	msg += " in " + repoLocation + " (" + refInfo(ref, worktree) + pathInfo + ")"
	if classified {
		return ce.WithMessage(msg).
			WithContext("repository", repoLocation).
			WithContext("ref", ref.FullName)
	}
	return foundationerrors.WrapError(err, foundationerrors.CategoryGit, msg).
		WithContext("repository", repoLocation).
		WithContext("ref", ref.FullName).
		Build()
}
