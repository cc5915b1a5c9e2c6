package errors

// ErrorCategory is the broad class of a failure. It decides the exit code of
// the CLI and whether the failed operation may be retried.
type ErrorCategory string

const (
	// CategoryConfig covers playbook and content problems such as a missing
	// component descriptor or start path.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryAuth       ErrorCategory = "auth"
	CategoryNotFound   ErrorCategory = "not_found"

	// CategoryNetwork covers transport failures talking to a remote.
	CategoryNetwork ErrorCategory = "network"
	// CategoryGit covers unreadable or inconsistent local repositories.
	CategoryGit ErrorCategory = "git"

	CategoryFileSystem ErrorCategory = "filesystem"

	// CategoryInternal is used for errors nobody classified.
	CategoryInternal ErrorCategory = "internal"
)

var exitCodes = map[ErrorCategory]int{
	CategoryValidation: 2,
	CategoryAuth:       5,
	CategoryNotFound:   6,
	CategoryConfig:     7,
	CategoryNetwork:    8,
	CategoryGit:        8,
	CategoryInternal:   10,
	CategoryFileSystem: 11,
}

// ExitCode returns the process exit status for failures of this category.
func (c ErrorCategory) ExitCode() int {
	if code, ok := exitCodes[c]; ok {
		return code
	}
	return 1
}
