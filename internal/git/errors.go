package git

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	foundationerrors "git.home.luguber.info/inful/docaggregator/internal/foundation/errors"
)

// TranslateTransportError turns a clone or fetch failure into a stable,
// user-facing message suffixed with the credential-free URL. The transport
// error is kept as the cause. credentialsSupplied selects between the
// "requires credentials" and "credentials were rejected" wording for 401s.
func TranslateTransportError(err error, displayURL string, credentialsSupplied bool) error {
	if err == nil {
		return nil
	}
	if _, ok := foundationerrors.AsClassified(err); ok {
		return err
	}

	var (
		newErr func(string) *foundationerrors.ErrorBuilder
		msg    string
	)
	switch status := httpStatus(err); {
	case status == 401 || errors.Is(err, transport.ErrAuthenticationRequired),
		status == 403 || errors.Is(err, transport.ErrAuthorizationFailed):
		newErr, msg = foundationerrors.AuthError, "Content repository not found or requires credentials"
		if credentialsSupplied {
			msg = "Content repository not found or credentials were rejected"
		}
	case status == 404 || errors.Is(err, transport.ErrRepositoryNotFound):
		newErr, msg = foundationerrors.NotFoundError, "Content repository not found"
	case isUnsupportedTransport(err):
		newErr, msg = foundationerrors.ConfigError, "Content source uses an unsupported transport protocol"
	case isTransient(err):
		newErr, msg = foundationerrors.NetworkError, trimMessage(err.Error())
	default:
		newErr, msg = foundationerrors.GitError, trimMessage(err.Error())
		if msg == "" {
			msg = "Unknown " + strings.TrimPrefix(fmt.Sprintf("%T", err), "*") + ": See cause"
		}
	}
	return newErr(msg+" (url: "+displayURL+")").
		WithCause(err).
		WithContext("url", displayURL).
		Build()
}

// IsPermanent reports whether retrying a failed transport operation is pointless.
func IsPermanent(err error) bool {
	if ce, ok := foundationerrors.AsClassified(err); ok {
		return !ce.CanRetry()
	}
	return !isTransient(err)
}

func httpStatus(err error) int {
	var herr *githttp.Err
	if errors.As(err, &herr) && herr.Response != nil {
		return herr.StatusCode()
	}
	var uerr *plumbing.UnexpectedError
	if errors.As(err, &uerr) && errors.As(uerr.Err, &herr) && herr.Response != nil {
		return herr.StatusCode()
	}
	return 0
}

func isUnsupportedTransport(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unsupported scheme") ||
		strings.Contains(msg, "unsupported protocol") ||
		errors.Is(err, transport.ErrInvalidAuthMethod)
}

func isTransient(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) {
		return true
	}
	if status := httpStatus(err); status >= 500 || status == 429 {
		return true
	}
	l := strings.ToLower(err.Error())
	for _, s := range []string{"connection reset", "remote hung up", "timeout", "unexpected eof", "no route to host", "connection refused"} {
		if strings.Contains(l, s) {
			return true
		}
	}
	return false
}

// trimMessage drops the trailing period of a single-sentence message.
func trimMessage(msg string) string {
	msg = strings.TrimRight(msg, " \t\r\n")
	if !strings.Contains(msg, ". ") {
		msg = strings.TrimSuffix(msg, ".")
	}
	return msg
}
