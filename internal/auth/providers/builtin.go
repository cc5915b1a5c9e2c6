package providers

import (
	"errors"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/docaggregator/internal/config"
)

var (
	errTokenRequired    = errors.New("token authentication requires a token")
	errUsernameRequired = errors.New("basic authentication requires a username")
	errPasswordRequired = errors.New("basic authentication requires a password")
)

// NoneProvider handles anonymous access.
type NoneProvider struct{}

func (NoneProvider) Type() config.AuthType                                   { return config.AuthTypeNone }
func (NoneProvider) Validate(*config.AuthConfig) error                       { return nil }
func (NoneProvider) Method(*config.AuthConfig) (transport.AuthMethod, error) { return nil, nil }

// TokenProvider handles a personal access token, as embedded in a URL
// (https://<token>@host/...) or stored in a credentials file.
type TokenProvider struct{}

func (TokenProvider) Type() config.AuthType { return config.AuthTypeToken }

func (TokenProvider) Validate(creds *config.AuthConfig) error {
	if creds.Token == "" {
		return errTokenRequired
	}
	return nil
}

// Method sends the token as the password of a basic auth header. GitLab and
// Bitbucket only accept the token in the password slot.
func (TokenProvider) Method(creds *config.AuthConfig) (transport.AuthMethod, error) {
	username := creds.Username
	if username == "" {
		username = "token"
	}
	return &http.BasicAuth{Username: username, Password: creds.Token}, nil
}

// BasicProvider handles username/password credentials.
type BasicProvider struct{}

func (BasicProvider) Type() config.AuthType { return config.AuthTypeBasic }

func (BasicProvider) Validate(creds *config.AuthConfig) error {
	if creds.Username == "" {
		return errUsernameRequired
	}
	if creds.Password == "" {
		return errPasswordRequired
	}
	return nil
}

func (BasicProvider) Method(creds *config.AuthConfig) (transport.AuthMethod, error) {
	return &http.BasicAuth{Username: creds.Username, Password: creds.Password}, nil
}
