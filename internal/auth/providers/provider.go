package providers

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/docaggregator/internal/config"
)

// Provider turns one kind of repository credentials into go-git transport auth.
type Provider interface {
	Type() config.AuthType

	// Validate reports credentials the provider cannot use.
	Validate(creds *config.AuthConfig) error

	// Method returns the transport auth for creds, or nil for anonymous access.
	Method(creds *config.AuthConfig) (transport.AuthMethod, error)
}

// Registry maps credential types to the providers that handle them.
type Registry struct {
	byType map[config.AuthType]Provider
}

// NewRegistry returns a registry holding the built-in providers followed by
// extra, which replace built-ins of the same type.
func NewRegistry(extra ...Provider) *Registry {
	r := &Registry{byType: make(map[config.AuthType]Provider)}
	for _, p := range append([]Provider{NoneProvider{}, TokenProvider{}, BasicProvider{}}, extra...) {
		r.Register(p)
	}
	return r
}

func (r *Registry) Register(p Provider) { r.byType[p.Type()] = p }

// Lookup returns the provider registered for t.
func (r *Registry) Lookup(t config.AuthType) (Provider, bool) {
	p, ok := r.byType[t]
	return p, ok
}

// Method resolves creds through the provider registered for their type. Nil
// or empty credentials mean anonymous access.
func (r *Registry) Method(creds *config.AuthConfig) (transport.AuthMethod, error) {
	if creds.IsZero() {
		return nil, nil
	}
	p, ok := r.Lookup(creds.Type)
	if !ok {
		return nil, &CredentialsError{Type: creds.Type, Reason: "unsupported credentials type"}
	}
	if err := p.Validate(creds); err != nil {
		return nil, &CredentialsError{Type: creds.Type, Reason: "incomplete credentials", Err: err}
	}
	method, err := p.Method(creds)
	if err != nil {
		return nil, &CredentialsError{Type: creds.Type, Reason: "cannot build transport auth", Err: err}
	}
	return method, nil
}

// CredentialsError reports credentials that cannot be turned into transport auth.
type CredentialsError struct {
	Type   config.AuthType
	Reason string
	Err    error
}

func (e *CredentialsError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s credentials: %s: %v", e.Type, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s credentials: %s", e.Type, e.Reason)
}

func (e *CredentialsError) Unwrap() error { return e.Err }
