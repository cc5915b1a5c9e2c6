// Package auth turns repository credentials, extracted from a URL or looked up
// in the credential store, into go-git transport auth.
package auth

import (
	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/docaggregator/internal/auth/providers"
	"git.home.luguber.info/inful/docaggregator/internal/config"
)

type Manager struct {
	registry *providers.Registry
}

// NewManager creates a manager backed by the built-in providers plus extra.
func NewManager(extra ...providers.Provider) *Manager {
	return &Manager{registry: providers.NewRegistry(extra...)}
}

// CreateAuth creates authentication for the given credentials. Nil or "none"
// credentials yield a nil AuthMethod.
func (m *Manager) CreateAuth(creds *config.AuthConfig) (transport.AuthMethod, error) {
	return m.registry.Method(creds)
}

// DefaultManager is the manager used by repository loaders unless overridden.
var DefaultManager = NewManager()
