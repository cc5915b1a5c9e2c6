package testutils

import (
	"sync"

	"github.com/go-git/go-git/v5/plumbing/transport/client"
	"github.com/go-git/go-git/v5/plumbing/transport/server"
)

var installFileTransport sync.Once

// UseInProcessFileTransport serves file:// URLs from go-git's in-process
// upload-pack server so tests do not depend on a git binary. The in-process
// server does not support shallow requests; clone with depth 0.
func UseInProcessFileTransport() {
	installFileTransport.Do(func() {
		client.InstallProtocol("file", server.NewClient(server.DefaultLoader))
	})
}

// FileURL returns the file:// URL serving the repository's git directory.
func (g *GitRepo) FileURL() string { return "file://" + g.GitDir() }
