package git

import (
	"crypto/sha1" //nolint:gosec // folder naming only, not a security boundary
	"encoding/hex"
	"path/filepath"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/docaggregator/internal/config"
)

var (
	uriDetectorRx  = regexp.MustCompile(`:(?://|[^/\\])`)
	gitSuffixRx    = regexp.MustCompile(`(?:(?:(?:\.git)?/)?\.git|/)$`)
	urlAuthRx      = regexp.MustCompile(`^(https?://)(?:([^/:@]+)?(?::([^/@]+)?)?@)?(.*)$`)
	urlAuthCleanRx = regexp.MustCompile(`^(https?://)[^/@]*@`)
	anySeparatorRx = regexp.MustCompile(`[:/]`)
	shortenRefRx   = regexp.MustCompile(`^refs/(?:heads|remotes/[^/]+|tags)/`)
)

// IsRemoteURL reports whether a content source location names a remote
// repository (scheme://host/..., user@host:path) rather than a local path.
func IsRemoteURL(s string) bool {
	return strings.Contains(s, ":") && uriDetectorRx.MatchString(s)
}

// RemoteURL is a remote content source location split into the URL used for
// transport, the credential-free URL that is safe to log, and any credentials
// that were embedded in it.
type RemoteURL struct {
	URL         string
	DisplayURL  string
	Credentials *config.AuthConfig
}

// ParseRemoteURL strips embedded credentials from an HTTP(S) URL and rewrites
// SSH-style git@host:path locations to HTTPS. A lone user part is treated as a
// token; user and password become basic credentials.
func ParseRemoteURL(raw string) RemoteURL {
	switch {
	case (strings.HasPrefix(raw, "https://") || strings.HasPrefix(raw, "http://")) && strings.Contains(raw, "@"):
		m := urlAuthRx.FindStringSubmatch(raw)
		if m == nil {
			return RemoteURL{URL: raw, DisplayURL: raw}
		}
		u := m[1] + m[4]
		res := RemoteURL{URL: u, DisplayURL: u}
		username, password := m[2], m[3]
		switch {
		case username == "":
		case password == "":
			res.Credentials = &config.AuthConfig{Type: config.AuthTypeToken, Token: username}
		default:
			res.Credentials = &config.AuthConfig{Type: config.AuthTypeBasic, Username: username, Password: password}
		}
		return res
	case strings.HasPrefix(raw, "git@"):
		return RemoteURL{URL: sshToHTTPS(raw), DisplayURL: raw}
	default:
		return RemoteURL{URL: raw, DisplayURL: raw}
	}
}

// CleanRemoteURL converts a remote URL read from repository config into a web
// friendly HTTPS URL without credentials. Other transports yield "".
func CleanRemoteURL(u string) string {
	switch {
	case strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "http://"):
		if strings.Contains(u, "@") {
			return urlAuthCleanRx.ReplaceAllString(u, "$1")
		}
		return u
	case strings.HasPrefix(u, "git@"):
		return sshToHTTPS(u)
	default:
		return ""
	}
}

func sshToHTTPS(u string) string {
	return "https://" + strings.Replace(u[len("git@"):], ":", "/", 1)
}

// EnsureGitSuffix appends ".git" to a transport URL that lacks it. Some hosts
// only answer smart HTTP requests on the suffixed path.
func EnsureGitSuffix(u string) string {
	if strings.HasSuffix(u, ".git") || !strings.HasPrefix(u, "http") {
		return u
	}
	return strings.TrimSuffix(u, "/") + ".git"
}

// TrimGitSuffix removes a trailing "/", ".git" or "/.git" from a URL.
func TrimGitSuffix(u string) string {
	return gitSuffixRx.ReplaceAllString(u, "")
}

// CacheFolderName derives the cache folder for a remote URL. The URL is
// normalized (lower-cased, git suffix removed) so that equivalent spellings
// share a folder, then named <basename>-<sha1 of normalized url>.git.
func CacheFolderName(displayURL string) string {
	normalized := strings.ToLower(filepath.ToSlash(displayURL))
	normalized = gitSuffixRx.ReplaceAllString(normalized, "")
	parts := anySeparatorRx.Split(normalized, -1)
	basename := parts[len(parts)-1]
	sum := sha1.Sum([]byte(normalized)) //nolint:gosec // see import
	return basename + "-" + hex.EncodeToString(sum[:]) + ".git"
}

// ShortenRefName turns refs/heads/x, refs/remotes/<remote>/x and refs/tags/x into x.
func ShortenRefName(name string) string {
	return shortenRefRx.ReplaceAllString(name, "")
}
