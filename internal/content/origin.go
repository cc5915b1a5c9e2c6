package content

import (
	"mime"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/docaggregator/internal/config"
	"git.home.luguber.info/inful/docaggregator/internal/git"
)

var (
	hostedGitRepoRx   = regexp.MustCompile(`^(?:https?://|.+@)(git(?:hub|lab)\.com|bitbucket\.org|pagure\.io)[/:](.+?)(?:\.git)?$`)
	editURLTemplateRx = regexp.MustCompile(`\{(web_url|ref(?:hash|name)|path)\}`)
)

// mediaTypes covers extensions missing from the platform MIME tables.
var mediaTypes = map[string]string{
	".adoc":     "text/asciidoc",
	".asciidoc": "text/asciidoc",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".yml":      "application/x-yaml",
	".yaml":     "application/x-yaml",
}

// computeOrigin describes where files collected from ref at startPath came
// from. worktree is the checkout directory when files were read from disk.
func computeOrigin(url, authStatus string, ref Reference, startPath, worktree string, editURL *config.EditURL) *Origin {
	o := &Origin{Type: "git", URL: url, Private: authStatus, StartPath: startPath}
	switch ref.Type {
	case RefTag:
		o.Tag = ref.ShortName
	default:
		o.Branch = ref.ShortName
	}
	refHash := ""
	if worktree != "" {
		dir := filepath.ToSlash(worktree)
		if !strings.HasPrefix(dir, "/") {
			dir = "/" + dir
		}
		o.FileURIPattern = "file://" + dir + path.Join("/", startPath, "%s")
		o.Worktree = true
	} else {
		refHash = ref.OID.String()
		o.RefHash = refHash
	}

	switch {
	case editURL.HasTemplate():
		o.EditURLPattern = expandEditURLTemplate(editURL.Template, url, ref, startPath, refHash)
	case editURL.UsesHostTemplates():
		o.EditURLPattern = hostedEditURL(url, ref, startPath)
	}
	return o
}

// hostedEditURL builds the edit URL pattern for repositories on well-known
// hosts. Other hosts get none.
func hostedEditURL(url string, ref Reference, startPath string) string {
	m := hostedGitRepoRx.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	host, repo := m[1], m[2]
	var action, category string
	switch host {
	case "pagure.io":
		action, category = "blob", "f"
	case "bitbucket.org":
		action = "src"
	default:
		action = "edit"
		if ref.Type == RefTag {
			action = "blob"
		}
	}
	return "https://" + path.Join(host, repo, action, ref.ShortName, category, startPath, "%s")
}

func expandEditURLTemplate(tmpl, url string, ref Reference, startPath, refHash string) string {
	return editURLTemplateRx.ReplaceAllStringFunc(tmpl, func(token string) string {
		switch token[1 : len(token)-1] {
		case "path":
			if startPath == "" {
				return "%s"
			}
			return path.Join(startPath, "%s")
		case "refhash":
			return refHash
		case "refname":
			return ref.ShortName
		default: // web_url
			if url == "" {
				return ""
			}
			return git.TrimGitSuffix(url)
		}
	})
}

// assignFileProperties fills in the src record of f and resolves the file
// URI and edit URL patterns of the origin for it.
func assignFileProperties(f *File, origin *Origin) {
	base := path.Base(f.Path)
	ext := path.Ext(base)
	f.Src.Path = f.Path
	f.Src.Basename = base
	f.Src.Stem = strings.TrimSuffix(base, ext)
	f.Src.Extname = ext
	f.Src.Origin = origin
	f.MediaType = mediaType(ext)
	f.Src.MediaType = f.MediaType
	if origin.FileURIPattern != "" {
		f.Src.FileURI = fillPattern(origin.FileURIPattern, f.Src.Path)
	}
	if origin.EditURLPattern != "" {
		f.Src.EditURL = fillPattern(origin.EditURLPattern, f.Src.Path)
	}
}

func fillPattern(pattern, p string) string {
	return strings.ReplaceAll(strings.Replace(pattern, "%s", p, 1), " ", "%20")
}

func mediaType(ext string) string {
	if ext == "" {
		return ""
	}
	if t, ok := mediaTypes[strings.ToLower(ext)]; ok {
		return t
	}
	t, _, _ := strings.Cut(mime.TypeByExtension(ext), ";")
	return strings.TrimSpace(t)
}
