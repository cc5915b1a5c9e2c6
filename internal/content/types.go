package content

import (
	"encoding/json"
	"io/fs"
	"maps"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
)

// RefType is the kind of a selected reference.
type RefType string

const (
	RefBranch RefType = "branch"
	RefTag    RefType = "tag"
)

// Reference is a branch or tag selected for collection.
type Reference struct {
	ShortName string
	// FullName is relative to refs/, e.g. heads/main, remotes/origin/main or
	// tags/v1.0. The synthetic detached reference uses HEAD.
	FullName string
	Type     RefType
	// Head marks the branch checked out in a local worktree.
	Head bool
	// Detached marks the synthetic reference standing in for a detached HEAD.
	Detached bool
	Remote   string
	// OID is resolved right before collection; zero for worktree collection.
	OID plumbing.Hash
}

// IsHead reports whether the reference is what the worktree has checked out.
func (r Reference) IsHead() bool { return r.Head || r.Detached }

// Origin describes where the files of a component version came from.
type Origin struct {
	Type      string `json:"type"`
	URL       string `json:"url,omitempty"`
	Private   string `json:"private,omitempty"`
	Branch    string `json:"branch,omitempty"`
	Tag       string `json:"tag,omitempty"`
	StartPath string `json:"startPath"`
	// RefHash is empty for worktree origins, which may be ahead of any commit.
	RefHash        string `json:"refhash,omitempty"`
	Worktree       bool   `json:"worktree,omitempty"`
	FileURIPattern string `json:"fileUriPattern,omitempty"`
	EditURLPattern string `json:"editUrlPattern,omitempty"`
}

// RefName returns the branch or tag name.
func (o *Origin) RefName() string {
	if o.Tag != "" {
		return o.Tag
	}
	return o.Branch
}

// FileStat is the stat information of a collected file. ModTime is nil for
// files read from git objects.
type FileStat struct {
	Mode    fs.FileMode `json:"mode"`
	Size    int64       `json:"size"`
	ModTime *time.Time  `json:"mtime,omitempty"`
}

// FileSrc records the location a file was collected from.
type FileSrc struct {
	Path      string  `json:"path"`
	Basename  string  `json:"basename"`
	Stem      string  `json:"stem"`
	Extname   string  `json:"extname"`
	MediaType string  `json:"mediaType,omitempty"`
	AbsPath   string  `json:"abspath,omitempty"`
	Origin    *Origin `json:"origin"`
	FileURI   string  `json:"fileUri,omitempty"`
	EditURL   string  `json:"editUrl,omitempty"`
}

// File is a collected file. Path is relative to the start path and uses
// forward slashes.
type File struct {
	Path      string   `json:"path"`
	Contents  []byte   `json:"-"`
	Stat      FileStat `json:"stat"`
	MediaType string   `json:"mediaType,omitempty"`
	Src       FileSrc  `json:"src"`
}

// ComponentVersion is the set of files collected for one component version,
// together with the fields of its component descriptor.
type ComponentVersion struct {
	Name    string
	Version string
	// Fields holds every descriptor key, camel-cased, including name and version.
	Fields map[string]any
	Files  []*File
}

// Key identifies the component version in the aggregate.
func (cv *ComponentVersion) Key() string { return cv.Version + "@" + cv.Name }

// Field returns a descriptor field by its camel-cased key.
func (cv *ComponentVersion) Field(key string) any { return cv.Fields[key] }

// MarshalJSON flattens the descriptor fields next to the file list.
func (cv *ComponentVersion) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(cv.Fields)+3)
	maps.Copy(out, cv.Fields)
	out["name"] = cv.Name
	out["version"] = cv.Version
	out["files"] = cv.Files
	return json.Marshal(out)
}
