package content

import (
	"path"
	"slices"

	"git.home.luguber.info/inful/docaggregator/internal/config"
	"git.home.luguber.info/inful/docaggregator/internal/git"
)

// detachedHead stands in for the checked out commit of a worktree whose HEAD
// is not on a branch.
var detachedHead = Reference{ShortName: "HEAD", FullName: "HEAD", Type: RefBranch, Detached: true}

// refSet keeps references in insertion order. Setting an existing key replaces
// the reference but keeps its position.
type refSet struct {
	keys []string
	refs map[string]Reference
}

func newRefSet() *refSet { return &refSet{refs: make(map[string]Reference)} }

func (s *refSet) set(key string, ref Reference) {
	if _, ok := s.refs[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.refs[key] = ref
}

func (s *refSet) values() []Reference {
	out := make([]Reference, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.refs[k])
	}
	return out
}

// tagKey keeps tags apart from branches of the same name.
func tagKey(name string) string { return "\x00tag\x00" + name }

func isCurrentBranchPattern(p string) bool { return p == "HEAD" || p == "." }

// SelectReferences resolves the branch and tag patterns of src against repo.
// remote is the remote whose tracking branches are considered.
//
// Tags are matched first. A branch pattern of HEAD (or ".") stands for the
// current branch; when HEAD is detached in a worktree, the checked out commit
// is selected as a synthetic HEAD branch. Remote-tracking branches are matched
// next. In a worktree, local branches are then matched as well and replace
// remote branches of the same name. A bare repository only falls back to its
// local branches when it has no remote-tracking branches at all.
func SelectReferences(repo *git.Repository, src config.Source, remote string) ([]Reference, error) {
	bare := repo.Handle.IsBare()
	refs := newRefSet()

	if len(src.Tags) > 0 {
		tags, err := repo.ListTags(git.ListTagsOptions{})
		if err != nil {
			return nil, err
		}
		matched, err := matchNames(tags, src.Tags)
		if err != nil {
			return nil, err
		}
		for _, name := range matched {
			refs.set(tagKey(name), Reference{ShortName: name, FullName: "tags/" + name, Type: RefTag})
		}
	}

	if src.Branches == nil {
		return refs.values(), nil
	}
	patterns := slices.Clone([]string(src.Branches))
	if len(patterns) == 1 && isCurrentBranchPattern(patterns[0]) {
		current, err := repo.CurrentBranch(git.CurrentBranchOptions{Remote: remote})
		if err != nil {
			return nil, err
		}
		if current == "" {
			if !bare {
				refs.set("HEAD", detachedHead)
			}
			return refs.values(), nil
		}
		patterns = []string{current}
	} else {
		if len(patterns) == 0 {
			return refs.values(), nil
		}
		idx := slices.Index(patterns, "HEAD")
		if idx < 0 {
			idx = slices.Index(patterns, ".")
		}
		if idx >= 0 {
			current, err := repo.CurrentBranch(git.CurrentBranchOptions{Remote: remote})
			if err != nil {
				return nil, err
			}
			switch {
			case current == "":
				if !bare {
					refs.set("HEAD", detachedHead)
				}
				patterns = slices.Delete(patterns, idx, idx+1)
			case slices.Contains(patterns, current):
				patterns = slices.Delete(patterns, idx, idx+1)
			default:
				patterns[idx] = current
			}
		}
	}

	remoteBranches, err := repo.ListBranches(git.ListBranchesOptions{Remote: remote})
	if err != nil {
		return nil, err
	}
	matched, err := matchNames(remoteBranches, patterns)
	if err != nil {
		return nil, err
	}
	for _, name := range matched {
		refs.set(name, Reference{
			ShortName: name,
			FullName:  path.Join("remotes", remote, name),
			Type:      RefBranch,
			Remote:    remote,
		})
	}

	if !bare || len(remoteBranches) == 0 {
		localBranches, err := repo.ListBranches(git.ListBranchesOptions{})
		if err != nil {
			return nil, err
		}
		current := ""
		if !bare && len(localBranches) > 0 {
			if current, err = repo.CurrentBranch(git.CurrentBranchOptions{}); err != nil {
				return nil, err
			}
		}
		matched, err := matchNames(localBranches, patterns)
		if err != nil {
			return nil, err
		}
		for _, name := range matched {
			refs.set(name, Reference{
				ShortName: name,
				FullName:  "heads/" + name,
				Type:      RefBranch,
				Head:      !bare && name == current,
			})
		}
	}
	return refs.values(), nil
}
