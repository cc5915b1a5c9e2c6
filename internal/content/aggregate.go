package content

import (
	"maps"

	"git.home.luguber.info/inful/docaggregator/internal/config"
)

// SourceGroup is the set of sources sharing a repository URL. The repository
// is loaded once per group.
type SourceGroup struct {
	URL     string
	Sources []config.Source
}

// GroupSources groups sources by URL, in the order URLs first appear.
func GroupSources(sources []config.Source) []SourceGroup {
	var groups []SourceGroup
	index := make(map[string]int)
	for _, s := range sources {
		i, ok := index[s.URL]
		if !ok {
			i = len(groups)
			index[s.URL] = i
			groups = append(groups, SourceGroup{URL: s.URL})
		}
		groups[i].Sources = append(groups[i].Sources, s)
	}
	return groups
}

// BuildAggregate merges batches sharing a version@name key. Descriptor fields
// of later batches overwrite earlier ones; files are appended so the first
// batch's files come first. Component versions keep the order their keys
// were first seen in.
func BuildAggregate(batches []*ComponentVersion) []*ComponentVersion {
	var out []*ComponentVersion
	index := make(map[string]*ComponentVersion)
	for _, b := range batches {
		key := b.Key()
		entry, ok := index[key]
		if !ok {
			index[key] = b
			out = append(out, b)
			continue
		}
		if entry.Fields == nil {
			entry.Fields = make(map[string]any, len(b.Fields))
		}
		maps.Copy(entry.Fields, b.Fields)
		entry.Files = append(entry.Files, b.Files...)
	}
	return out
}
