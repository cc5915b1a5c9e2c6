package config

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	csvRx           = regexp.MustCompile(`\s*,\s*`)
	ventilatedCSVRx = regexp.MustCompile(`\s*,\s+`)
)

// Patterns is a list of glob patterns. In YAML it may be written either as a
// sequence or as a comma-separated string. A nil value means "not configured"
// (fall back to defaults) while an empty, non-nil value means "select nothing".
type Patterns []string

// UnmarshalYAML implements yaml.Unmarshaler. An empty string is an explicit
// empty list.
func (p *Patterns) UnmarshalYAML(node *yaml.Node) error {
	values, err := decodeList(node, csvRx)
	if err != nil {
		return err
	}
	if values == nil {
		values = []string{}
	}
	*p = values
	return nil
}

// keepEmptyPatterns turns pattern fields whose key is present in the mapping
// but decoded to nil (a null value) into empty lists. yaml.v3 does not call
// UnmarshalYAML for null values.
func keepEmptyPatterns(node *yaml.Node, fields map[string]*Patterns) {
	if node.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if p, ok := fields[node.Content[i].Value]; ok && *p == nil {
			*p = Patterns{}
		}
	}
}

// StartPathList is the start_paths value. As a string it is split on a comma
// followed by whitespace, so a comma alone can appear inside a brace glob.
type StartPathList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *StartPathList) UnmarshalYAML(node *yaml.Node) error {
	values, err := decodeList(node, ventilatedCSVRx)
	if err != nil {
		return err
	}
	*p = values
	return nil
}

func decodeList(node *yaml.Node, sep *regexp.Regexp) ([]string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, nil
		}
		return splitCSV(node.Value, sep), nil
	case yaml.SequenceNode:
		values := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: pattern entries must be scalars", item.Line)
			}
			values = append(values, item.Value)
		}
		return values, nil
	default:
		return nil, fmt.Errorf("line %d: expected a string or a list", node.Line)
	}
}

func splitCSV(s string, sep *regexp.Regexp) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return sep.Split(s, -1)
}

// EditURL is the edit_url setting: either a boolean toggle for the built-in host
// templates or a custom template string.
type EditURL struct {
	Enabled  bool
	Template string
}

// EditURLEnabled returns an edit_url value that uses the built-in host templates.
func EditURLEnabled() *EditURL { return &EditURL{Enabled: true} }

// EditURLTemplate returns an edit_url value with a custom template.
func EditURLTemplate(tmpl string) *EditURL { return &EditURL{Enabled: tmpl != "", Template: tmpl} }

// UnmarshalYAML implements yaml.Unmarshaler.
func (e *EditURL) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: edit_url must be a boolean or a string", node.Line)
	}
	switch node.Tag {
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		*e = EditURL{Enabled: b}
	case "!!null":
		*e = EditURL{}
	default:
		*e = *EditURLTemplate(node.Value)
	}
	return nil
}

// UsesHostTemplates reports whether edit URLs come from the built-in host table.
func (e *EditURL) UsesHostTemplates() bool { return e != nil && e.Enabled && e.Template == "" }

// HasTemplate reports whether a custom edit URL template is configured.
func (e *EditURL) HasTemplate() bool { return e != nil && e.Template != "" }
