package content

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	foundationerrors "git.home.luguber.info/inful/docaggregator/internal/foundation/errors"
)

// DescriptorFilename is the component descriptor expected at the root of
// every start path.
const DescriptorFilename = "antora.yml"

// passthroughKey holds configuration for the rendering engine; keys below it
// are kept verbatim.
const passthroughKey = "asciidoc"

var keySeparatorRx = regexp.MustCompile(`[_\-.\s]+`)

// loadDescriptor removes the component descriptor from files and returns the
// component version it declares. When the descriptor sets use_ref, the
// reference's short name becomes the version.
func loadDescriptor(files []*File, ref Reference) (*ComponentVersion, []*File, error) {
	idx := -1
	for i, f := range files {
		if f.Path == DescriptorFilename {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, files, foundationerrors.ConfigError(DescriptorFilename + " not found").
			WithCause(ErrDescriptorNotFound).
			Build()
	}
	desc := files[idx]
	files = append(files[:idx:idx], files[idx+1:]...)

	var data map[string]any
	if err := yaml.Unmarshal(desc.Contents, &data); err != nil {
		return nil, files, foundationerrors.ConfigError(DescriptorFilename + " has invalid syntax; " + yamlMessage(err)).
			WithCause(fmt.Errorf("%w: %w", ErrInvalidDescriptor, err)).
			Build()
	}
	if data == nil {
		data = map[string]any{}
	}

	name, err := identifier(data, "name")
	if err != nil {
		return nil, files, err
	}
	// version: true is shorthand for use_ref: true
	if v, ok := data["version"].(bool); (ok && v) || truthy(data["use_ref"]) {
		data["version"] = ref.ShortName
		data["display_version"] = ref.ShortName
	}
	version, err := identifier(data, "version")
	if err != nil {
		return nil, files, err
	}
	data["name"] = name
	data["version"] = version

	return &ComponentVersion{
		Name:    name,
		Version: version,
		Fields:  camelCaseKeys(data),
	}, files, nil
}

// identifier reads a name or version. It must be set and must not be usable
// as a path segment other than its own.
func identifier(data map[string]any, field string) (string, error) {
	v, ok := data[field]
	if !ok || v == nil {
		return "", foundationerrors.ValidationError(DescriptorFilename+" is missing a "+field).
			WithCause(ErrInvalidDescriptor).
			WithContext("field", field).
			Build()
	}
	s := scalarString(v)
	if s == "" {
		return "", foundationerrors.ValidationError(DescriptorFilename+" is missing a "+field).
			WithCause(ErrInvalidDescriptor).
			WithContext("field", field).
			Build()
	}
	if s == "." || s == ".." || strings.Contains(s, "/") {
		return "", foundationerrors.ValidationError(field+" in "+DescriptorFilename+" cannot have path segments: "+s).
			WithCause(ErrInvalidDescriptor).
			WithContext("field", field).
			Build()
	}
	return s, nil
}

// scalarString renders a decoded YAML value the way it would print, so that
// version: 1.0 and version: '1' both become "1".
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case float64:
		return t != 0
	default:
		return true
	}
}

func yamlMessage(err error) string {
	return strings.TrimPrefix(err.Error(), "yaml: ")
}

// camelCaseKeys converts keys to camelCase recursively, leaving everything
// below the asciidoc key untouched.
func camelCaseKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		key := camelCase(k)
		if key == passthroughKey {
			out[key] = v
			continue
		}
		out[key] = camelCaseValue(v)
	}
	return out
}

func camelCaseValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return camelCaseKeys(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = camelCaseValue(item)
		}
		return out
	default:
		return v
	}
}

// camelCase turns start_page, start-page and Start Page into startPage. Keys
// that are already camelCase keep their inner capitals.
func camelCase(key string) string {
	parts := keySeparatorRx.Split(strings.TrimSpace(key), -1)
	parts = filterEmpty(parts)
	if len(parts) == 0 {
		return key
	}
	if len(parts) == 1 {
		p := parts[0]
		if strings.ToUpper(p) == p {
			return strings.ToLower(p)
		}
		return strings.ToLower(p[:1]) + p[1:]
	}
	title := cases.Title(language.Und)
	var b strings.Builder
	b.WriteString(strings.ToLower(parts[0]))
	for _, p := range parts[1:] {
		b.WriteString(title.String(strings.ToLower(p)))
	}
	return b.String()
}

func filterEmpty(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
