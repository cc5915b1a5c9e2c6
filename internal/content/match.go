package content

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gobwas/glob"
)

// matchMode selects how patterns treat "/" and letter case.
type matchMode int

const (
	// matchRefs lets "*" match "/", which suits ref names such as
	// release/1.x, and ignores case.
	matchRefs matchMode = iota
	// matchPaths keeps "*" within one path segment and is case-sensitive.
	matchPaths
)

// matcher selects names with shell-style patterns. A pattern starting with "!"
// excludes. The last pattern matching a name decides; when the first pattern
// is an exclusion, names start out selected.
type matcher struct {
	mode         matchMode
	patterns     []compiledPattern
	firstNegated bool
}

type compiledPattern struct {
	g       glob.Glob
	negated bool
}

func newMatcher(patterns []string, mode matchMode) (*matcher, error) {
	m := &matcher{mode: mode, patterns: make([]compiledPattern, 0, len(patterns))}
	for i, p := range patterns {
		negated := strings.HasPrefix(p, "!")
		if negated {
			p = p[1:]
			if i == 0 {
				m.firstNegated = true
			}
		}
		g, err := compileGlob(p, mode)
		if err != nil {
			return nil, fmt.Errorf("compile glob %s: %w", p, err)
		}
		m.patterns = append(m.patterns, compiledPattern{g: g, negated: negated})
	}
	return m, nil
}

func compileGlob(pattern string, mode matchMode) (glob.Glob, error) {
	pattern = globSyntax(pattern)
	if mode == matchPaths {
		return glob.Compile(pattern, '/')
	}
	return glob.Compile(strings.ToLower(pattern))
}

func (m *matcher) match(name string) bool {
	if m.mode == matchRefs {
		name = strings.ToLower(name)
	}
	ok := m.firstNegated
	for _, p := range m.patterns {
		if p.g.Match(name) {
			ok = !p.negated
		}
	}
	return ok
}

// matchNames returns the names selected by patterns, in the order of names.
func matchNames(names, patterns []string) ([]string, error) {
	if len(names) == 0 || len(patterns) == 0 {
		return nil, nil
	}
	m, err := newMatcher(patterns, matchRefs)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, n := range names {
		if m.match(n) {
			out = append(out, n)
		}
	}
	return out, nil
}

// isGlob reports whether p contains glob syntax.
func isGlob(p string) bool {
	return strings.HasPrefix(p, "!") || strings.ContainsAny(p, "*?[{")
}

// globSyntax rewrites brace ranges ({0..9}, {a..e}) as lists and escapes
// braces and brackets that do not form an expression, so they match
// literally.
func globSyntax(p string) string {
	var b strings.Builder
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch c {
		case '\\':
			b.WriteByte(c)
			if i+1 < len(p) {
				i++
				b.WriteByte(p[i])
			}
		case '[':
			end := strings.IndexByte(p[i+1:], ']')
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			b.WriteString(p[i : i+end+2])
			i += end + 1
		case ']', '}':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '{':
			var alts []string
			end := matchingBrace(p, i)
			if end > 0 {
				alts = braceAlternatives(p[i+1 : end])
			}
			switch len(alts) {
			case 0:
				b.WriteString(`\{`)
				continue
			case 1:
				b.WriteString(globSyntax(alts[0]))
			default:
				b.WriteByte('{')
				for j, alt := range alts {
					if j > 0 {
						b.WriteByte(',')
					}
					b.WriteString(globSyntax(alt))
				}
				b.WriteByte('}')
			}
			i = end
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func matchingBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// braceAlternatives splits the body of a brace expression. It returns nil when
// the body is neither a list nor a range.
func braceAlternatives(body string) []string {
	if lo, hi, ok := strings.Cut(body, ".."); ok && !strings.Contains(body, ",") {
		return braceRange(lo, hi)
	}
	var (
		alts  []string
		depth int
		start int
	)
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				alts = append(alts, body[start:i])
				start = i + 1
			}
		}
	}
	if alts == nil {
		return nil
	}
	return append(alts, body[start:])
}

func braceRange(lo, hi string) []string {
	if a, errA := strconv.Atoi(lo); errA == nil {
		z, err := strconv.Atoi(hi)
		if err != nil {
			return nil
		}
		step := 1
		if z < a {
			step = -1
		}
		var out []string
		for n := a; ; n += step {
			out = append(out, strconv.Itoa(n))
			if n == z {
				return out
			}
		}
	}
	if len(lo) != 1 || len(hi) != 1 || !isAlnum(lo[0]) || !isAlnum(hi[0]) {
		return nil
	}
	var out []string
	for c := int(min(lo[0], hi[0])); c <= int(max(lo[0], hi[0])); c++ {
		if isAlnum(byte(c)) {
			out = append(out, string(rune(c)))
		}
	}
	return out
}

func isAlnum(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
