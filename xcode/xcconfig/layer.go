// Package xcconfig builds settings layers: flat KEY = value files that
// include one another. The consuming IDE resolves a key to its first
// occurrence along the include chain, so specific values must be written
// before the include of a broader layer.
package xcconfig

import (
	"fmt"
	"path/filepath"
	"strings"
)

// StatementKind tags a statement in a layer.
type StatementKind int

const (
	StatementSetting StatementKind = iota
	StatementInclude
	StatementComment
)

// Statement is one line of a layer.
type Statement struct {
	Kind StatementKind

	// Setting
	Key    string
	Filter string
	Value  string

	// Include
	IncludePath string
	Included    *Layer

	// Comment
	Text string
}

// FullKey is the key with its bracketed filter suffix, e.g.
// "ARCHS[sdk=iphoneos*]".
func (s Statement) FullKey() string {
	if s.Filter == "" {
		return s.Key
	}
	return s.Key + "[" + s.Filter + "]"
}

// Layer is one settings file owned by a graph node.
type Layer struct {
	Name       string
	Path       string
	statements []Statement
}

// New creates an empty layer written to path.
func New(name, path string) *Layer {
	return &Layer{Name: name, Path: path}
}

// Set appends KEY = value.
func (l *Layer) Set(key, value string) {
	l.statements = append(l.statements, Statement{Kind: StatementSetting, Key: key, Value: value})
}

// SetFiltered appends KEY[filter] = value, scoping the setting to e.g. one
// SDK.
func (l *Layer) SetFiltered(key, filter, value string) {
	l.statements = append(l.statements, Statement{Kind: StatementSetting, Key: key, Filter: filter, Value: value})
}

// Include appends an #include of other.
func (l *Layer) Include(other *Layer) {
	l.statements = append(l.statements, Statement{Kind: StatementInclude, IncludePath: other.Path, Included: other})
}

// Comment appends a // comment line.
func (l *Layer) Comment(text string) {
	l.statements = append(l.statements, Statement{Kind: StatementComment, Text: text})
}

// Statements returns the layer's statements in order.
func (l *Layer) Statements() []Statement {
	return append([]Statement(nil), l.statements...)
}

// Includes returns the directly included layers in order.
func (l *Layer) Includes() []*Layer {
	var out []*Layer
	for _, s := range l.statements {
		if s.Kind == StatementInclude && s.Included != nil {
			out = append(out, s.Included)
		}
	}
	return out
}

// Render returns the file contents.
func (l *Layer) Render() string {
	var sb strings.Builder
	for _, s := range l.statements {
		switch s.Kind {
		case StatementSetting:
			fmt.Fprintf(&sb, "%s = %s\n", s.FullKey(), s.Value)
		case StatementInclude:
			fmt.Fprintf(&sb, "#include \"%s\"\n", l.relative(s.IncludePath))
		case StatementComment:
			fmt.Fprintf(&sb, "// %s\n", s.Text)
		}
	}
	return sb.String()
}

func (l *Layer) relative(target string) string {
	if l.Path == "" || !filepath.IsAbs(target) {
		return target
	}
	rel, err := filepath.Rel(filepath.Dir(l.Path), target)
	if err != nil {
		return target
	}
	return rel
}

// Resolve returns the effective value of a full key: its first occurrence
// walking statements in order and descending into includes as they are
// met.
func (l *Layer) Resolve(fullKey string) (string, bool) {
	return l.resolve(fullKey, make(map[*Layer]bool))
}

func (l *Layer) resolve(fullKey string, visiting map[*Layer]bool) (string, bool) {
	if visiting[l] {
		return "", false
	}
	visiting[l] = true
	defer delete(visiting, l)

	for _, s := range l.statements {
		switch s.Kind {
		case StatementSetting:
			if s.FullKey() == fullKey {
				return s.Value, true
			}
		case StatementInclude:
			if s.Included == nil {
				continue
			}
			if v, ok := s.Included.resolve(fullKey, visiting); ok {
				return v, true
			}
		}
	}
	return "", false
}

// Keys returns every full key defined by l or its includes.
func (l *Layer) Keys() map[string]bool {
	keys := make(map[string]bool)
	l.collectKeys(keys, make(map[*Layer]bool))
	return keys
}

func (l *Layer) collectKeys(keys map[string]bool, seen map[*Layer]bool) {
	if seen[l] {
		return
	}
	seen[l] = true
	for _, s := range l.statements {
		switch s.Kind {
		case StatementSetting:
			keys[s.FullKey()] = true
		case StatementInclude:
			if s.Included != nil {
				s.Included.collectKeys(keys, seen)
			}
		}
	}
}
