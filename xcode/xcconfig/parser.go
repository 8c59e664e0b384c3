package xcconfig

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/spf13/afero"
)

// xcconfigLexer tokenizes settings files. A value is everything after the
// '=' up to the end of the line.
var xcconfigLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*`},
	{Name: "Include", Pattern: `#include\??`},
	{Name: "String", Pattern: `"[^"\n]*"`},
	{Name: "Filter", Pattern: `\[[^\]\n]*\]`},
	{Name: "Key", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Value", Pattern: `=[^\n]*`},
	{Name: "Newline", Pattern: `[\r\n]+`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

type rawFile struct {
	Lines []*rawLine `parser:"@@*"`
}

type rawLine struct {
	Pos     lexer.Position
	Include *string     `parser:"  Include @String"`
	Comment *string     `parser:"| @Comment"`
	Setting *rawSetting `parser:"| @@"`
}

type rawSetting struct {
	Key    string `parser:"@Key"`
	Filter string `parser:"@Filter?"`
	Value  string `parser:"@Value"`
}

var parser = participle.MustBuild[rawFile](
	participle.Lexer(xcconfigLexer),
	participle.Elide("Whitespace", "Newline"),
	participle.Unquote("String"),
)

// Parse reads a settings file. Includes are recorded by path and left
// unresolved.
func Parse(name string, r io.Reader) (*Layer, error) {
	raw, err := parser.Parse(name, r)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	l := New(filepath.Base(name), name)
	for _, line := range raw.Lines {
		switch {
		case line.Include != nil:
			l.statements = append(l.statements, Statement{Kind: StatementInclude, IncludePath: *line.Include})
		case line.Comment != nil:
			l.Comment(strings.TrimSpace(strings.TrimPrefix(*line.Comment, "//")))
		case line.Setting != nil:
			filter := strings.TrimSuffix(strings.TrimPrefix(line.Setting.Filter, "["), "]")
			value := strings.TrimSpace(strings.TrimPrefix(line.Setting.Value, "="))
			if filter == "" {
				l.Set(line.Setting.Key, value)
			} else {
				l.SetFiltered(line.Setting.Key, filter, value)
			}
		}
	}
	return l, nil
}

// ParseString is Parse for in-memory text.
func ParseString(name, text string) (*Layer, error) {
	return Parse(name, strings.NewReader(text))
}

// LoadTree parses the file at path and every file it includes, resolving
// include paths against the including file's directory. Includes that do
// not exist are left unresolved, as the IDE ignores them too.
func LoadTree(fs afero.Fs, path string) (*Layer, error) {
	return loadTree(fs, filepath.Clean(path), make(map[string]*Layer))
}

func loadTree(fs afero.Fs, path string, loaded map[string]*Layer) (*Layer, error) {
	if l, ok := loaded[path]; ok {
		return l, nil
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	l, err := Parse(path, strings.NewReader(string(data)))
	if err != nil {
		return nil, err
	}
	loaded[path] = l

	for i, s := range l.statements {
		if s.Kind != StatementInclude {
			continue
		}
		target := s.IncludePath
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(path), target)
		}
		target = filepath.Clean(target)
		if ok, _ := afero.Exists(fs, target); !ok {
			continue
		}
		inc, err := loadTree(fs, target, loaded)
		if err != nil {
			return nil, err
		}
		l.statements[i].Included = inc
	}
	return l, nil
}
