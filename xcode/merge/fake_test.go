package merge

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// fakeTool edits documents stored as JSON on an afero filesystem and
// speaks the editor's command language closely enough for the engine.
type fakeTool struct {
	fs       afero.Fs
	failOn   string
	commands []string
}

func (f *fakeTool) Run(_ context.Context, doc, command string) Result {
	f.commands = append(f.commands, command)
	if f.failOn != "" && strings.HasPrefix(command, f.failOn) {
		return Result{Kind: Error, Text: "Error: injected failure"}
	}
	data, err := afero.ReadFile(f.fs, doc)
	if err != nil {
		return Result{Kind: Error, Text: err.Error()}
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return Result{Kind: Error, Text: err.Error()}
	}

	args := splitArgs(command)
	res := f.apply(tree, args)
	if res.OK() && args[0] != "Print" {
		out, _ := json.Marshal(tree)
		if err := afero.WriteFile(f.fs, doc, out, 0o644); err != nil {
			return Result{Kind: Error, Text: err.Error()}
		}
	}
	return res
}

func notFound(cmd, entry string) Result {
	return Result{Kind: NotFound, Text: fmt.Sprintf("%s: Entry, %q, Does Not Exist", cmd, entry)}
}

func (f *fakeTool) apply(tree map[string]any, args []string) Result {
	cmd, entry := args[0], args[1]
	switch cmd {
	case "Print":
		v, ok := lookup(tree, entry)
		if !ok {
			return notFound(cmd, entry)
		}
		return Result{Kind: Value, Text: render(v, 0)}
	case "Set":
		parent, key, ok := parentOf(tree, entry)
		if !ok {
			return notFound(cmd, entry)
		}
		m, isMap := parent.(map[string]any)
		if !isMap {
			return Result{Kind: Error, Text: "Error: not a dictionary"}
		}
		if _, exists := m[key]; !exists {
			return notFound(cmd, entry)
		}
		m[key] = args[2]
		return Result{Kind: Value}
	case "Add":
		return addEntry(tree, entry, args[2:])
	case "Delete":
		parent, key, ok := parentOf(tree, entry)
		if !ok {
			return notFound(cmd, entry)
		}
		m, isMap := parent.(map[string]any)
		if _, exists := m[key]; !isMap || !exists {
			return notFound(cmd, entry)
		}
		delete(m, key)
		return Result{Kind: Value}
	case "Merge":
		data, err := afero.ReadFile(f.fs, args[1])
		if err != nil {
			return Result{Kind: Error, Text: "Error Reading File: " + args[1]}
		}
		target, ok := lookup(tree, args[2])
		m, isMap := target.(map[string]any)
		if !ok || !isMap {
			return notFound(cmd, args[2])
		}
		objects, err := parseFragment(string(data))
		if err != nil {
			return Result{Kind: Error, Text: "Error: " + err.Error()}
		}
		for id, o := range objects {
			if _, exists := m[id]; !exists {
				m[id] = o
			}
		}
		return Result{Kind: Value}
	}
	return Result{Kind: Error, Text: "Unrecognized command " + cmd}
}

func addEntry(tree map[string]any, entry string, rest []string) Result {
	parentPath, key := splitLast(entry)
	parent, ok := lookup(tree, parentPath)
	if !ok {
		return notFound("Add", entry)
	}
	var value any
	switch rest[0] {
	case "dict":
		value = map[string]any{}
	case "array":
		value = []any{}
	default:
		value = rest[1]
	}
	switch p := parent.(type) {
	case map[string]any:
		if _, exists := p[key]; exists {
			return Result{Kind: Error, Text: fmt.Sprintf("Add: %q Entry Already Exists", entry)}
		}
		p[key] = value
	case []any:
		idx, err := strconv.Atoi(key)
		if err != nil {
			return Result{Kind: Error, Text: "Error: bad index"}
		}
		if idx >= len(p) {
			p = append(p, value)
		} else {
			p = append(p[:idx], append([]any{value}, p[idx:]...)...)
		}
		grand, last, _ := parentOf(tree, parentPath)
		grand.(map[string]any)[last] = p
	default:
		return Result{Kind: Error, Text: "Error: not a container"}
	}
	return Result{Kind: Value}
}

func parts(entry string) []string {
	return strings.Split(strings.TrimPrefix(entry, ":"), ":")
}

func splitLast(entry string) (string, string) {
	i := strings.LastIndex(entry, ":")
	return entry[:i], entry[i+1:]
}

func lookup(tree map[string]any, entry string) (any, bool) {
	var cur any = tree
	if entry == "" || entry == ":" {
		return cur, true
	}
	for _, p := range parts(entry) {
		switch c := cur.(type) {
		case map[string]any:
			v, ok := c[p]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(p)
			if err != nil || i >= len(c) {
				return nil, false
			}
			cur = c[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

func parentOf(tree map[string]any, entry string) (any, string, bool) {
	parentPath, key := splitLast(entry)
	parent, ok := lookup(tree, parentPath)
	return parent, key, ok
}

func render(v any, depth int) string {
	pad := strings.Repeat("    ", depth+1)
	end := strings.Repeat("    ", depth) + "}"
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines := []string{"Dict {"}
		for _, k := range keys {
			lines = append(lines, pad+k+" = "+render(val[k], depth+1))
		}
		return strings.Join(append(lines, end), "\n")
	case []any:
		lines := []string{"Array {"}
		for _, item := range val {
			lines = append(lines, pad+render(item, depth+1))
		}
		return strings.Join(append(lines, end), "\n")
	default:
		return fmt.Sprint(val)
	}
}

func splitArgs(command string) []string {
	var out []string
	var cur strings.Builder
	inQuote, escaped, started := false, false, false
	for _, r := range command {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && inQuote:
			escaped = true
		case r == '"':
			inQuote = !inQuote
			started = true
		case r == ' ' && !inQuote:
			if started {
				out = append(out, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if started {
		out = append(out, cur.String())
	}
	return out
}

var commentRE = regexp.MustCompile(`\s*/\*.*?\*/`)

// parseFragment reads the object dictionary written by the serializer.
func parseFragment(text string) (map[string]any, error) {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(commentRE.ReplaceAllString(l, ""))
		if l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 || lines[0] != "{" {
		return nil, fmt.Errorf("fragment is not a dictionary")
	}
	pos := 1
	var dict func() (map[string]any, error)
	var array func() []any
	unquote := func(s string) string {
		if uq, err := strconv.Unquote(s); err == nil {
			return uq
		}
		return s
	}
	array = func() []any {
		var out []any
		for pos < len(lines) {
			l := lines[pos]
			pos++
			if l == ");" {
				return out
			}
			out = append(out, unquote(strings.TrimSuffix(l, ",")))
		}
		return out
	}
	dict = func() (map[string]any, error) {
		out := make(map[string]any)
		for pos < len(lines) {
			l := lines[pos]
			pos++
			if l == "}" || l == "};" {
				return out, nil
			}
			key, val, ok := strings.Cut(l, " = ")
			if !ok {
				return nil, fmt.Errorf("bad line %q", l)
			}
			key = unquote(key)
			switch val {
			case "{":
				sub, err := dict()
				if err != nil {
					return nil, err
				}
				out[key] = sub
			case "(":
				out[key] = array()
			default:
				out[key] = unquote(strings.TrimSuffix(val, ";"))
			}
		}
		return nil, fmt.Errorf("unterminated dictionary")
	}
	return dict()
}
