package merge

import (
	"fmt"
	"sort"
	"strings"
)

// ParseTree reads the editor's Print output into nested map[string]any,
// []any and string values.
func ParseTree(text string) (any, error) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	p := &treeParser{lines: lines}
	v, err := p.value(strings.TrimSpace(p.next()))
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.lines) {
		return nil, fmt.Errorf("line %d: trailing content", p.pos+1)
	}
	return v, nil
}

type treeParser struct {
	lines []string
	pos   int
}

func (p *treeParser) next() string {
	if p.pos >= len(p.lines) {
		return ""
	}
	l := p.lines[p.pos]
	p.pos++
	return l
}

func (p *treeParser) value(head string) (any, error) {
	switch head {
	case "Dict {":
		return p.dict()
	case "Array {":
		return p.array()
	}
	return head, nil
}

func (p *treeParser) dict() (map[string]any, error) {
	out := make(map[string]any)
	for p.pos < len(p.lines) {
		line := strings.TrimSpace(p.next())
		if line == "}" {
			return out, nil
		}
		key, rest, ok := strings.Cut(line, " = ")
		if !ok {
			// Empty strings print as "key = " and lose the space when trimmed.
			if key, ok = strings.CutSuffix(line, " ="); !ok {
				return nil, fmt.Errorf("line %d: expected key = value", p.pos)
			}
		}
		v, err := p.value(rest)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return nil, fmt.Errorf("unterminated dict")
}

func (p *treeParser) array() ([]any, error) {
	var out []any
	for p.pos < len(p.lines) {
		line := strings.TrimSpace(p.next())
		if line == "}" {
			return out, nil
		}
		v, err := p.value(line)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return nil, fmt.Errorf("unterminated array")
}

// object is one entry of the document's object table.
type object map[string]any

func (o object) str(key string) string {
	s, _ := o[key].(string)
	return s
}

func (o object) refs(key string) []string {
	arr, _ := o[key].([]any)
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// objectTable is the parsed :objects dictionary.
type objectTable map[string]object

func newObjectTable(tree any) (objectTable, error) {
	m, ok := tree.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("objects is not a dictionary")
	}
	out := make(objectTable, len(m))
	for id, v := range m {
		if o, ok := v.(map[string]any); ok {
			out[id] = object(o)
		}
	}
	return out, nil
}

// ids returns object identifiers of class isa, sorted so commands are
// issued in a stable order.
func (t objectTable) ids(isa string) []string {
	var out []string
	for id, o := range t {
		if isa == "" || o.str("isa") == isa {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
