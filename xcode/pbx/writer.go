package pbx

import (
	"fmt"
	"sort"
	"strings"

	"github.com/realAYAYA/xcodegen/internal/debug"
)

// Traverse visits every node reachable from roots depth-first, marking a
// node visited before descending into its references. The result is in
// first-discovery order; each node appears once. Nodes in stop are
// neither visited nor descended into.
func Traverse(roots []*Node, stop map[*Node]bool) []*Node {
	visited := make(map[*Node]bool)
	var order []*Node
	var visit func(n *Node)
	visit = func(n *Node) {
		if n == nil || visited[n] || stop[n] {
			return
		}
		visited[n] = true
		order = append(order, n)
		for _, ref := range n.References() {
			visit(ref)
		}
	}
	for _, r := range roots {
		visit(r)
	}
	return order
}

// Layers returns the settings layers owned by nodes reachable from root,
// in traversal order.
func Layers(root *Node) []*Node {
	var out []*Node
	for _, n := range Traverse([]*Node{root}, nil) {
		if n.Layer != nil {
			out = append(out, n)
		}
	}
	return out
}

func checkUnique(nodes []*Node) error {
	seen := make(map[string]*Node, len(nodes))
	for _, n := range nodes {
		if prev, ok := seen[n.ID]; ok && prev != n {
			return fmt.Errorf("%w: %s used by %s and %s", ErrDuplicateID, n.ID, prev.Name, n.Name)
		}
		seen[n.ID] = n
	}
	return nil
}

// Serialize writes the complete project document rooted at root.
func Serialize(root *Node) ([]byte, error) {
	if root == nil || root.Kind != KindProject {
		return nil, fmt.Errorf("serialize: root must be a project node")
	}
	nodes := Traverse([]*Node{root}, nil)
	if err := checkUnique(nodes); err != nil {
		return nil, err
	}
	debug.Component("pbx").Debug("serializing project document", "project", root.Name, "objects", len(nodes))

	w := &textWriter{}
	w.line(0, "// !$*UTF8*$!")
	w.line(0, "{")
	w.line(1, "archiveVersion = 1;")
	w.line(1, "classes = {")
	w.line(1, "};")
	w.line(1, "objectVersion = 54;")
	w.line(1, "objects = {")
	w.objects(2, nodes)
	w.line(1, "};")
	w.line(1, fmt.Sprintf("rootObject = %s;", ref(root)))
	w.line(0, "}")
	return []byte(w.String()), nil
}

// SerializeFragment writes the objects reachable from roots, excluding
// stop, as a standalone dictionary keyed by identifier. The result can be
// merged into another document's object table.
func SerializeFragment(roots []*Node, stop map[*Node]bool) ([]byte, error) {
	nodes := Traverse(roots, stop)
	if err := checkUnique(nodes); err != nil {
		return nil, err
	}
	w := &textWriter{}
	w.line(0, "{")
	w.objects(1, nodes)
	w.line(0, "}")
	return []byte(w.String()), nil
}

func ref(n *Node) string {
	if n.Name == "" {
		return n.ID
	}
	return fmt.Sprintf("%s /* %s */", n.ID, strings.ReplaceAll(n.Name, "*/", "* /"))
}

type textWriter struct {
	sb strings.Builder
}

func (w *textWriter) String() string { return w.sb.String() }

func (w *textWriter) line(indent int, s string) {
	w.sb.WriteString(strings.Repeat("\t", indent))
	w.sb.WriteString(s)
	w.sb.WriteByte('\n')
}

func (w *textWriter) objects(indent int, nodes []*Node) {
	for _, n := range nodes {
		w.line(indent, ref(n)+" = {")
		w.dict(indent+1, Encode(n))
		w.line(indent, "};")
	}
}

func (w *textWriter) dict(indent int, kvs []KV) {
	for _, kv := range kvs {
		w.value(indent, Quote(kv.Key)+" = ", kv.Value)
	}
}

func (w *textWriter) value(indent int, prefix string, v any) {
	switch val := v.(type) {
	case string:
		w.line(indent, prefix+Quote(val)+";")
	case *Node:
		w.line(indent, prefix+ref(val)+";")
	case []*Node:
		w.line(indent, prefix+"(")
		for _, n := range val {
			w.line(indent+1, ref(n)+",")
		}
		w.line(indent, ");")
	case []string:
		w.line(indent, prefix+"(")
		for _, s := range val {
			w.line(indent+1, Quote(s)+",")
		}
		w.line(indent, ");")
	case []KV:
		w.line(indent, prefix+"{")
		w.dict(indent+1, val)
		w.line(indent, "};")
	case map[string]string:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		kvs := make([]KV, len(keys))
		for i, k := range keys {
			kvs[i] = KV{k, val[k]}
		}
		w.value(indent, prefix, kvs)
	default:
		w.line(indent, prefix+Quote(fmt.Sprint(val))+";")
	}
}
