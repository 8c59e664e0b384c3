// Package files mirrors source and resource files into the group tree shown
// in the IDE navigator and records which file batch backs each source file.
package files

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/realAYAYA/xcodegen/internal/debug"
	"github.com/realAYAYA/xcodegen/xcode/batch"
)

const (
	// ProjectGroup holds buildable files that live outside every root.
	ProjectGroup = "Project"
	// ExternalGroup holds passive references outside every root.
	ExternalGroup = "External"
)

// BatchLookup resolves the batch backing a compiled file.
type BatchLookup interface {
	BatchForFile(path string) (*batch.FileBatch, bool)
}

// File is one file known to the collection.
type File struct {
	Path     string
	Kind     Kind
	FileType string
	// Batch is nil for non-source files and for source files no module
	// claims.
	Batch *batch.FileBatch
}

// Name is the file's base name.
func (f *File) Name() string { return filepath.Base(f.Path) }

// Group is a navigator group. Path is the absolute directory it mirrors;
// catch-all groups have no path.
type Group struct {
	Name   string
	Path   string
	Groups []*Group
	Files  []*File

	byName map[string]*Group
}

func newGroup(name, path string) *Group {
	return &Group{Name: name, Path: path, byName: make(map[string]*Group)}
}

func (g *Group) child(name string) *Group {
	if c, ok := g.byName[name]; ok {
		return c
	}
	c := newGroup(name, filepath.Join(g.Path, name))
	g.byName[name] = c
	g.Groups = append(g.Groups, c)
	return c
}

func (g *Group) clone(files map[*File]*File) *Group {
	c := newGroup(g.Name, g.Path)
	for _, sub := range g.Groups {
		sc := sub.clone(files)
		c.Groups = append(c.Groups, sc)
		c.byName[sc.Name] = sc
	}
	for _, f := range g.Files {
		c.Files = append(c.Files, files[f])
	}
	return c
}

// Walk calls fn for g and every descendant group, parents first.
func (g *Group) Walk(fn func(*Group)) {
	fn(g)
	for _, sub := range g.Groups {
		sub.Walk(fn)
	}
}

// Collection is the set of files shown in one project, grouped by
// directory under the project and engine roots.
type Collection struct {
	roots   []*Group
	project *Group
	extern  *Group

	files   map[string]*File
	order   []*File
	batches BatchLookup
}

// NewCollection creates an empty collection grouping files under roots.
// batches may be nil, in which case no file is backed by a batch.
func NewCollection(batches BatchLookup, roots ...string) *Collection {
	c := &Collection{
		project: newGroup(ProjectGroup, ""),
		extern:  newGroup(ExternalGroup, ""),
		files:   make(map[string]*File),
		batches: batches,
	}
	seen := make(map[string]bool)
	for _, r := range roots {
		if r == "" {
			continue
		}
		r = filepath.Clean(r)
		if seen[r] {
			continue
		}
		seen[r] = true
		c.roots = append(c.roots, newGroup(filepath.Base(r), r))
	}
	// Longest root first so a nested root claims its own files.
	sort.SliceStable(c.roots, func(i, j int) bool {
		return len(c.roots[i].Path) > len(c.roots[j].Path)
	})
	return c
}

// Add registers an absolute path. Adding a path twice returns the first
// File.
func (c *Collection) Add(path string) (*File, error) {
	if !filepath.IsAbs(path) {
		return nil, fmt.Errorf("file %q is not absolute", path)
	}
	path = filepath.Clean(path)
	if f, ok := c.files[path]; ok {
		return f, nil
	}

	kind, fileType := Classify(path)
	f := &File{Path: path, Kind: kind, FileType: fileType}
	if kind == Source && c.batches != nil {
		if b, ok := c.batches.BatchForFile(path); ok {
			f.Batch = b
		} else {
			debug.Component("files").Debug("source file has no batch", "file", path)
		}
	}
	c.files[path] = f
	c.order = append(c.order, f)
	c.place(f)
	return f, nil
}

// AddAll registers every path, stopping at the first error.
func (c *Collection) AddAll(paths []string) error {
	for _, p := range paths {
		if _, err := c.Add(p); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collection) place(f *File) {
	for _, root := range c.roots {
		rel, ok := within(root.Path, f.Path)
		if !ok {
			continue
		}
		g := root
		parts := strings.Split(filepath.Dir(rel), string(filepath.Separator))
		for _, part := range parts {
			if part == "." || part == "" {
				continue
			}
			g = g.child(part)
		}
		g.Files = append(g.Files, f)
		return
	}
	if f.Kind == Reference {
		c.extern.Files = append(c.extern.Files, f)
	} else {
		c.project.Files = append(c.project.Files, f)
	}
}

func within(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

// Lookup returns the file registered at path.
func (c *Collection) Lookup(path string) (*File, bool) {
	f, ok := c.files[filepath.Clean(path)]
	return f, ok
}

// Files returns every file in registration order.
func (c *Collection) Files() []*File {
	return append([]*File(nil), c.order...)
}

// Len reports the number of distinct files.
func (c *Collection) Len() int { return len(c.order) }

// Batched returns source files backed by a batch, in registration order.
func (c *Collection) Batched() []*File {
	var out []*File
	for _, f := range c.order {
		if f.Batch != nil {
			out = append(out, f)
		}
	}
	return out
}

// Orphans returns source files no module claimed.
func (c *Collection) Orphans() []*File {
	var out []*File
	for _, f := range c.order {
		if f.Kind == Source && f.Batch == nil {
			out = append(out, f)
		}
	}
	return out
}

// OfKind returns files of kind k in registration order.
func (c *Collection) OfKind(k Kind) []*File {
	var out []*File
	for _, f := range c.order {
		if f.Kind == k {
			out = append(out, f)
		}
	}
	return out
}

// Groups returns the top-level groups: one per non-empty root, collapsed
// to the narrowest directory containing its files, then the Project and
// External catch-all groups when they hold files.
func (c *Collection) Groups() []*Group {
	var out []*Group
	for i := len(c.roots) - 1; i >= 0; i-- {
		root := c.roots[i]
		if len(root.Groups) == 0 && len(root.Files) == 0 {
			continue
		}
		out = append(out, narrowest(root))
	}
	if len(c.project.Files) > 0 {
		out = append(out, c.project)
	}
	if len(c.extern.Files) > 0 {
		out = append(out, c.extern)
	}
	return out
}

func narrowest(g *Group) *Group {
	for len(g.Files) == 0 && len(g.Groups) == 1 {
		g = g.Groups[0]
	}
	return g
}

// Clone returns a deep copy sharing no groups or files with c. Batches are
// shared since they are read-only after partitioning.
func (c *Collection) Clone() *Collection {
	files := make(map[*File]*File, len(c.order))
	out := &Collection{
		files:   make(map[string]*File, len(c.files)),
		batches: c.batches,
	}
	for _, f := range c.order {
		cp := *f
		files[f] = &cp
		out.files[cp.Path] = &cp
		out.order = append(out.order, &cp)
	}
	for _, r := range c.roots {
		out.roots = append(out.roots, r.clone(files))
	}
	out.project = c.project.clone(files)
	out.extern = c.extern.clone(files)
	return out
}
