// Package batch assigns compiled files to file batches: groups of modules
// whose compiler settings are identical and can therefore share one
// response file.
package batch

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/realAYAYA/xcodegen/internal/debug"
)

// Module is the compile environment of one module as handed over by the
// surrounding build system.
type Module struct {
	Name string
	// Macros are the definitions read from the forced-include source, nil
	// when the module relies on a precompiled header instead.
	Macros         []string
	PCH            string
	RTTI           bool
	SystemIncludes []string
	UserIncludes   []string
	Files          []string
}

// FileBatch is the set of modules sharing one fingerprint. Batches only
// grow; they are never merged or shrunk.
type FileBatch struct {
	Index        int
	Fingerprint  Fingerprint
	ResponseFile string

	systemIncludes stringSet
	userIncludes   stringSet
	macros         stringSet
	exportMacros   stringSet
	modules        []string
	files          []string
}

func (b *FileBatch) SystemIncludes() []string { return b.systemIncludes.sorted() }
func (b *FileBatch) UserIncludes() []string   { return b.userIncludes.sorted() }
func (b *FileBatch) Macros() []string         { return b.macros.sorted() }
func (b *FileBatch) ExportMacros() []string   { return b.exportMacros.sorted() }

// Modules returns member modules in assignment order.
func (b *FileBatch) Modules() []string { return append([]string(nil), b.modules...) }

// Files returns member files in assignment order.
func (b *FileBatch) Files() []string { return append([]string(nil), b.files...) }

// Option configures a Partitioner.
type Option func(*Partitioner)

// WithStrippedMacros replaces the identity macros removed before
// fingerprinting.
func WithStrippedMacros(names ...string) Option {
	return func(p *Partitioner) {
		p.stripped = make(map[string]bool, len(names))
		for _, n := range names {
			p.stripped[n] = true
		}
	}
}

// Partitioner classifies modules into batches.
type Partitioner struct {
	dir      string
	stripped map[string]bool

	batches  []*FileBatch
	byKey    map[Fingerprint]*FileBatch
	byModule map[string]*FileBatch
	byFile   map[string]*FileBatch
}

// NewPartitioner creates a partitioner whose response files live in dir.
func NewPartitioner(dir string, opts ...Option) *Partitioner {
	p := &Partitioner{
		dir:      dir,
		byKey:    make(map[Fingerprint]*FileBatch),
		byModule: make(map[string]*FileBatch),
		byFile:   make(map[string]*FileBatch),
	}
	WithStrippedMacros(DefaultStrippedMacros...)(p)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FingerprintOf computes the batch key for m without assigning it.
func (p *Partitioner) FingerprintOf(m Module) Fingerprint {
	settings, _ := splitMacros(m.Macros, p.stripped)
	return Fingerprint{
		Macros: canonicalMacros(settings),
		PCH:    m.PCH,
		RTTI:   m.RTTI,
	}
}

// Add classifies m, reusing the batch with the same fingerprint or
// allocating the next one. A module with neither macros nor a PCH lands in
// the shared default batch for its RTTI setting.
func (p *Partitioner) Add(m Module) (*FileBatch, error) {
	if m.Name == "" {
		return nil, fmt.Errorf("module without a name")
	}
	if _, dup := p.byModule[m.Name]; dup {
		return nil, fmt.Errorf("module %s already classified", m.Name)
	}
	log := debug.Component("batch")

	settings, exports := splitMacros(m.Macros, p.stripped)
	key := Fingerprint{Macros: canonicalMacros(settings), PCH: m.PCH, RTTI: m.RTTI}

	b, ok := p.byKey[key]
	if !ok {
		index := len(p.batches) + 1
		b = &FileBatch{
			Index:        index,
			Fingerprint:  key,
			ResponseFile: filepath.Join(p.dir, fmt.Sprintf("Batch_%d.rsp", index)),
		}
		p.batches = append(p.batches, b)
		p.byKey[key] = b
		log.Debug("allocated batch", "index", index, "module", m.Name, "pch", m.PCH, "rtti", m.RTTI, "default", key.IsDefault())
	}

	b.systemIncludes.addAll(m.SystemIncludes)
	b.userIncludes.addAll(m.UserIncludes)
	b.macros.addAll(settings)
	b.exportMacros.addAll(exports)
	b.modules = append(b.modules, m.Name)
	p.byModule[m.Name] = b

	for _, f := range m.Files {
		f = filepath.Clean(f)
		if owner, taken := p.byFile[f]; taken {
			log.Debug("file already batched", "file", f, "batch", owner.Index, "module", m.Name)
			continue
		}
		p.byFile[f] = b
		b.files = append(b.files, f)
	}
	return b, nil
}

// Batches returns batches in allocation order.
func (p *Partitioner) Batches() []*FileBatch {
	return append([]*FileBatch(nil), p.batches...)
}

// BatchForFile returns the batch backing a compiled file. Paths are
// compared cleaned.
func (p *Partitioner) BatchForFile(path string) (*FileBatch, bool) {
	b, ok := p.byFile[filepath.Clean(path)]
	return b, ok
}

// BatchForModule returns the batch a module was assigned to.
func (p *Partitioner) BatchForModule(name string) (*FileBatch, bool) {
	b, ok := p.byModule[name]
	return b, ok
}

type stringSet map[string]struct{}

func (s *stringSet) addAll(items []string) {
	if *s == nil {
		*s = make(stringSet)
	}
	for _, it := range items {
		(*s)[it] = struct{}{}
	}
}

func (s stringSet) sorted() []string {
	out := make([]string, 0, len(s))
	for it := range s {
		out = append(out, it)
	}
	sort.Strings(out)
	return out
}
