// Package generator runs one full generation pass: it turns a project
// descriptor into project documents, settings layers, response files,
// schemes and workspaces.
package generator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/realAYAYA/xcodegen/internal/debug"
	"github.com/realAYAYA/xcodegen/internal/storage"
	"github.com/realAYAYA/xcodegen/telemetry"
	"github.com/realAYAYA/xcodegen/xcode/batch"
	"github.com/realAYAYA/xcodegen/xcode/descriptor"
	"github.com/realAYAYA/xcodegen/xcode/files"
	"github.com/realAYAYA/xcodegen/xcode/graph"
	"github.com/realAYAYA/xcodegen/xcode/merge"
	"github.com/realAYAYA/xcodegen/xcode/pbx"
	"github.com/realAYAYA/xcodegen/xcode/project"
	"github.com/realAYAYA/xcodegen/xcode/scheme"
	"github.com/realAYAYA/xcodegen/xcode/xcconfig"
)

// Options control one generation pass.
type Options struct {
	// Descriptor is the project descriptor to read.
	Descriptor string
	// Mode overrides the descriptor's workspace mode when set.
	Mode *scheme.Mode
	// User owns the per-user scheme management files. Empty skips them.
	User string
	// Tool edits template documents. Defaults to the system plist editor.
	Tool merge.Tool
	// DryRun stages everything but writes nothing.
	DryRun bool
	// Recorder receives per-phase timings. May be nil.
	Recorder *telemetry.Recorder
}

// Result summarizes a pass.
type Result struct {
	Documents  []*graph.Document
	Workspaces []*scheme.Workspace
	Batches    []*batch.FileBatch
	// Merged lists documents grafted into a template.
	Merged []string
	// Fallbacks lists documents serialized fresh because their template
	// was missing.
	Fallbacks []Fallback
	// Orphans are source files no module claims. They are grouped but not
	// indexed.
	Orphans []string
	// Files are the staged output paths in commit order.
	Files []string
}

// Fallback records a missing template.
type Fallback struct {
	Document string
	Template string
}

// Generator generates project bundles from descriptors.
type Generator struct {
	fs    afero.Fs
	store storage.Storage
	opts  Options
}

// NewGenerator creates a generator reading and writing through fs.
func NewGenerator(fs afero.Fs, opts Options) *Generator {
	debug.Debug("Creating new generator", "descriptor", opts.Descriptor)
	return &Generator{
		fs:    fs,
		store: storage.NewFS(fs, ""),
		opts:  opts,
	}
}

// Generate runs the pass. Outputs are committed only when every phase
// succeeded.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	rec := g.opts.Recorder
	res := &Result{}
	out := storage.NewBundle()

	done := rec.Start("descriptor")
	d, err := descriptor.Load(g.fs, g.opts.Descriptor)
	done(err)
	if err != nil {
		return nil, err
	}

	mode, err := g.mode(d)
	if err != nil {
		return nil, err
	}

	done = rec.Start("metadata")
	m, err := project.NewProjectMetadata(d, g.fs)
	done(err)
	if err != nil {
		return nil, err
	}

	done = rec.Start("partition")
	err = g.partition(d, m)
	done(err)
	if err != nil {
		return nil, err
	}
	res.Batches = m.Batches.Batches()
	for _, b := range res.Batches {
		out.StageString(b.ResponseFile, b.Render())
	}

	done = rec.Start("collect")
	coll, err := g.collect(d, m, res)
	done(err)
	if err != nil {
		return nil, err
	}

	done = rec.Start("graph")
	res.Documents, err = g.documents(m, coll, mode)
	done(err)
	if err != nil {
		return nil, err
	}

	for _, doc := range res.Documents {
		if err := g.emitDocument(ctx, out, m, doc, res); err != nil {
			return nil, err
		}
	}

	done = rec.Start("workspace")
	res.Workspaces, err = scheme.Workspaces(d.Workspace.Name, m.Paths.Output, mode, res.Documents)
	if err == nil {
		err = scheme.EmitWorkspaces(out, res.Workspaces)
	}
	done(err)
	if err != nil {
		return nil, err
	}

	res.Files = out.Paths()
	if g.opts.DryRun {
		debug.Info("Dry run, nothing written", "files", out.Len())
		return res, nil
	}
	done = rec.Start("commit")
	err = out.Commit(ctx, g.store)
	done(err)
	if err != nil {
		return nil, err
	}
	debug.Info("Generation completed", "product", m.ProductName, "documents", len(res.Documents), "files", out.Len())
	return res, nil
}

func (g *Generator) mode(d *descriptor.Descriptor) (scheme.Mode, error) {
	if g.opts.Mode != nil {
		return *g.opts.Mode, nil
	}
	return scheme.ParseMode(d.Workspace.Mode)
}

// partition feeds every module to the batch partitioner in descriptor
// order.
func (g *Generator) partition(d *descriptor.Descriptor, m *project.ProjectMetadata) error {
	for _, dm := range d.Modules {
		mod := batch.Module{
			Name:           dm.Name,
			PCH:            dm.PCH,
			RTTI:           dm.RTTI,
			SystemIncludes: dm.SystemIncludes,
			UserIncludes:   dm.UserIncludes,
			Files:          dm.Files,
		}
		if dm.Definitions != "" {
			macros, err := batch.ReadDefinitions(g.fs, dm.Definitions)
			if err != nil {
				return fmt.Errorf("module %s: %w", dm.Name, err)
			}
			mod.Macros = macros
		}
		if _, err := m.Batches.Add(mod); err != nil {
			return fmt.Errorf("module %s: %w", dm.Name, err)
		}
	}
	debug.Debug("Modules partitioned", "modules", len(d.Modules), "batches", len(m.Batches.Batches()))
	return nil
}

func (g *Generator) collect(d *descriptor.Descriptor, m *project.ProjectMetadata, res *Result) (*files.Collection, error) {
	roots := []string{m.Paths.ProjectRoot}
	if m.Paths.EngineRoot != "" {
		roots = append(roots, m.Paths.EngineRoot)
	}
	c := files.NewCollection(m.Batches, roots...)
	for _, dm := range d.Modules {
		if err := c.AddAll(dm.Files); err != nil {
			return nil, err
		}
	}
	if err := c.AddAll(d.Files); err != nil {
		return nil, err
	}
	if err := c.AddAll(d.Resources); err != nil {
		return nil, err
	}
	for _, f := range c.Orphans() {
		res.Orphans = append(res.Orphans, f.Path)
	}
	if len(res.Orphans) > 0 {
		debug.Warn("Source files without a module", "count", len(res.Orphans))
	}
	return c, nil
}

func (g *Generator) documents(m *project.ProjectMetadata, c *files.Collection, mode scheme.Mode) ([]*graph.Document, error) {
	if mode == scheme.Combined {
		doc, err := graph.Build(m, c, graph.Options{})
		if err != nil {
			return nil, err
		}
		return []*graph.Document{doc}, nil
	}
	var docs []*graph.Document
	for _, p := range m.Platforms() {
		doc, err := graph.Build(m, c.Clone(), graph.Options{Platform: p})
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// emitDocument stages one document's layers, object table and schemes.
func (g *Generator) emitDocument(ctx context.Context, out *storage.Bundle, m *project.ProjectMetadata, doc *graph.Document, res *Result) error {
	rec := g.opts.Recorder

	done := rec.Start("layers " + doc.Name)
	var lintErrs []error
	for _, l := range doc.Layers {
		if err := l.Lint(); err != nil {
			lintErrs = append(lintErrs, err)
		}
		out.StageString(l.Path, l.Render())
	}
	err := errors.Join(lintErrs...)
	done(err)
	if err != nil {
		var vs []xcconfig.Violation
		for _, e := range lintErrs {
			vs = append(vs, xcconfig.Violations(e)...)
		}
		return fmt.Errorf("%s: settings layers shadow overrides:\n%s: %w", doc.Name, xcconfig.Summary(vs), err)
	}

	done = rec.Start("serialize " + doc.Name)
	data, merged, err := g.objectTable(ctx, m, doc, res)
	done(err)
	if err != nil {
		return err
	}
	out.Stage(doc.PBXPath(), data)
	if merged {
		res.Merged = append(res.Merged, doc.Name)
	}

	done = rec.Start("schemes " + doc.Name)
	err = scheme.Emit(ctx, g.store, out, doc, g.opts.User)
	done(err)
	return err
}

// objectTable grafts doc into the configured template, or serializes it
// fresh when no template exists.
func (g *Generator) objectTable(ctx context.Context, m *project.ProjectMetadata, doc *graph.Document, res *Result) ([]byte, bool, error) {
	if tpl := templatePBX(m.Paths.Template); tpl != "" {
		tool := g.opts.Tool
		if tool == nil {
			tool = merge.NewExecTool("")
		}
		data, err := merge.New(tool, g.store).Run(ctx, merge.Plan{
			Template: tpl,
			Output:   doc.PBXPath(),
			Document: doc,
			Settings: deploymentSettings(m, doc),
		})
		switch {
		case err == nil:
			return data, true, nil
		case errors.Is(err, merge.ErrNoTemplate):
			debug.Warn("Template not found, writing fresh document", "template", tpl)
			res.Fallbacks = append(res.Fallbacks, Fallback{Document: doc.Name, Template: tpl})
		default:
			return nil, false, err
		}
	}
	data, err := pbx.Serialize(doc.Project)
	return data, false, err
}

func templatePBX(path string) string {
	if path == "" || strings.HasSuffix(path, ".pbxproj") {
		return path
	}
	return filepath.Join(path, "project.pbxproj")
}

// deploymentSettings are the version settings propagated into template
// configurations.
func deploymentSettings(m *project.ProjectMetadata, doc *graph.Document) map[string]string {
	platforms := m.Platforms()
	if doc.Platform != "" {
		platforms = []project.Platform{doc.Platform}
	}
	settings := make(map[string]string)
	for _, p := range platforms {
		if v, ok := m.DeploymentTargets[p]; ok {
			settings[p.DeploymentTargetKey()] = v.Original()
		}
	}
	return settings
}
