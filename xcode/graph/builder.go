// Package graph builds the project document graph for one product: the
// project node, its Run, Build and Index targets, configuration lists,
// settings layers and the navigator group tree.
package graph

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/realAYAYA/xcodegen/internal/debug"
	"github.com/realAYAYA/xcodegen/xcode/files"
	"github.com/realAYAYA/xcodegen/xcode/pbx"
	"github.com/realAYAYA/xcodegen/xcode/project"
	"github.com/realAYAYA/xcodegen/xcode/xcconfig"
)

// Product types and file types of generated targets.
const (
	ProductTypeApplication = "com.apple.product-type.application"
	ProductTypeTool        = "com.apple.product-type.tool"
	ProductTypeLibrary     = "com.apple.product-type.library.static"
)

// Options selects the platform scope of a document.
type Options struct {
	// Platform restricts the document to one platform. Empty builds one
	// document spanning every supported platform.
	Platform project.Platform
}

// RunTarget describes a generated Run target for scheme emission.
type RunTarget struct {
	Node        *pbx.Node
	Target      *project.Target
	ProductName string
}

// Document is one generated project document.
type Document struct {
	// Name is the bundle name without extension, platform-suffixed for
	// single-platform documents.
	Name     string
	Dir      string
	Platform project.Platform

	Graph     *pbx.Graph
	Project   *pbx.Node
	MainGroup *pbx.Node
	Build     *pbx.Node
	Index     *pbx.Node
	Run       []RunTarget

	// DefaultConfiguration is the configuration schemes launch with.
	DefaultConfiguration string
	Layers               []*xcconfig.Layer

	templateDep *pbx.Node
}

// TemplateDependency returns the dependency edge onto the Build target
// that template application targets are wired to. It is created once.
func (d *Document) TemplateDependency() (*pbx.Node, error) {
	if d.templateDep != nil {
		return d.templateDep, nil
	}
	dep, err := d.Graph.NewDependency(d.Project, d.Build, "template")
	if err != nil {
		return nil, err
	}
	d.templateDep = dep
	return dep, nil
}

// Path is the document's .xcodeproj directory.
func (d *Document) Path() string {
	return filepath.Join(d.Dir, d.Name+".xcodeproj")
}

// PBXPath is the object table file inside the bundle.
func (d *Document) PBXPath() string {
	return filepath.Join(d.Path(), "project.pbxproj")
}

// DocumentName returns the bundle name for a product and platform scope.
func DocumentName(product string, p project.Platform) string {
	if p == "" {
		return product
	}
	return fmt.Sprintf("%s (%s)", product, p)
}

type builder struct {
	meta      *project.ProjectMetadata
	coll      *files.Collection
	doc       *Document
	g         *pbx.Graph
	entries   []project.BuildConfigEntry
	platforms []project.Platform
	layers    layerSet

	layerRefs map[*xcconfig.Layer]*pbx.Node
	fileRefs  map[*files.File]*pbx.Node
	products  []*pbx.Node
}

// Build constructs the document for m. The collection is read only; pass
// a clone when building documents for several platforms.
func Build(m *project.ProjectMetadata, c *files.Collection, opts Options) (*Document, error) {
	log := debug.Component("graph")

	b := &builder{
		meta:      m,
		coll:      c,
		g:         pbx.NewGraph(),
		layerRefs: make(map[*xcconfig.Layer]*pbx.Node),
		fileRefs:  make(map[*files.File]*pbx.Node),
	}
	if opts.Platform != "" {
		if !m.Supported[opts.Platform] {
			return nil, fmt.Errorf("platform %s is not supported by %s", opts.Platform, m.ProductName)
		}
		b.platforms = []project.Platform{opts.Platform}
	} else {
		b.platforms = m.Platforms()
	}
	b.entries = m.EntriesFor(opts.Platform)
	if len(b.entries) == 0 || len(b.platforms) == 0 {
		return nil, &project.ConfigError{
			Product: m.ProductName,
			Reason:  fmt.Sprintf("no configurations for platform %q", opts.Platform),
			Err:     project.ErrNoConfigurations,
		}
	}

	b.doc = &Document{
		Name:                 DocumentName(m.ProductName, opts.Platform),
		Dir:                  m.Paths.Output,
		Platform:             opts.Platform,
		Graph:                b.g,
		DefaultConfiguration: b.defaultConfiguration(),
	}
	b.layers.dir = filepath.Join(b.doc.Path(), "Xcconfigs")

	log.Debug("building project document", "document", b.doc.Name, "entries", len(b.entries), "files", c.Len())
	if err := b.build(); err != nil {
		return nil, fmt.Errorf("build %s: %w", b.doc.Name, err)
	}
	b.doc.Layers = b.layers.all
	log.Debug("project document built", "document", b.doc.Name, "nodes", b.g.Len(), "layers", len(b.doc.Layers))
	return b.doc, nil
}

func (b *builder) defaultConfiguration() string {
	for _, e := range b.entries {
		if e.DisplayName() == string(project.DefaultConfiguration) {
			return e.DisplayName()
		}
	}
	return b.entries[0].DisplayName()
}

func (b *builder) platformScope() string {
	return string(b.doc.Platform)
}

func (b *builder) indexName() string {
	return b.meta.ProductName + "_Index"
}

func (b *builder) build() error {
	base := b.projectLayer()
	projectConfigs, err := b.configList("Project", b.entries, func(e project.BuildConfigEntry) *xcconfig.Layer {
		return b.projectConfigLayer(e, base)
	})
	if err != nil {
		return err
	}

	buildTarget, err := b.buildTarget()
	if err != nil {
		return err
	}
	indexTarget, err := b.indexTarget(base)
	if err != nil {
		return err
	}

	var targets []*pbx.Node
	for _, t := range b.meta.Targets {
		entries := b.entriesOf(t)
		if len(entries) == 0 {
			continue
		}
		run, err := b.runTarget(t, entries, base)
		if err != nil {
			return err
		}
		targets = append(targets, run)
		b.doc.Run = append(b.doc.Run, RunTarget{Node: run, Target: t, ProductName: productFileName(t)})
	}
	targets = append(targets, buildTarget, indexTarget)

	mainGroup, products, err := b.groups()
	if err != nil {
		return err
	}

	proj, err := b.g.NewProject(b.doc.Name, &pbx.ProjectData{
		ConfigList:    projectConfigs,
		MainGroup:     mainGroup,
		ProductsGroup: products,
		Targets:       targets,
		Organization:  b.meta.Organization,
	})
	if err != nil {
		return err
	}
	proj.Layer = base

	for _, rt := range b.doc.Run {
		if _, err := b.g.AddDependency(proj, rt.Node, buildTarget); err != nil {
			return err
		}
	}

	b.doc.Project = proj
	b.doc.MainGroup = mainGroup
	b.doc.Build = buildTarget
	b.doc.Index = indexTarget
	return nil
}

func (b *builder) entriesOf(t *project.Target) []project.BuildConfigEntry {
	var out []project.BuildConfigEntry
	for _, e := range b.entries {
		if e.Target() == t {
			out = append(out, e)
		}
	}
	return out
}

// layerRef returns the file reference used as a configuration's base.
func (b *builder) layerRef(l *xcconfig.Layer) (*pbx.Node, error) {
	if ref, ok := b.layerRefs[l]; ok {
		return ref, nil
	}
	ref, err := b.g.NewFileRef(l.Path, "<absolute>", "text.xcconfig")
	if err != nil {
		return nil, err
	}
	b.layerRefs[l] = ref
	return ref, nil
}

// configList creates one configuration per entry. layer, when non-nil,
// returns the settings layer the configuration is based on and owns.
func (b *builder) configList(scope string, entries []project.BuildConfigEntry, layer func(project.BuildConfigEntry) *xcconfig.Layer) (*pbx.Node, error) {
	var configs []*pbx.Node
	for _, e := range entries {
		var l *xcconfig.Layer
		var ref *pbx.Node
		if layer != nil {
			l = layer(e)
			var err error
			if ref, err = b.layerRef(l); err != nil {
				return nil, err
			}
		}
		cfg, err := b.g.NewConfig(scope, e.DisplayName(), ref, nil)
		if err != nil {
			return nil, err
		}
		cfg.Layer = l
		configs = append(configs, cfg)
	}
	def := b.doc.DefaultConfiguration
	if !hasConfig(configs, def) && len(configs) > 0 {
		def = configs[0].Name
	}
	return b.g.NewConfigList(scope, b.platformScope(), def, configs)
}

// sharedConfigList bases every configuration on the same layer, owned by
// the list's target rather than by each configuration.
func (b *builder) sharedConfigList(scope string, l *xcconfig.Layer) (*pbx.Node, error) {
	ref, err := b.layerRef(l)
	if err != nil {
		return nil, err
	}
	var configs []*pbx.Node
	for _, e := range b.entries {
		cfg, err := b.g.NewConfig(scope, e.DisplayName(), ref, nil)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return b.g.NewConfigList(scope, b.platformScope(), b.doc.DefaultConfiguration, configs)
}

func hasConfig(configs []*pbx.Node, name string) bool {
	for _, c := range configs {
		if c.Name == name {
			return true
		}
	}
	return false
}

// buildTarget shells out to the build tool with the target name, platform
// and configuration resolved from settings, and the project file.
func (b *builder) buildTarget() (*pbx.Node, error) {
	name := b.meta.ProductName + "_Build"
	list, err := b.configList(name, b.entries, nil)
	if err != nil {
		return nil, err
	}
	args := []string{
		"$(" + SettingTargetName + ")",
		"$(" + SettingTargetPlatform + ")",
		"$(" + SettingTargetConfig + ")",
	}
	if b.meta.Paths.ProjectFile != "" {
		args = append(args, fmt.Sprintf("-project=\"%s\"", b.meta.Paths.ProjectFile))
	}
	root := b.meta.Paths.EngineRoot
	if root == "" {
		root = b.meta.Paths.ProjectRoot
	}
	return b.g.NewTarget(pbx.KindBuildTarget, name, &pbx.TargetData{
		ProductName:      name,
		ConfigList:       list,
		BuildToolPath:    b.meta.Paths.BuildTool,
		BuildArguments:   strings.Join(args, " "),
		WorkingDirectory: root,
	})
}

// indexTarget compiles every batched file with its response file so the
// indexer sees the real compiler settings. It never produces a usable
// binary.
func (b *builder) indexTarget(base *xcconfig.Layer) (*pbx.Node, error) {
	name := b.indexName()
	layer := b.indexLayer(base)
	list, err := b.sharedConfigList(name, layer)
	if err != nil {
		return nil, err
	}

	phase, err := b.g.NewPhase(pbx.KindCompilePhase, name)
	if err != nil {
		return nil, err
	}
	for _, f := range b.coll.Batched() {
		ref, err := b.fileRef(f)
		if err != nil {
			return nil, err
		}
		if _, err := b.g.NewBuildFile(phase, ref, "@"+f.Batch.ResponseFile); err != nil {
			return nil, err
		}
	}

	product, err := b.g.NewProductRef(name, "lib"+name+".a", "archive.ar")
	if err != nil {
		return nil, err
	}
	b.products = append(b.products, product)

	n, err := b.g.NewTarget(pbx.KindIndexTarget, name, &pbx.TargetData{
		ProductName: name,
		ProductType: ProductTypeLibrary,
		ConfigList:  list,
		Phases:      []*pbx.Node{phase},
		Product:     product,
	})
	if err != nil {
		return nil, err
	}
	n.Layer = layer
	return n, nil
}

func productFileName(t *project.Target) string {
	if t.Type.IsApplication() {
		return t.Name + ".app"
	}
	return t.Name
}

// runTarget is the user-facing target schemes launch. Its binary is
// produced by the Build target it depends on.
func (b *builder) runTarget(t *project.Target, entries []project.BuildConfigEntry, base *xcconfig.Layer) (*pbx.Node, error) {
	layer := b.targetLayer(t, base)
	list, err := b.configList(t.Name, entries, func(e project.BuildConfigEntry) *xcconfig.Layer {
		return b.targetConfigLayer(e, layer)
	})
	if err != nil {
		return nil, err
	}

	productType, explicit := ProductTypeTool, "compiled.mach-o.executable"
	if t.Type.IsApplication() {
		productType, explicit = ProductTypeApplication, "wrapper.application"
	}
	product, err := b.g.NewProductRef(t.Name, productFileName(t), explicit)
	if err != nil {
		return nil, err
	}
	b.products = append(b.products, product)

	var phases []*pbx.Node
	if t.Type.IsApplication() {
		phase, err := b.g.NewPhase(pbx.KindResourcesPhase, t.Name)
		if err != nil {
			return nil, err
		}
		for _, f := range b.coll.OfKind(files.Resource) {
			ref, err := b.fileRef(f)
			if err != nil {
				return nil, err
			}
			if _, err := b.g.NewBuildFile(phase, ref, ""); err != nil {
				return nil, err
			}
		}
		phases = append(phases, phase)
	}

	n, err := b.g.NewTarget(pbx.KindRunTarget, t.Name, &pbx.TargetData{
		ProductName: t.Name,
		ProductType: productType,
		ConfigList:  list,
		Phases:      phases,
		Product:     product,
	})
	if err != nil {
		return nil, err
	}
	n.Layer = layer
	return n, nil
}

func (b *builder) fileRef(f *files.File) (*pbx.Node, error) {
	if ref, ok := b.fileRefs[f]; ok {
		return ref, nil
	}
	ref, err := b.g.NewFileRef(f.Path, "<absolute>", f.FileType)
	if err != nil {
		return nil, err
	}
	b.fileRefs[f] = ref
	return ref, nil
}

// groups mirrors the collection into group nodes under a generated root,
// followed by the settings layers and products.
func (b *builder) groups() (root, products *pbx.Node, err error) {
	root, err = b.g.NewGroup("root", b.meta.ProductName, "", "<group>")
	if err != nil {
		return nil, nil, err
	}
	for _, fg := range b.coll.Groups() {
		n, err := b.group(fg, true)
		if err != nil {
			return nil, nil, err
		}
		pbx.AddChildren(root, n)
	}

	xcconfigs, err := b.g.NewGroup("root", "Xcconfigs", "", "<group>")
	if err != nil {
		return nil, nil, err
	}
	for _, l := range b.layers.all {
		ref, err := b.layerRef(l)
		if err != nil {
			return nil, nil, err
		}
		pbx.AddChildren(xcconfigs, ref)
	}
	pbx.AddChildren(root, xcconfigs)

	products, err = b.g.NewGroup("root", "Products", "", "<group>")
	if err != nil {
		return nil, nil, err
	}
	pbx.AddChildren(products, b.products...)
	pbx.AddChildren(root, products)
	return root, products, nil
}

func (b *builder) group(fg *files.Group, top bool) (*pbx.Node, error) {
	var n *pbx.Node
	var err error
	switch {
	case fg.Path == "":
		n, err = b.g.NewGroup("catchall", fg.Name, "", "<group>")
	case top:
		n, err = b.g.NewGroup(fg.Path, fg.Name, fg.Path, "<absolute>")
	default:
		n, err = b.g.NewGroup(fg.Path, fg.Name, fg.Name, "<group>")
	}
	if err != nil {
		return nil, err
	}
	for _, sub := range fg.Groups {
		child, err := b.group(sub, false)
		if err != nil {
			return nil, err
		}
		pbx.AddChildren(n, child)
	}
	for _, f := range fg.Files {
		ref, err := b.fileRef(f)
		if err != nil {
			return nil, err
		}
		pbx.AddChildren(n, ref)
	}
	return n, nil
}
