package pbx

import (
	"fmt"
	"path/filepath"
)

// Graph creates nodes and guarantees their identifiers are unique within
// one project document.
type Graph struct {
	reg   *Registry
	nodes []*Node
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{reg: NewRegistry()}
}

// Len reports how many nodes were created.
func (g *Graph) Len() int {
	return len(g.nodes)
}

func (g *Graph) add(kind Kind, name string, data any, identity ...string) (*Node, error) {
	id, err := g.reg.Claim(identity...)
	if err != nil {
		return nil, err
	}
	n := &Node{ID: id, Kind: kind, Name: name, Data: data}
	g.nodes = append(g.nodes, n)
	return n, nil
}

// NewFileRef creates a file reference. Paths are identified by their
// absolute value, so a file referenced twice must reuse the first node.
func (g *Graph) NewFileRef(path, sourceTree, fileType string) (*Node, error) {
	return g.add(KindFileRef, filepath.Base(path), &FileData{
		Path:       path,
		SourceTree: sourceTree,
		FileType:   fileType,
	}, "file", path)
}

// NewProductRef creates the reference to a target's built product.
func (g *Graph) NewProductRef(target, productPath, explicitType string) (*Node, error) {
	return g.add(KindFileRef, filepath.Base(productPath), &FileData{
		Path:             productPath,
		SourceTree:       "BUILT_PRODUCTS_DIR",
		ExplicitFileType: explicitType,
	}, "product", target)
}

// NewGroup creates a navigator group. scope distinguishes groups with the
// same path in different trees.
func (g *Graph) NewGroup(scope, name, path, sourceTree string) (*Node, error) {
	return g.add(KindGroup, name, &GroupData{Path: path, SourceTree: sourceTree}, "group", scope, path, name)
}

// AddChildren appends children to a group node.
func AddChildren(group *Node, children ...*Node) {
	d := group.Data.(*GroupData)
	d.Children = append(d.Children, children...)
}

// NewBuildFile creates the membership record of file in one phase.
func (g *Graph) NewBuildFile(phase *Node, file *Node, compilerFlags string) (*Node, error) {
	n, err := g.add(KindBuildFile, file.Name, &BuildFileData{File: file, CompilerFlags: compilerFlags}, "buildfile", phase.ID, file.ID)
	if err != nil {
		return nil, err
	}
	pd := phase.Data.(*PhaseData)
	pd.Files = append(pd.Files, n)
	return n, nil
}

// NewPhase creates an empty build phase owned by target.
func (g *Graph) NewPhase(kind Kind, target string) (*Node, error) {
	if kind != KindCompilePhase && kind != KindResourcesPhase {
		return nil, fmt.Errorf("kind %d is not a build phase", kind)
	}
	name := "Sources"
	if kind == KindResourcesPhase {
		name = "Resources"
	}
	return g.add(kind, name, &PhaseData{}, "phase", target, name)
}

// NewConfig creates one build configuration. scope names the owning
// configuration list.
func (g *Graph) NewConfig(scope, name string, base *Node, settings []KV) (*Node, error) {
	return g.add(KindBuildConfig, name, &ConfigData{BaseConfig: base, Settings: settings}, "config", scope, name)
}

// NewConfigList creates a configuration list. It fails without
// configurations, because the list is how valid combinations are
// advertised to the IDE. platform is empty for lists spanning all
// platforms.
func (g *Graph) NewConfigList(scope, platform, defaultName string, configs []*Node) (*Node, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("%s: %w", scope, ErrEmptyConfigList)
	}
	if defaultName == "" {
		defaultName = configs[0].Name
	}
	return g.add(KindConfigList, scope, &ConfigListData{
		Configs:     configs,
		DefaultName: defaultName,
		Platform:    platform,
	}, "configlist", scope, platform)
}

// NewTarget creates a target of one of the target kinds.
func (g *Graph) NewTarget(kind Kind, name string, data *TargetData) (*Node, error) {
	if !kind.IsTarget() {
		return nil, fmt.Errorf("kind %d is not a target", kind)
	}
	return g.add(kind, name, data, "target", kindISA[kind], name)
}

// AddDependency makes from depend on to. The edge is materialized as a
// container proxy plus a target dependency record.
func (g *Graph) AddDependency(project, from, to *Node) (*Node, error) {
	dep, err := g.NewDependency(project, to, from.ID)
	if err != nil {
		return nil, err
	}
	td := from.Data.(*TargetData)
	td.Dependencies = append(td.Dependencies, dep)
	return dep, nil
}

// NewDependency creates a dependency edge onto to without attaching it to
// a dependent target. scope distinguishes edges onto the same target.
func (g *Graph) NewDependency(project, to *Node, scope string) (*Node, error) {
	proxy, err := g.add(KindContainerProxy, "PBXContainerItemProxy", &ProxyData{
		Container:  project,
		Remote:     to,
		RemoteInfo: to.Name,
	}, "proxy", scope, to.ID)
	if err != nil {
		return nil, err
	}
	return g.add(KindTargetDependency, "PBXTargetDependency", &DependencyData{Target: to, Proxy: proxy}, "dependency", scope, to.ID)
}

// NewProject creates the root node.
func (g *Graph) NewProject(name string, data *ProjectData) (*Node, error) {
	return g.add(KindProject, name, data, "project", name)
}
