// Package pbx models the project document as a graph of typed nodes and
// serializes it into the IDE's object-table text format.
package pbx

import (
	"errors"

	"github.com/realAYAYA/xcodegen/xcode/xcconfig"
)

var (
	// ErrDuplicateID is returned when two nodes would share an identifier.
	ErrDuplicateID = errors.New("duplicate object identifier")

	// ErrEmptyConfigList is returned when a configuration list would hold
	// no configurations.
	ErrEmptyConfigList = errors.New("configuration list has no configurations")
)

// Kind tags the node variants.
type Kind int

const (
	KindProject Kind = iota
	KindRunTarget
	KindBuildTarget
	KindIndexTarget
	KindConfigList
	KindBuildConfig
	KindCompilePhase
	KindResourcesPhase
	KindContainerProxy
	KindTargetDependency
	KindGroup
	KindFileRef
	KindBuildFile
)

var kindISA = map[Kind]string{
	KindProject:          "PBXProject",
	KindRunTarget:        "PBXNativeTarget",
	KindBuildTarget:      "PBXLegacyTarget",
	KindIndexTarget:      "PBXNativeTarget",
	KindConfigList:       "XCConfigurationList",
	KindBuildConfig:      "XCBuildConfiguration",
	KindCompilePhase:     "PBXSourcesBuildPhase",
	KindResourcesPhase:   "PBXResourcesBuildPhase",
	KindContainerProxy:   "PBXContainerItemProxy",
	KindTargetDependency: "PBXTargetDependency",
	KindGroup:            "PBXGroup",
	KindFileRef:          "PBXFileReference",
	KindBuildFile:        "PBXBuildFile",
}

// ISA is the object class written to the document.
func (k Kind) ISA() string {
	return kindISA[k]
}

// IsTarget reports whether k is one of the target kinds.
func (k Kind) IsTarget() bool {
	return k == KindRunTarget || k == KindBuildTarget || k == KindIndexTarget
}

// Node is one object of the project document. Data holds the payload for
// the node's Kind; references to other nodes are derived from it.
type Node struct {
	ID    string
	Kind  Kind
	Name  string
	Layer *xcconfig.Layer
	Data  any
}

// ProjectData is the payload of KindProject.
type ProjectData struct {
	ConfigList    *Node
	MainGroup     *Node
	ProductsGroup *Node
	Targets       []*Node
	Organization  string
}

// TargetData is the payload of the target kinds.
type TargetData struct {
	ProductName  string
	ProductType  string
	ConfigList   *Node
	Phases       []*Node
	Dependencies []*Node
	Product      *Node

	// Build tool invocation, used by KindBuildTarget.
	BuildToolPath    string
	BuildArguments   string
	WorkingDirectory string
}

// ConfigListData is the payload of KindConfigList. An empty Platform
// means the list applies to every platform.
type ConfigListData struct {
	Configs     []*Node
	DefaultName string
	Platform    string
}

// ConfigData is the payload of KindBuildConfig.
type ConfigData struct {
	BaseConfig *Node
	Settings   []KV
}

// PhaseData is the payload of the build phase kinds.
type PhaseData struct {
	Files []*Node
}

// ProxyData is the payload of KindContainerProxy.
type ProxyData struct {
	Container  *Node
	Remote     *Node
	RemoteInfo string
}

// DependencyData is the payload of KindTargetDependency.
type DependencyData struct {
	Target *Node
	Proxy  *Node
}

// GroupData is the payload of KindGroup.
type GroupData struct {
	Children   []*Node
	Path       string
	SourceTree string
}

// FileData is the payload of KindFileRef.
type FileData struct {
	Path             string
	SourceTree       string
	FileType         string
	ExplicitFileType string
	IncludeInIndex   bool
}

// BuildFileData is the payload of KindBuildFile.
type BuildFileData struct {
	File          *Node
	CompilerFlags string
}

// References returns the nodes n points at, in serialization order.
func (n *Node) References() []*Node {
	var refs []*Node
	add := func(nodes ...*Node) {
		for _, r := range nodes {
			if r != nil {
				refs = append(refs, r)
			}
		}
	}
	switch d := n.Data.(type) {
	case *ProjectData:
		add(d.ConfigList, d.MainGroup, d.ProductsGroup)
		add(d.Targets...)
	case *TargetData:
		add(d.ConfigList)
		add(d.Phases...)
		add(d.Dependencies...)
		add(d.Product)
	case *ConfigListData:
		add(d.Configs...)
	case *ConfigData:
		add(d.BaseConfig)
	case *PhaseData:
		add(d.Files...)
	case *ProxyData:
		add(d.Container, d.Remote)
	case *DependencyData:
		add(d.Target, d.Proxy)
	case *GroupData:
		add(d.Children...)
	case *BuildFileData:
		add(d.File)
	}
	return refs
}
