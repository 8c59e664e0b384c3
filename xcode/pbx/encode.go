package pbx

import (
	"path/filepath"
	"strings"
)

// KV is one key/value pair of an object. Value is a string, *Node,
// []*Node, []string or []KV.
type KV struct {
	Key   string
	Value any
}

// encoder produces the attributes of a node after its isa.
type encoder func(n *Node) []KV

var encoders = map[Kind]encoder{
	KindProject:          encodeProject,
	KindRunTarget:        encodeNativeTarget,
	KindIndexTarget:      encodeNativeTarget,
	KindBuildTarget:      encodeLegacyTarget,
	KindConfigList:       encodeConfigList,
	KindBuildConfig:      encodeConfig,
	KindCompilePhase:     encodePhase,
	KindResourcesPhase:   encodePhase,
	KindContainerProxy:   encodeProxy,
	KindTargetDependency: encodeDependency,
	KindGroup:            encodeGroup,
	KindFileRef:          encodeFileRef,
	KindBuildFile:        encodeBuildFile,
}

// Encode returns the full attribute list of n, isa first.
func Encode(n *Node) []KV {
	kvs := []KV{{"isa", n.Kind.ISA()}}
	if enc, ok := encoders[n.Kind]; ok {
		kvs = append(kvs, enc(n)...)
	}
	return kvs
}

func encodeProject(n *Node) []KV {
	d := n.Data.(*ProjectData)
	attrs := []KV{
		{"BuildIndependentTargetsInParallel", "1"},
		{"LastUpgradeCheck", "1500"},
	}
	if d.Organization != "" {
		attrs = append(attrs, KV{"ORGANIZATIONNAME", d.Organization})
	}
	kvs := []KV{
		{"attributes", attrs},
		{"buildConfigurationList", d.ConfigList},
		{"compatibilityVersion", "Xcode 12.0"},
		{"developmentRegion", "en"},
		{"hasScannedForEncodings", "0"},
		{"knownRegions", []string{"en", "Base"}},
		{"mainGroup", d.MainGroup},
	}
	if d.ProductsGroup != nil {
		kvs = append(kvs, KV{"productRefGroup", d.ProductsGroup})
	}
	return append(kvs,
		KV{"projectDirPath", ""},
		KV{"projectRoot", ""},
		KV{"targets", d.Targets},
	)
}

func encodeNativeTarget(n *Node) []KV {
	d := n.Data.(*TargetData)
	kvs := []KV{
		{"buildConfigurationList", d.ConfigList},
		{"buildPhases", d.Phases},
		{"buildRules", []string{}},
		{"dependencies", d.Dependencies},
		{"name", n.Name},
		{"productName", d.ProductName},
	}
	if d.Product != nil {
		kvs = append(kvs, KV{"productReference", d.Product})
	}
	return append(kvs, KV{"productType", d.ProductType})
}

func encodeLegacyTarget(n *Node) []KV {
	d := n.Data.(*TargetData)
	return []KV{
		{"buildArgumentsString", d.BuildArguments},
		{"buildConfigurationList", d.ConfigList},
		{"buildPhases", d.Phases},
		{"buildToolPath", d.BuildToolPath},
		{"buildWorkingDirectory", d.WorkingDirectory},
		{"dependencies", d.Dependencies},
		{"name", n.Name},
		{"passBuildSettingsInEnvironment", "1"},
		{"productName", d.ProductName},
	}
}

func encodeConfigList(n *Node) []KV {
	d := n.Data.(*ConfigListData)
	return []KV{
		{"buildConfigurations", d.Configs},
		{"defaultConfigurationIsVisible", "0"},
		{"defaultConfigurationName", d.DefaultName},
	}
}

func encodeConfig(n *Node) []KV {
	d := n.Data.(*ConfigData)
	var kvs []KV
	if d.BaseConfig != nil {
		kvs = append(kvs, KV{"baseConfigurationReference", d.BaseConfig})
	}
	settings := d.Settings
	if settings == nil {
		settings = []KV{}
	}
	return append(kvs,
		KV{"buildSettings", settings},
		KV{"name", n.Name},
	)
}

func encodePhase(n *Node) []KV {
	d := n.Data.(*PhaseData)
	return []KV{
		{"buildActionMask", "2147483647"},
		{"files", d.Files},
		{"runOnlyForDeploymentPostprocessing", "0"},
	}
}

func encodeProxy(n *Node) []KV {
	d := n.Data.(*ProxyData)
	return []KV{
		{"containerPortal", d.Container},
		{"proxyType", "1"},
		{"remoteGlobalIDString", d.Remote.ID},
		{"remoteInfo", d.RemoteInfo},
	}
}

func encodeDependency(n *Node) []KV {
	d := n.Data.(*DependencyData)
	return []KV{
		{"target", d.Target},
		{"targetProxy", d.Proxy},
	}
}

func encodeGroup(n *Node) []KV {
	d := n.Data.(*GroupData)
	kvs := []KV{{"children", d.Children}}
	if d.Path != "" {
		kvs = append(kvs, KV{"path", d.Path})
	}
	if d.Path == "" || filepath.Base(d.Path) != n.Name {
		kvs = append(kvs, KV{"name", n.Name})
	}
	return append(kvs, KV{"sourceTree", sourceTreeOr(d.SourceTree)})
}

func encodeFileRef(n *Node) []KV {
	d := n.Data.(*FileData)
	var kvs []KV
	if d.ExplicitFileType != "" {
		kvs = append(kvs, KV{"explicitFileType", d.ExplicitFileType})
		kvs = append(kvs, KV{"includeInIndex", "0"})
	} else if d.FileType != "" {
		kvs = append(kvs, KV{"lastKnownFileType", d.FileType})
	}
	if filepath.Base(d.Path) != n.Name {
		kvs = append(kvs, KV{"name", n.Name})
	}
	return append(kvs,
		KV{"path", d.Path},
		KV{"sourceTree", sourceTreeOr(d.SourceTree)},
	)
}

func encodeBuildFile(n *Node) []KV {
	d := n.Data.(*BuildFileData)
	kvs := []KV{{"fileRef", d.File}}
	if d.CompilerFlags != "" {
		kvs = append(kvs, KV{"settings", []KV{{"COMPILER_FLAGS", d.CompilerFlags}}})
	}
	return kvs
}

func sourceTreeOr(tree string) string {
	if tree == "" {
		return "<group>"
	}
	return tree
}

// Quote renders a string in the document's text format. Strings made
// only of safe characters are written bare.
func Quote(s string) string {
	if s == "" {
		return `""`
	}
	safe := true
	for _, r := range s {
		if !isSafeRune(r) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func isSafeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_', r == '$', r == '/', r == ':', r == '.', r == '-':
		return true
	}
	return false
}
