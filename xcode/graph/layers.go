package graph

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/realAYAYA/xcodegen/xcode/project"
	"github.com/realAYAYA/xcodegen/xcode/xcconfig"
)

// Settings read by the build tool invocation of the Build target.
const (
	SettingTargetName     = "UE_BUILD_TARGET_NAME"
	SettingTargetConfig   = "UE_BUILD_TARGET_CONFIG"
	SettingTargetPlatform = "UE_TARGET_PLATFORM"
	SettingProjectFile    = "UE_PROJECT_FILE"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9]+`)

// LayerFileName returns the settings file name for an owner and an
// optional configuration, e.g. "LyraGame_Development_Editor.xcconfig".
func LayerFileName(owner, config string) string {
	name := owner
	if config != "" {
		name += "_" + strings.Trim(unsafeName.ReplaceAllString(config, "_"), "_")
	}
	return name + ".xcconfig"
}

type layerSet struct {
	dir string
	all []*xcconfig.Layer
}

func (s *layerSet) add(owner, config string) *xcconfig.Layer {
	name := LayerFileName(owner, config)
	l := xcconfig.New(name, filepath.Join(s.dir, name))
	s.all = append(s.all, l)
	return l
}

// projectLayer holds project-wide settings. It includes nothing, so every
// other layer can include it last.
func (b *builder) projectLayer() *xcconfig.Layer {
	l := b.layers.add("Project", "")
	l.Comment("Project-wide settings for " + b.meta.ProductName)
	l.Set("PRODUCT_NAME_STRIPPED", b.meta.StrippedProductName())
	if b.meta.Paths.ProjectFile != "" {
		l.Set(SettingProjectFile, b.meta.Paths.ProjectFile)
	}

	var sdks []string
	for _, p := range b.platforms {
		sdks = append(sdks, p.SDKRoot())
	}
	l.Set("SUPPORTED_PLATFORMS", strings.Join(sdks, " "))
	l.Set("SDKROOT", b.platforms[0].SDKRoot())
	for _, p := range b.platforms {
		l.SetFiltered(SettingTargetPlatform, p.SDKFilter(), string(p))
		l.Set(p.DeploymentTargetKey(), b.meta.DeploymentTargets[p].Original())
	}

	l.Set("ALWAYS_SEARCH_USER_PATHS", "NO")
	l.Set("USE_HEADERMAP", "NO")
	l.Set("ONLY_ACTIVE_ARCH", "YES")
	l.Set("CLANG_CXX_LANGUAGE_STANDARD", "c++20")
	l.Set("GCC_PRECOMPILE_PREFIX_HEADER", "NO")
	return l
}

// projectConfigLayer carries the build tool arguments of one entry. Target
// level settings inherit them through the configuration name.
func (b *builder) projectConfigLayer(e project.BuildConfigEntry, base *xcconfig.Layer) *xcconfig.Layer {
	l := b.layers.add("Project", e.DisplayName())
	l.Set(SettingTargetName, e.BuildTarget())
	l.Set(SettingTargetConfig, string(e.Configuration()))
	l.Include(base)
	return l
}

// targetLayer holds settings shared by every configuration of a Run
// target.
func (b *builder) targetLayer(t *project.Target, base *xcconfig.Layer) *xcconfig.Layer {
	l := b.layers.add(t.Name, "")
	l.Set("PRODUCT_NAME", t.Name)
	if t.Type.IsApplication() {
		l.Set("PRODUCT_BUNDLE_IDENTIFIER", b.meta.BundleIDTemplate)
	}
	for _, p := range b.platforms {
		if !t.Supports(p) {
			continue
		}
		filter := p.SDKFilter()
		l.SetFiltered("ARCHS", filter, strings.Join(b.meta.Archs.Lookup(t, p), " "))
		if !t.Type.IsApplication() {
			continue
		}
		for _, s := range b.meta.PlistSettings(p) {
			l.SetFiltered(s.Key, filter, s.Value)
		}
		for _, s := range b.meta.EntitlementsSettings(p) {
			l.SetFiltered(s.Key, filter, s.Value)
		}
	}
	l.Include(base)
	return l
}

// targetConfigLayer points one Run target configuration at the binaries
// the build tool produces.
func (b *builder) targetConfigLayer(e project.BuildConfigEntry, base *xcconfig.Layer) *xcconfig.Layer {
	l := b.layers.add(e.BuildTarget(), e.DisplayName())
	for _, p := range b.platforms {
		exe, ok := e.ExecutablePath(p)
		if !ok {
			continue
		}
		filter := p.SDKFilter()
		l.SetFiltered("CONFIGURATION_BUILD_DIR", filter, filepath.Dir(exe))
		l.SetFiltered("UE_EXECUTABLE_PATH", filter, exe)
	}
	l.Include(base)
	return l
}

// indexLayer configures the indexing-only target. Compiler flags come
// from per-file response files.
func (b *builder) indexLayer(base *xcconfig.Layer) *xcconfig.Layer {
	l := b.layers.add(b.meta.ProductName, "Index")
	l.Set("PRODUCT_NAME", b.indexName())
	l.Set("CLANG_ENABLE_MODULES", "NO")
	l.Set("COMPILER_INDEX_STORE_ENABLE", "YES")
	l.Set("SKIP_INSTALL", "YES")
	l.Include(base)
	return l
}
