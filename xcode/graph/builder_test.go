package graph

import (
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realAYAYA/xcodegen/xcode/batch"
	"github.com/realAYAYA/xcodegen/xcode/descriptor"
	"github.com/realAYAYA/xcodegen/xcode/files"
	"github.com/realAYAYA/xcodegen/xcode/pbx"
	"github.com/realAYAYA/xcodegen/xcode/project"
)

const lyra = `
product: {name: Lyra}
paths:
  project_root: .
  project_file: Lyra.uproject
platforms: [Mac, IOS]
targets:
  - name: LyraGame
    type: game
  - name: LyraEditor
    type: editor
`

func fixture(t *testing.T) (*project.ProjectMetadata, *files.Collection) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/Lyra/lyra.yaml", []byte(lyra), 0o644))
	d, err := descriptor.Load(fs, "/work/Lyra/lyra.yaml")
	require.NoError(t, err)
	m, err := project.NewProjectMetadata(d, fs)
	require.NoError(t, err)

	_, err = m.Batches.Add(batch.Module{
		Name:  "LyraGame",
		PCH:   "/work/Lyra/Source/LyraGame/LyraGame.h",
		Files: []string{"/work/Lyra/Source/LyraGame/Game.cpp"},
	})
	require.NoError(t, err)

	c := files.NewCollection(m.Batches, m.Paths.ProjectRoot)
	require.NoError(t, c.AddAll([]string{
		"/work/Lyra/Source/LyraGame/Game.cpp",
		"/work/Lyra/Source/LyraGame/Orphan.cpp",
		"/work/Lyra/Content/Splash.png",
	}))
	return m, c
}

func TestBuild_Combined(t *testing.T) {
	m, c := fixture(t)
	doc, err := Build(m, c, Options{})
	require.NoError(t, err)

	assert.Equal(t, "Lyra", doc.Name)
	assert.Equal(t, "/work/Lyra/Lyra.xcodeproj/project.pbxproj", doc.PBXPath())
	assert.Equal(t, "Development", doc.DefaultConfiguration)
	require.Len(t, doc.Run, 2)
	assert.Equal(t, "LyraGame", doc.Run[0].Node.Name)
	assert.Equal(t, "LyraGame.app", doc.Run[0].ProductName)

	// Each run target depends on the Build target exactly once.
	for _, rt := range doc.Run {
		deps := rt.Node.Data.(*pbx.TargetData).Dependencies
		require.Len(t, deps, 1)
		assert.Same(t, doc.Build, deps[0].Data.(*pbx.DependencyData).Target)
	}

	// Only the batched file is compiled by the index target.
	phase := doc.Index.Data.(*pbx.TargetData).Phases[0]
	buildFiles := phase.Data.(*pbx.PhaseData).Files
	require.Len(t, buildFiles, 1)
	bf := buildFiles[0].Data.(*pbx.BuildFileData)
	assert.Equal(t, "@/work/Lyra/Intermediate/ProjectFiles/Lyra/Batches/Batch_1.rsp", bf.CompilerFlags)

	legacy := doc.Build.Data.(*pbx.TargetData)
	assert.Equal(t, `$(UE_BUILD_TARGET_NAME) $(UE_TARGET_PLATFORM) $(UE_BUILD_TARGET_CONFIG) -project="/work/Lyra/Lyra.uproject"`, legacy.BuildArguments)

	out, err := pbx.Serialize(doc.Project)
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "Orphan.cpp", "orphans are still grouped")
	assert.Equal(t, 1, strings.Count(text, "isa = PBXLegacyTarget;"))
	assert.Contains(t, text, "Splash.png")
}

func TestBuild_LayersLintClean(t *testing.T) {
	m, c := fixture(t)
	doc, err := Build(m, c, Options{})
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, l := range doc.Layers {
		names[l.Name] = true
		assert.NoError(t, l.Lint(), l.Name)
		assert.True(t, strings.HasPrefix(l.Path, "/work/Lyra/Lyra.xcodeproj/Xcconfigs/"), l.Path)
	}
	for _, want := range []string{
		"Project.xcconfig",
		"Project_Development.xcconfig",
		"LyraGame.xcconfig",
		"LyraGame_Shipping.xcconfig",
		"LyraEditor_Development_Editor.xcconfig",
		"Lyra_Index.xcconfig",
	} {
		assert.True(t, names[want], want)
	}

	var editorCfg *pbx.Node
	for _, n := range pbx.Layers(doc.Project) {
		if n.Layer.Name == "LyraEditor_Development_Editor.xcconfig" {
			editorCfg = n
		}
	}
	require.NotNil(t, editorCfg)
	v, ok := editorCfg.Layer.Resolve("PRODUCT_NAME")
	assert.True(t, ok)
	assert.Equal(t, "LyraEditor", v)
	v, ok = editorCfg.Layer.Resolve("UE_EXECUTABLE_PATH[sdk=macosx*]")
	assert.True(t, ok)
	assert.Equal(t, "/work/Lyra/Binaries/Mac/LyraEditor.app", v)
}

func TestBuild_PerPlatform(t *testing.T) {
	m, c := fixture(t)
	doc, err := Build(m, c.Clone(), Options{Platform: project.PlatformIOS})
	require.NoError(t, err)

	assert.Equal(t, "Lyra (IOS)", doc.Name)
	require.Len(t, doc.Run, 1, "the editor does not build for IOS")
	list := doc.Project.Data.(*pbx.ProjectData).ConfigList.Data.(*pbx.ConfigListData)
	assert.Equal(t, "IOS", list.Platform)
	for _, cfg := range list.Configs {
		assert.NotContains(t, cfg.Name, "Editor")
	}

	_, err = Build(m, c, Options{Platform: project.PlatformTVOS})
	assert.Error(t, err)
}

func TestBuild_DeterministicIDs(t *testing.T) {
	m1, c1 := fixture(t)
	m2, c2 := fixture(t)
	a, err := Build(m1, c1, Options{})
	require.NoError(t, err)
	b, err := Build(m2, c2, Options{})
	require.NoError(t, err)

	assert.Equal(t, a.Build.ID, b.Build.ID)
	outA, err := pbx.Serialize(a.Project)
	require.NoError(t, err)
	outB, err := pbx.Serialize(b.Project)
	require.NoError(t, err)
	assert.Equal(t, string(outA), string(outB))
}

func TestBuild_NoEntriesForPlatform(t *testing.T) {
	m, c := fixture(t)
	m.Entries = nil
	_, err := Build(m, c, Options{})
	assert.True(t, errors.Is(err, project.ErrNoConfigurations))
}

func TestLayerFileName(t *testing.T) {
	assert.Equal(t, "Project.xcconfig", LayerFileName("Project", ""))
	assert.Equal(t, "Game_Development_Editor_LyraEditor.xcconfig", LayerFileName("Game", "Development Editor (LyraEditor)"))
}
