package generator

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realAYAYA/xcodegen/telemetry"
	"github.com/realAYAYA/xcodegen/xcode/scheme"
)

const lyraDescriptor = `
product: {name: Lyra, organization: Epic Games}
paths:
  project_root: .
  intermediate: Intermediate
platforms: [Mac, IOS]
targets:
  - {name: LyraGame, type: game}
  - {name: LyraEditor, type: editor, platforms: [Mac]}
modules:
  - name: Core
    definitions: Definitions/Core.h
    rtti: false
    user_includes: [Source/Core/Public]
    files: [Source/Core/Core.cpp]
  - name: Engine
    definitions: Definitions/Engine.h
    user_includes: [Source/Engine/Public]
    files: [Source/Engine/Engine.cpp, Source/Engine/World.cpp]
  - name: Scripting
    definitions: Definitions/Core.h
    rtti: true
    files: [Source/Scripting/Lua.cpp]
files: [Source/Core/Public/Core.h, Lyra.uproject]
resources: [Content/Splash.png]
workspace: {mode: %s}
`

const definitions = `#pragma once
#define WITH_EDITOR 1
#define UE_BUILD_DEVELOPMENT 1
`

func setup(t *testing.T, mode string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	doc := strings.Replace(lyraDescriptor, "%s", mode, 1)
	require.NoError(t, afero.WriteFile(fs, "/work/Lyra/lyra.yaml", []byte(doc), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/work/Lyra/Definitions/Core.h", []byte(definitions), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/work/Lyra/Definitions/Engine.h", []byte(definitions), 0o644))
	return fs
}

func TestGenerate_Combined(t *testing.T) {
	fs := setup(t, "combined")
	rec := telemetry.NewRecorder(true)
	g := NewGenerator(fs, Options{Descriptor: "/work/Lyra/lyra.yaml", User: "dev", Recorder: rec})

	res, err := g.Generate(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Documents, 1)
	assert.Equal(t, "Lyra", res.Documents[0].Name)
	require.Len(t, res.Workspaces, 1)
	assert.Empty(t, res.Merged)

	// Core and Engine share definitions; Scripting differs only by RTTI.
	require.Len(t, res.Batches, 2)
	assert.Equal(t, []string{"Core", "Engine"}, res.Batches[0].Modules())
	assert.Equal(t, []string{"Scripting"}, res.Batches[1].Modules())

	for _, p := range []string{
		"/work/Lyra/Lyra.xcodeproj/project.pbxproj",
		"/work/Lyra/Lyra.xcworkspace/contents.xcworkspacedata",
		"/work/Lyra/Lyra.xcworkspace/xcshareddata/WorkspaceSettings.xcsettings",
		"/work/Lyra/Lyra.xcodeproj/xcuserdata/dev.xcuserdatad/xcschemes/xcschememanagement.plist",
		"/work/Lyra/Intermediate/Lyra/Batches/Batch_1.rsp",
		"/work/Lyra/Intermediate/Lyra/Batches/Batch_2.rsp",
	} {
		ok, err := afero.Exists(fs, p)
		require.NoError(t, err)
		assert.True(t, ok, p)
	}

	rsp, err := afero.ReadFile(fs, "/work/Lyra/Intermediate/Lyra/Batches/Batch_2.rsp")
	require.NoError(t, err)
	assert.Contains(t, string(rsp), "-frtti")

	pbxData, err := afero.ReadFile(fs, "/work/Lyra/Lyra.xcodeproj/project.pbxproj")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pbxData), "// !$*UTF8*$!"))
	assert.Contains(t, string(pbxData), "Batch_1.rsp")

	for _, rt := range res.Documents[0].Run {
		ok, _ := afero.Exists(fs, scheme.Path(res.Documents[0], rt))
		assert.True(t, ok, rt.Node.Name)
	}
	assert.NotEmpty(t, rec.Rows())
}

func TestGenerate_Deterministic(t *testing.T) {
	read := func() string {
		fs := setup(t, "combined")
		_, err := NewGenerator(fs, Options{Descriptor: "/work/Lyra/lyra.yaml"}).Generate(context.Background())
		require.NoError(t, err)
		data, err := afero.ReadFile(fs, "/work/Lyra/Lyra.xcodeproj/project.pbxproj")
		require.NoError(t, err)
		return string(data)
	}
	assert.Equal(t, read(), read())
}

func TestGenerate_PerPlatform(t *testing.T) {
	fs := setup(t, "per-platform")
	res, err := NewGenerator(fs, Options{Descriptor: "/work/Lyra/lyra.yaml"}).Generate(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Documents, 2)
	require.Len(t, res.Workspaces, 2)
	for _, w := range res.Workspaces {
		require.Len(t, w.Documents, 1)
		assert.Equal(t, w.Platform, w.Documents[0].Platform)
	}

	contents, err := afero.ReadFile(fs, "/work/Lyra/Lyra (IOS).xcworkspace/contents.xcworkspacedata")
	require.NoError(t, err)
	assert.Contains(t, string(contents), "Lyra (IOS).xcodeproj")
	assert.NotContains(t, string(contents), "Lyra (Mac).xcodeproj")
}

func TestGenerate_ModeOverride(t *testing.T) {
	fs := setup(t, "combined")
	mode := scheme.PerPlatform
	res, err := NewGenerator(fs, Options{Descriptor: "/work/Lyra/lyra.yaml", Mode: &mode, DryRun: true}).Generate(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Workspaces, 2)
	assert.NotEmpty(t, res.Files)

	ok, _ := afero.Exists(fs, "/work/Lyra/Lyra (Mac).xcodeproj/project.pbxproj")
	assert.False(t, ok, "dry run writes nothing")
}

func TestGenerate_MissingTemplateFallsBack(t *testing.T) {
	fs := setup(t, "combined")
	data, err := afero.ReadFile(fs, "/work/Lyra/lyra.yaml")
	require.NoError(t, err)
	withTemplate := strings.Replace(string(data), "  intermediate: Intermediate\n", "  intermediate: Intermediate\n  template: Template/Lyra.xcodeproj\n", 1)
	require.NoError(t, afero.WriteFile(fs, "/work/Lyra/lyra.yaml", []byte(withTemplate), 0o644))

	res, err := NewGenerator(fs, Options{Descriptor: "/work/Lyra/lyra.yaml"}).Generate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Merged)
	assert.Equal(t, []Fallback{{Document: "Lyra", Template: "/work/Lyra/Template/Lyra.xcodeproj/project.pbxproj"}}, res.Fallbacks)
	ok, _ := afero.Exists(fs, "/work/Lyra/Lyra.xcodeproj/project.pbxproj")
	assert.True(t, ok)
}

func TestGenerate_ReportsOrphans(t *testing.T) {
	fs := setup(t, "combined")
	data, err := afero.ReadFile(fs, "/work/Lyra/lyra.yaml")
	require.NoError(t, err)
	withOrphan := strings.Replace(string(data), "files: [Source/Core/Public/Core.h,", "files: [Source/Tools/Stray.cpp, Source/Core/Public/Core.h,", 1)
	require.NoError(t, afero.WriteFile(fs, "/work/Lyra/lyra.yaml", []byte(withOrphan), 0o644))

	res, err := NewGenerator(fs, Options{Descriptor: "/work/Lyra/lyra.yaml", DryRun: true}).Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/work/Lyra/Source/Tools/Stray.cpp"}, res.Orphans)
	assert.Empty(t, res.Fallbacks)
}

func TestGenerate_MissingDefinitionsFails(t *testing.T) {
	fs := setup(t, "combined")
	require.NoError(t, fs.Remove("/work/Lyra/Definitions/Engine.h"))

	_, err := NewGenerator(fs, Options{Descriptor: "/work/Lyra/lyra.yaml"}).Generate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "module Engine")

	ok, _ := afero.Exists(fs, "/work/Lyra/Lyra.xcodeproj")
	assert.False(t, ok, "nothing committed after a failure")
}
