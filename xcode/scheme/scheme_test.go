package scheme

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"howett.net/plist"

	"github.com/realAYAYA/xcodegen/internal/storage"
	"github.com/realAYAYA/xcodegen/xcode/descriptor"
	"github.com/realAYAYA/xcodegen/xcode/files"
	"github.com/realAYAYA/xcodegen/xcode/graph"
	"github.com/realAYAYA/xcodegen/xcode/project"
)

const lyraDescriptor = `
product: {name: Lyra}
paths: {project_root: /work/Lyra}
platforms: [Mac, IOS]
targets: [{name: LyraGame, type: game}]
`

func metadata(t *testing.T, fs afero.Fs) *project.ProjectMetadata {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, "/work/Lyra/lyra.yaml", []byte(lyraDescriptor), 0o644))
	d, err := descriptor.Load(fs, "/work/Lyra/lyra.yaml")
	require.NoError(t, err)
	m, err := project.NewProjectMetadata(d, fs)
	require.NoError(t, err)
	return m
}

func build(t *testing.T, m *project.ProjectMetadata, p project.Platform) *graph.Document {
	t.Helper()
	c := files.NewCollection(m.Batches, m.Paths.ProjectRoot)
	require.NoError(t, c.AddAll([]string{"/work/Lyra/Source/Game.cpp"}))
	doc, err := graph.Build(m, c, graph.Options{Platform: p})
	require.NoError(t, err)
	return doc
}

const previousScheme = `<?xml version="1.0" encoding="UTF-8"?>
<Scheme LastUpgradeVersion="1400" version="1.7">
   <LaunchAction buildConfiguration="Development">
      <CommandLineArguments>
         <CommandLineArgument argument="-log &amp; -windowed" isEnabled="YES"></CommandLineArgument>
      </CommandLineArguments>
   </LaunchAction>
</Scheme>`

func TestNew_ReferencesTargets(t *testing.T) {
	doc := build(t, metadata(t, afero.NewMemMapFs()), "")
	require.Len(t, doc.Run, 1)
	rt := doc.Run[0]

	s, err := New(doc, rt, nil)
	require.NoError(t, err)
	require.Len(t, s.BuildAction.Entries, 2)
	assert.Equal(t, doc.Build.ID, s.BuildAction.Entries[0].Reference.BlueprintIdentifier)
	assert.Equal(t, rt.Node.ID, s.BuildAction.Entries[1].Reference.BlueprintIdentifier)
	assert.Equal(t, "container:Lyra.xcodeproj", s.BuildAction.Entries[1].Reference.ReferencedContainer)
	assert.Equal(t, doc.DefaultConfiguration, s.LaunchAction.BuildConfiguration)
	assert.Nil(t, s.LaunchAction.CommandLineArguments)

	data, err := s.Render()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, string(data), `BlueprintIdentifier="`+rt.Node.ID+`"`)
}

func TestNew_PreservesArguments(t *testing.T) {
	doc := build(t, metadata(t, afero.NewMemMapFs()), "")
	s, err := New(doc, doc.Run[0], []byte(previousScheme))
	require.NoError(t, err)
	require.NotNil(t, s.LaunchAction.CommandLineArguments)

	data, err := s.Render()
	require.NoError(t, err)
	assert.Contains(t, string(data), `argument="-log &amp; -windowed"`)

	again, err := PreservedArguments(data)
	require.NoError(t, err)
	assert.Equal(t, s.LaunchAction.CommandLineArguments.Inner, again.Inner, "round trips verbatim")
}

func TestEmit_ReadsPreviousScheme(t *testing.T) {
	fs := afero.NewMemMapFs()
	doc := build(t, metadata(t, fs), "")
	path := Path(doc, doc.Run[0])
	require.NoError(t, afero.WriteFile(fs, path, []byte(previousScheme), 0o644))

	out := storage.NewBundle()
	require.NoError(t, Emit(context.Background(), storage.NewFS(fs, ""), out, doc, "dev"))

	data, ok := out.Get(path)
	require.True(t, ok)
	assert.Contains(t, string(data), "CommandLineArguments")

	mgmt, ok := out.Get(ManagementPath(doc, "dev"))
	require.True(t, ok)
	assert.Contains(t, string(mgmt), "<key>"+doc.Run[0].Node.ID+"</key>")
	assert.Contains(t, string(mgmt), "<integer>0</integer>")
}

func TestManagement_ReadableByPlistDecoder(t *testing.T) {
	doc := build(t, metadata(t, afero.NewMemMapFs()), "")
	data, err := Management(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN"`)

	var decoded schemeManagement
	format, err := plist.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, plist.XMLFormat, format)

	require.Len(t, decoded.SchemeUserState, len(doc.Run))
	for i, rt := range doc.Run {
		assert.Equal(t, i, decoded.SchemeUserState[FileName(rt)+"_^#shared#^_"].OrderHint)
		assert.True(t, decoded.SuppressBuildableAutocreation[rt.Node.ID].Primary)
	}
}

func TestEmit_UnreadableSchemeReplaced(t *testing.T) {
	fs := afero.NewMemMapFs()
	doc := build(t, metadata(t, fs), "")
	path := Path(doc, doc.Run[0])
	require.NoError(t, afero.WriteFile(fs, path, []byte("<Scheme"), 0o644))

	out := storage.NewBundle()
	require.NoError(t, Emit(context.Background(), storage.NewFS(fs, ""), out, doc, ""))
	data, ok := out.Get(path)
	require.True(t, ok)
	assert.NotContains(t, string(data), "CommandLineArguments")
	assert.Equal(t, 1, out.Len(), "no management file without a user")
}

func TestWorkspaces_PerPlatform(t *testing.T) {
	m := metadata(t, afero.NewMemMapFs())
	mac := build(t, m, project.PlatformMac)
	ios := build(t, m, project.PlatformIOS)

	ws, err := Workspaces("Lyra", "/work/Lyra", PerPlatform, []*graph.Document{ios, mac})
	require.NoError(t, err)
	require.Len(t, ws, 2)

	assert.Equal(t, "Lyra (Mac)", ws[0].Name)
	assert.Equal(t, []*graph.Document{mac}, ws[0].Documents)
	assert.Equal(t, "Lyra (IOS)", ws[1].Name)
	assert.Equal(t, []*graph.Document{ios}, ws[1].Documents)

	contents, err := ws[1].Contents()
	require.NoError(t, err)
	assert.Contains(t, string(contents), `location="group:Lyra (IOS).xcodeproj"`)
	assert.NotContains(t, string(contents), "Lyra (Mac)")
}

func TestWorkspaces_Combined(t *testing.T) {
	m := metadata(t, afero.NewMemMapFs())
	combined := build(t, m, "")

	ws, err := Workspaces("Lyra", "/work/Lyra", Combined, []*graph.Document{combined})
	require.NoError(t, err)
	require.Len(t, ws, 1)
	assert.Equal(t, []*graph.Document{combined}, ws[0].Documents)

	_, err = Workspaces("Lyra", "/work/Lyra", Combined, nil)
	assert.Error(t, err)

	_, err = Workspaces("Lyra", "/work/Lyra", PerPlatform, []*graph.Document{combined})
	assert.Error(t, err, "spanning documents belong to no platform workspace")

	out := storage.NewBundle()
	require.NoError(t, EmitWorkspaces(out, ws))
	settings, ok := out.Get("/work/Lyra/Lyra.xcworkspace/xcshareddata/WorkspaceSettings.xcsettings")
	require.True(t, ok)
	assert.Contains(t, string(settings), "<false/>")
	_, ok = out.Get("/work/Lyra/Lyra.xcworkspace/contents.xcworkspacedata")
	assert.True(t, ok)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("per-platform")
	require.NoError(t, err)
	assert.Equal(t, PerPlatform, m)
	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, Combined, m)
	_, err = ParseMode("each")
	assert.Error(t, err)
}
