package xcconfig

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func targetLayers() (project, target, config *Layer) {
	project = New("Project", "/p/Xcconfigs/Project.xcconfig")
	project.Set("CLANG_CXX_LANGUAGE_STANDARD", "c++20")
	project.Set("SDKROOT", "macosx")

	target = New("Game", "/p/Xcconfigs/Game.xcconfig")
	target.SetFiltered("SDKROOT", "sdk=iphoneos*", "iphoneos")
	target.Set("PRODUCT_NAME", "Game")
	target.Include(project)

	config = New("Game_Debug", "/p/Xcconfigs/Game_Debug.xcconfig")
	config.Set("PRODUCT_NAME", "Game-Mac-Debug")
	config.Include(target)
	return project, target, config
}

func TestLayer_RenderAndResolve(t *testing.T) {
	_, target, config := targetLayers()

	assert.Equal(t, "SDKROOT[sdk=iphoneos*] = iphoneos\nPRODUCT_NAME = Game\n#include \"Project.xcconfig\"\n", target.Render())

	v, ok := config.Resolve("PRODUCT_NAME")
	require.True(t, ok)
	assert.Equal(t, "Game-Mac-Debug", v, "first occurrence wins")

	v, ok = config.Resolve("SDKROOT")
	require.True(t, ok)
	assert.Equal(t, "macosx", v)

	v, ok = config.Resolve("SDKROOT[sdk=iphoneos*]")
	require.True(t, ok)
	assert.Equal(t, "iphoneos", v)

	_, ok = config.Resolve("MISSING")
	assert.False(t, ok)

	require.NoError(t, config.Lint())
}

func TestLayer_LintShadowedOverride(t *testing.T) {
	_, target, _ := targetLayers()

	bad := New("Game_Shipping", "/p/Xcconfigs/Game_Shipping.xcconfig")
	bad.Include(target)
	bad.Set("PRODUCT_NAME", "Game-Mac-Shipping")
	bad.Set("CLANG_CXX_LANGUAGE_STANDARD", "c++17")
	bad.Set("NEW_KEY", "1")

	err := bad.Lint()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShadowedOverride))

	vs := Violations(err)
	require.Len(t, vs, 2)
	assert.Equal(t, "PRODUCT_NAME", vs[0].Key)
	assert.Equal(t, "Game", vs[0].Included)
	assert.Equal(t, "CLANG_CXX_LANGUAGE_STANDARD", vs[1].Key)
	assert.Contains(t, Summary(vs), "Game_Shipping")
}

func TestLayer_LintCycle(t *testing.T) {
	a := New("A", "/a.xcconfig")
	b := New("B", "/b.xcconfig")
	a.Include(b)
	b.Include(a)

	err := a.Lint()
	assert.True(t, errors.Is(err, ErrIncludeCycle))

	_, ok := a.Resolve("X")
	assert.False(t, ok)
}

func TestParse_RoundTrip(t *testing.T) {
	_, _, config := targetLayers()
	text := "// Generated\n" + config.Render() + "OTHER_CFLAGS[arch=arm64] = -DFOO=1 $(inherited)\n"

	l, err := ParseString("/p/Xcconfigs/Game_Debug.xcconfig", text)
	require.NoError(t, err)

	st := l.Statements()
	require.Len(t, st, 4)
	assert.Equal(t, StatementComment, st[0].Kind)
	assert.Equal(t, "Generated", st[0].Text)
	assert.Equal(t, "PRODUCT_NAME", st[1].Key)
	assert.Equal(t, "Game-Mac-Debug", st[1].Value)
	assert.Equal(t, StatementInclude, st[2].Kind)
	assert.Equal(t, "Game.xcconfig", st[2].IncludePath)
	assert.Equal(t, "OTHER_CFLAGS[arch=arm64]", st[3].FullKey())
	assert.Equal(t, "-DFOO=1 $(inherited)", st[3].Value)
}

func TestLoadTree_LintsFromDisk(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/x/Base.xcconfig", []byte("A = 1\nB = 2\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/x/Good.xcconfig", []byte("A = 3\n#include \"Base.xcconfig\"\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/x/Bad.xcconfig", []byte("#include \"Base.xcconfig\"\nB = 4\n#include? \"Missing.xcconfig\"\n"), 0o644))

	good, err := LoadTree(fs, "/x/Good.xcconfig")
	require.NoError(t, err)
	require.NoError(t, good.Lint())
	v, _ := good.Resolve("A")
	assert.Equal(t, "3", v)

	bad, err := LoadTree(fs, "/x/Bad.xcconfig")
	require.NoError(t, err)
	vs := Violations(bad.Lint())
	require.Len(t, vs, 1)
	assert.Equal(t, "B", vs[0].Key)
}
