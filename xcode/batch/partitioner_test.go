package batch

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitioner_SharedPCHWithoutDefinitions(t *testing.T) {
	p := NewPartitioner("/int/Batches")

	a, err := p.Add(Module{Name: "A", PCH: "/src/Shared.h"})
	require.NoError(t, err)
	b, err := p.Add(Module{Name: "B", PCH: "/src/Shared.h"})
	require.NoError(t, err)
	c, err := p.Add(Module{Name: "C", PCH: "/src/Shared.h", RTTI: true})
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, []string{"A", "B"}, a.Modules())
	assert.Len(t, p.Batches(), 2)
}

func TestPartitioner_FingerprintFields(t *testing.T) {
	base := Module{Name: "base", Macros: []string{"WITH_EDITOR=1", "PLATFORM_MAC=1"}, PCH: "/pch.h"}

	tests := []struct {
		name  string
		other Module
		same  bool
	}{
		{"identical macros in another order", Module{Macros: []string{"PLATFORM_MAC=1", "WITH_EDITOR=1"}, PCH: "/pch.h"}, true},
		{"identity macros ignored", Module{Macros: []string{"PLATFORM_MAC=1", "WITH_EDITOR=1", "UE_MODULE_NAME=\"Other\""}, PCH: "/pch.h"}, true},
		{"export macros ignored", Module{Macros: []string{"PLATFORM_MAC=1", "WITH_EDITOR=1", "OTHER_API=DLLEXPORT"}, PCH: "/pch.h"}, true},
		{"different macro value", Module{Macros: []string{"PLATFORM_MAC=1", "WITH_EDITOR=0"}, PCH: "/pch.h"}, false},
		{"different pch", Module{Macros: []string{"PLATFORM_MAC=1", "WITH_EDITOR=1"}, PCH: "/other.h"}, false},
		{"different rtti", Module{Macros: []string{"PLATFORM_MAC=1", "WITH_EDITOR=1"}, PCH: "/pch.h", RTTI: true}, false},
		{"repeated macro", Module{Macros: []string{"WITH_EDITOR=1", "PLATFORM_MAC=1", "WITH_EDITOR=1"}, PCH: "/pch.h"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPartitioner("/int")
			first, err := p.Add(base)
			require.NoError(t, err)
			tt.other.Name = "other"
			second, err := p.Add(tt.other)
			require.NoError(t, err)

			if tt.same {
				assert.Same(t, first, second)
			} else {
				assert.NotSame(t, first, second)
				assert.Equal(t, 2, second.Index)
			}
		})
	}
}

func TestPartitioner_MonotonicGrowth(t *testing.T) {
	p := NewPartitioner("/int")

	b, err := p.Add(Module{
		Name:           "Core",
		Macros:         []string{"CORE_API=DLLEXPORT"},
		SystemIncludes: []string{"/sys/a"},
		UserIncludes:   []string{"/usr/a"},
		Files:          []string{"/src/a.cpp"},
	})
	require.NoError(t, err)
	fp := b.Fingerprint

	before := map[string]int{
		"sys": len(b.SystemIncludes()), "usr": len(b.UserIncludes()),
		"exp": len(b.ExportMacros()), "mod": len(b.Modules()), "files": len(b.Files()),
	}

	_, err = p.Add(Module{
		Name:           "Engine",
		Macros:         []string{"ENGINE_API=DLLEXPORT"},
		SystemIncludes: []string{"/sys/a", "/sys/b"},
		UserIncludes:   nil,
		Files:          []string{"/src/b.cpp", "/src/a.cpp"},
	})
	require.NoError(t, err)

	assert.Equal(t, fp, b.Fingerprint, "fingerprint must not change after assignment")
	assert.GreaterOrEqual(t, len(b.SystemIncludes()), before["sys"])
	assert.GreaterOrEqual(t, len(b.UserIncludes()), before["usr"])
	assert.Equal(t, []string{"/sys/a", "/sys/b"}, b.SystemIncludes())
	assert.Equal(t, []string{"CORE_API=DLLEXPORT", "ENGINE_API=DLLEXPORT"}, b.ExportMacros())
	assert.Equal(t, []string{"Core", "Engine"}, b.Modules())
	assert.Equal(t, []string{"/src/a.cpp", "/src/b.cpp"}, b.Files())
}

func TestPartitioner_FileBelongsToOneBatch(t *testing.T) {
	p := NewPartitioner("/int")

	first, err := p.Add(Module{Name: "A", Files: []string{"/src/shared.cpp"}})
	require.NoError(t, err)
	second, err := p.Add(Module{Name: "B", RTTI: true, Files: []string{"/src/shared.cpp"}})
	require.NoError(t, err)

	owner, ok := p.BatchForFile("/src/shared.cpp")
	require.True(t, ok)
	assert.Same(t, first, owner)
	assert.Empty(t, second.Files())

	_, ok = p.BatchForFile("/src/orphan.cpp")
	assert.False(t, ok)
}

func TestPartitioner_CleansFilePaths(t *testing.T) {
	p := NewPartitioner("/int")

	core, err := p.Add(Module{Name: "Core", Files: []string{"/p/Source//Core/A.cpp"}})
	require.NoError(t, err)
	other, err := p.Add(Module{Name: "Other", RTTI: true, Files: []string{"/p/Source/Core/./A.cpp"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"/p/Source/Core/A.cpp"}, core.Files())
	assert.Empty(t, other.Files(), "one file, one batch regardless of spelling")

	for _, path := range []string{"/p/Source/Core/A.cpp", "/p/Source//Core/A.cpp"} {
		owner, ok := p.BatchForFile(path)
		require.True(t, ok, path)
		assert.Same(t, core, owner)
	}
}

func TestPartitioner_RejectsDuplicateModule(t *testing.T) {
	p := NewPartitioner("/int")
	_, err := p.Add(Module{Name: "A"})
	require.NoError(t, err)
	_, err = p.Add(Module{Name: "A"})
	assert.Error(t, err)
	_, err = p.Add(Module{})
	assert.Error(t, err)
}

func TestFileBatch_Render(t *testing.T) {
	p := NewPartitioner("/int/Batches")
	b, err := p.Add(Module{
		Name:           "Core",
		Macros:         []string{"WITH_EDITOR=1", "CORE_API=DLLEXPORT", "UE_MODULE_NAME=\"Core\""},
		PCH:            "/src/Core PCH.h",
		SystemIncludes: []string{"/sys"},
		UserIncludes:   []string{"/usr"},
	})
	require.NoError(t, err)

	assert.Equal(t, "/int/Batches/Batch_1.rsp", b.ResponseFile)
	assert.Equal(t, "-I/sys\n-I/usr\n-DWITH_EDITOR=1\n-DCORE_API=DLLEXPORT\n-include \"/src/Core PCH.h\"\n-fno-rtti\n", b.Render())
}

func TestReadDefinitions(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/defs.h", []byte(`#pragma once
#define WITH_EDITOR 1
#define UE_BUILD_DEVELOPMENT
  #define CORE_API DLLEXPORT
// #define IGNORED 1
`), 0o644))

	macros, err := ReadDefinitions(fs, "/defs.h")
	require.NoError(t, err)
	assert.Equal(t, []string{"WITH_EDITOR=1", "UE_BUILD_DEVELOPMENT", "CORE_API=DLLEXPORT"}, macros)

	_, err = ReadDefinitions(fs, "/missing.h")
	assert.Error(t, err)
}
