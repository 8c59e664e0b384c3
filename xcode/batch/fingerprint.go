package batch

import (
	"slices"
	"sort"
	"strings"
)

// Fingerprint identifies compile-setting equivalence. Two modules share a
// batch exactly when their fingerprints are equal.
type Fingerprint struct {
	Macros string
	PCH    string
	RTTI   bool
}

// IsDefault reports whether the fingerprint carries no macros and no
// precompiled header.
func (f Fingerprint) IsDefault() bool {
	return f.Macros == "" && f.PCH == ""
}

// DefaultStrippedMacros are module-identity and manifest macros. Each
// module defines them with its own value, so keeping them would give
// every module a batch of its own.
var DefaultStrippedMacros = []string{
	"UE_MODULE_NAME",
	"UE_PLUGIN_NAME",
	"UBT_MODULE_MANIFEST",
	"UBT_MODULE_MANIFEST_DEBUGGAME",
}

// ExportMarker marks export macros (FOO_API). They are unioned into the
// batch but excluded from the fingerprint.
const ExportMarker = "_API"

// macroName returns the NAME of NAME or NAME=VALUE.
func macroName(macro string) string {
	if i := strings.IndexByte(macro, '='); i >= 0 {
		return macro[:i]
	}
	return macro
}

// splitMacros drops stripped macros and separates export macros from the
// ones that affect compilation.
func splitMacros(macros []string, stripped map[string]bool) (settings, exports []string) {
	for _, m := range macros {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		name := macroName(m)
		if stripped[name] {
			continue
		}
		if strings.Contains(name, ExportMarker) {
			exports = append(exports, m)
			continue
		}
		settings = append(settings, m)
	}
	return settings, exports
}

// canonicalMacros sorts, dedupes and joins macros into the fingerprint
// string.
func canonicalMacros(macros []string) string {
	sorted := append([]string(nil), macros...)
	sort.Strings(sorted)
	return strings.Join(slices.Compact(sorted), ";")
}
