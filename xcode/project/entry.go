package project

import "sort"

// BuildConfigEntry is one advertised build configuration: a configuration
// of one target, with the executable it produces on each platform.
// Entries are immutable after construction.
type BuildConfigEntry struct {
	displayName string
	buildTarget string
	exePaths    map[Platform]string
	target      *Target
	config      Configuration
}

// NewBuildConfigEntry builds an entry; exePaths is copied.
func NewBuildConfigEntry(displayName string, target *Target, config Configuration, exePaths map[Platform]string) BuildConfigEntry {
	exes := make(map[Platform]string, len(exePaths))
	for k, v := range exePaths {
		exes[k] = v
	}
	return BuildConfigEntry{
		displayName: displayName,
		buildTarget: target.Name,
		exePaths:    exes,
		target:      target,
		config:      config,
	}
}

func (e BuildConfigEntry) DisplayName() string          { return e.displayName }
func (e BuildConfigEntry) BuildTarget() string          { return e.buildTarget }
func (e BuildConfigEntry) Target() *Target              { return e.target }
func (e BuildConfigEntry) Configuration() Configuration { return e.config }

// ExecutablePath returns the binary built for p, if the entry supports p.
func (e BuildConfigEntry) ExecutablePath(p Platform) (string, bool) {
	path, ok := e.exePaths[p]
	return path, ok
}

// SupportsPlatform reports whether the entry builds for p.
func (e BuildConfigEntry) SupportsPlatform(p Platform) bool {
	_, ok := e.exePaths[p]
	return ok
}

// Platforms returns the entry's platforms in canonical order.
func (e BuildConfigEntry) Platforms() []Platform {
	out := make([]Platform, 0, len(e.exePaths))
	for p := range e.exePaths {
		out = append(out, p)
	}
	order := make(map[Platform]int)
	for i, p := range AllPlatforms {
		order[p] = i
	}
	sort.Slice(out, func(i, j int) bool { return order[out[i]] < order[out[j]] })
	return out
}
