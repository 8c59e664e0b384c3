package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/hashicorp/go-version"
	"github.com/spf13/afero"

	"github.com/realAYAYA/xcodegen/internal/debug"
	"github.com/realAYAYA/xcodegen/xcode/batch"
	"github.com/realAYAYA/xcodegen/xcode/descriptor"
)

// ErrNoConfigurations is returned when no platform, configuration and
// target combination is valid. An empty matrix would produce a document
// the IDE cannot build.
var ErrNoConfigurations = errors.New("no valid platform/configuration/target combination")

// ConfigError describes a fatal configuration problem for one product.
type ConfigError struct {
	Product string
	Reason  string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("project %s: %s: %v", e.Product, e.Reason, e.Err)
	}
	return fmt.Sprintf("project %s: %s", e.Product, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Setting is a single build setting produced by metadata resolution.
type Setting struct {
	Key   string
	Value string
}

// defaultDeploymentTargets apply when the descriptor names none.
var defaultDeploymentTargets = map[Platform]string{
	PlatformMac:      "12.0",
	PlatformIOS:      "15.0",
	PlatformTVOS:     "15.0",
	PlatformVisionOS: "1.0",
}

// Paths are the absolute locations one run reads from and writes to.
type Paths struct {
	ProjectRoot  string
	EngineRoot   string
	Intermediate string
	Output       string
	BuildTool    string
	ProjectFile  string
	Template     string
}

// ProjectMetadata owns everything resolved before graph construction.
type ProjectMetadata struct {
	ProductName      string
	DisplayName      string
	Organization     string
	BundleIDTemplate string
	Paths            Paths

	Targets           []*Target
	Entries           []BuildConfigEntry
	Supported         map[Platform]bool
	DeploymentTargets map[Platform]*version.Version

	Plist        map[Platform]MetadataDescriptor
	Entitlements map[Platform]MetadataDescriptor

	// Batches partitions module compile settings into response files.
	Batches *batch.Partitioner

	Archs *ArchCache
}

var nonIdent = regexp.MustCompile(`[^A-Za-z0-9]`)

// NewProjectMetadata resolves d into the metadata for one run. fs is
// consulted to decide whether plist and entitlements files already exist.
func NewProjectMetadata(d *descriptor.Descriptor, fs afero.Fs) (*ProjectMetadata, error) {
	log := debug.Component("project")

	m := &ProjectMetadata{
		ProductName:  d.Product.Name,
		DisplayName:  d.Product.DisplayName,
		Organization: d.Product.Organization,
		Paths: Paths{
			ProjectRoot:  d.Paths.ProjectRoot,
			EngineRoot:   d.Paths.EngineRoot,
			Intermediate: d.Paths.Intermediate,
			Output:       d.Paths.Output,
			BuildTool:    d.Paths.BuildTool,
			ProjectFile:  d.Paths.ProjectFile,
			Template:     d.Paths.Template,
		},
		Supported:         make(map[Platform]bool),
		DeploymentTargets: make(map[Platform]*version.Version),
		Plist:             make(map[Platform]MetadataDescriptor),
		Entitlements:      make(map[Platform]MetadataDescriptor),
	}
	if m.DisplayName == "" {
		m.DisplayName = m.ProductName
	}
	m.BundleIDTemplate = bundleIDTemplate(d.Product)
	if m.Paths.BuildTool == "" {
		m.Paths.BuildTool = filepath.Join(m.engineOrProjectRoot(), "Build", "BatchFiles", "Mac", "Build.sh")
	}

	for _, name := range d.Platforms {
		p, err := ParsePlatform(name)
		if err != nil {
			return nil, &ConfigError{Product: m.ProductName, Reason: "platforms", Err: err}
		}
		m.Supported[p] = true
	}

	for _, p := range m.Platforms() {
		raw := defaultDeploymentTargets[p]
		if v, ok := d.DeploymentTargets[string(p)]; ok {
			raw = v
		}
		v, err := version.NewVersion(raw)
		if err != nil {
			return nil, &ConfigError{Product: m.ProductName, Reason: fmt.Sprintf("deployment target for %s", p), Err: err}
		}
		m.DeploymentTargets[p] = v
	}

	for _, dt := range d.Targets {
		t, err := convertTarget(dt)
		if err != nil {
			return nil, &ConfigError{Product: m.ProductName, Reason: "target " + dt.Name, Err: err}
		}
		m.Targets = append(m.Targets, t)
	}

	m.Entries = m.buildMatrix()
	if len(m.Entries) == 0 {
		return nil, &ConfigError{Product: m.ProductName, Reason: "configuration matrix is empty", Err: ErrNoConfigurations}
	}
	log.Debug("resolved configuration matrix", "product", m.ProductName, "entries", len(m.Entries))

	for _, p := range m.Platforms() {
		files := d.Metadata[string(p)]
		plist, err := ResolveDescriptor(fs, files.Plist, filepath.Join(m.Paths.ProjectRoot, "Build", string(p), m.ProductName+"-Info.plist"))
		if err != nil {
			return nil, err
		}
		ent, err := ResolveDescriptor(fs, files.Entitlements, filepath.Join(m.Paths.ProjectRoot, "Build", string(p), m.ProductName+".entitlements"))
		if err != nil {
			return nil, err
		}
		m.Plist[p] = plist
		m.Entitlements[p] = ent
	}

	m.Batches = batch.NewPartitioner(filepath.Join(m.Paths.Intermediate, m.ProductName, "Batches"))

	archs, err := NewArchCache(256, DefaultArchitectures)
	if err != nil {
		return nil, err
	}
	m.Archs = archs
	return m, nil
}

func (m *ProjectMetadata) engineOrProjectRoot() string {
	if m.Paths.EngineRoot != "" {
		return m.Paths.EngineRoot
	}
	return m.Paths.ProjectRoot
}

func bundleIDTemplate(p descriptor.Product) string {
	if p.BundleID != "" {
		return p.BundleID
	}
	org := strings.ToLower(nonIdent.ReplaceAllString(p.Organization, ""))
	if org == "" {
		org = "example"
	}
	return "com." + org + ".$(PRODUCT_NAME_STRIPPED)"
}

// StrippedProductName is the product name reduced to characters valid in a
// bundle identifier.
func (m *ProjectMetadata) StrippedProductName() string {
	return nonIdent.ReplaceAllString(m.ProductName, "")
}

// Platforms returns supported platforms in canonical order.
func (m *ProjectMetadata) Platforms() []Platform {
	var out []Platform
	for _, p := range AllPlatforms {
		if m.Supported[p] {
			out = append(out, p)
		}
	}
	return out
}

// EntriesFor returns the entries valid on platform p, or every entry when
// p is empty.
func (m *ProjectMetadata) EntriesFor(p Platform) []BuildConfigEntry {
	if p == "" {
		return m.Entries
	}
	var out []BuildConfigEntry
	for _, e := range m.Entries {
		if e.SupportsPlatform(p) {
			out = append(out, e)
		}
	}
	return out
}

// PrimaryTarget returns the target the Run target launches: the first
// application-type target, else the first target.
func (m *ProjectMetadata) PrimaryTarget() *Target {
	for _, t := range m.Targets {
		if t.Type.IsApplication() {
			return t
		}
	}
	if len(m.Targets) > 0 {
		return m.Targets[0]
	}
	return nil
}

func convertTarget(dt descriptor.Target) (*Target, error) {
	tt, err := ParseTargetType(dt.Type)
	if err != nil {
		return nil, err
	}
	t := &Target{
		Name:           dt.Name,
		Type:           tt,
		Link:           LinkType(strings.ToLower(dt.Link)),
		ExecutableRule: dt.Executable,
	}
	if t.Link != LinkMonolithic && t.Link != LinkModular {
		return nil, fmt.Errorf("unknown link type %q", dt.Link)
	}
	for _, name := range dt.Platforms {
		p, err := ParsePlatform(name)
		if err != nil {
			return nil, err
		}
		t.Platforms = append(t.Platforms, p)
	}
	for _, name := range dt.Configurations {
		c, err := ParseConfiguration(name)
		if err != nil {
			return nil, err
		}
		t.Configurations = append(t.Configurations, c)
	}
	return t, nil
}

// validCombination filters the configuration × platform × target matrix.
func validCombination(t *Target, c Configuration, p Platform) bool {
	if !t.Supports(p) {
		return false
	}
	if len(t.Configurations) > 0 {
		found := false
		for _, tc := range t.Configurations {
			if tc == c {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	switch t.Type {
	case TargetEditor:
		return p == PlatformMac && c != ConfigShipping && c != ConfigTest
	case TargetServer:
		return !p.IsMobile()
	}
	return true
}

func (m *ProjectMetadata) buildMatrix() []BuildConfigEntry {
	typeCount := make(map[TargetType]int)
	for _, t := range m.Targets {
		typeCount[t.Type]++
	}

	var entries []BuildConfigEntry
	for _, c := range AllConfigurations {
		for _, t := range m.Targets {
			exes := make(map[Platform]string)
			for _, p := range m.Platforms() {
				if validCombination(t, c, p) {
					exes[p] = m.executablePath(t, c, p)
				}
			}
			if len(exes) == 0 {
				continue
			}
			entries = append(entries, BuildConfigEntry{
				displayName: displayName(t, c, typeCount[t.Type] > 1),
				buildTarget: t.Name,
				exePaths:    exes,
				target:      t,
				config:      c,
			})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].displayName < entries[j].displayName
	})
	return entries
}

func displayName(t *Target, c Configuration, ambiguous bool) string {
	name := string(c)
	if t.Type != TargetGame {
		name += " " + string(t.Type)
	}
	if ambiguous {
		name += " (" + t.Name + ")"
	}
	return name
}

func (m *ProjectMetadata) executablePath(t *Target, c Configuration, p Platform) string {
	dir := filepath.Join(m.Paths.ProjectRoot, "Binaries", string(p))
	if t.ExecutableRule != "" {
		r := strings.NewReplacer("{target}", t.Name, "{platform}", string(p), "{config}", string(c))
		rule := r.Replace(t.ExecutableRule)
		if filepath.IsAbs(rule) {
			return rule
		}
		return filepath.Join(dir, rule)
	}
	name := t.Name
	if c != ConfigDevelopment {
		name = fmt.Sprintf("%s-%s-%s", t.Name, p, c)
	}
	if t.Type.IsApplication() {
		name += ".app"
	}
	return filepath.Join(dir, name)
}
