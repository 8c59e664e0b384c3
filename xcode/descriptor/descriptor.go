// Package descriptor loads the project descriptor: the YAML document in
// which the surrounding build system hands over product identity, targets,
// modules and files to the generator.
package descriptor

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Descriptor is the root of a project descriptor file.
type Descriptor struct {
	Product           Product                  `yaml:"product"`
	Paths             Paths                    `yaml:"paths"`
	Platforms         []string                 `yaml:"platforms"`
	Targets           []Target                 `yaml:"targets"`
	Modules           []Module                 `yaml:"modules"`
	Resources         []string                 `yaml:"resources,omitempty"`
	Files             []string                 `yaml:"files,omitempty"`
	DeploymentTargets map[string]string        `yaml:"deployment_targets,omitempty"`
	Metadata          map[string]MetadataFiles `yaml:"metadata,omitempty"`
	Workspace         Workspace                `yaml:"workspace"`
}

// Product carries identity shown in the IDE and baked into bundles.
type Product struct {
	Name         string `yaml:"name"`
	DisplayName  string `yaml:"display_name,omitempty"`
	BundleID     string `yaml:"bundle_id,omitempty"`
	Organization string `yaml:"organization,omitempty"`
}

// Paths are resolved relative to the descriptor's directory.
type Paths struct {
	ProjectRoot  string `yaml:"project_root"`
	EngineRoot   string `yaml:"engine_root,omitempty"`
	Intermediate string `yaml:"intermediate,omitempty"`
	Output       string `yaml:"output,omitempty"`
	BuildTool    string `yaml:"build_tool,omitempty"`
	Template     string `yaml:"template,omitempty"`
	ProjectFile  string `yaml:"project_file,omitempty"`
}

// Target is one build target of the surrounding build system.
type Target struct {
	Name           string   `yaml:"name"`
	Type           string   `yaml:"type"`
	Link           string   `yaml:"link,omitempty"`
	Platforms      []string `yaml:"platforms,omitempty"`
	Configurations []string `yaml:"configurations,omitempty"`
	// Executable is the output naming rule. {target}, {platform} and
	// {config} are substituted.
	Executable string `yaml:"executable,omitempty"`
}

// Module is one compiled module and the compile environment it was
// built with.
type Module struct {
	Name string `yaml:"name"`
	// Definitions is the forced-include definitions header. Empty when the
	// module relies on its precompiled header instead.
	Definitions    string   `yaml:"definitions,omitempty"`
	PCH            string   `yaml:"pch,omitempty"`
	RTTI           bool     `yaml:"rtti,omitempty"`
	SystemIncludes []string `yaml:"system_includes,omitempty"`
	UserIncludes   []string `yaml:"user_includes,omitempty"`
	Files          []string `yaml:"files,omitempty"`
}

// MetadataFiles names the user-maintained plist and entitlements for one
// platform. Missing files fall back to synthesized settings.
type MetadataFiles struct {
	Plist        string `yaml:"plist,omitempty"`
	Entitlements string `yaml:"entitlements,omitempty"`
}

// Workspace controls how project documents are grouped.
type Workspace struct {
	Name string `yaml:"name,omitempty"`
	// Mode is "combined" or "per-platform".
	Mode string `yaml:"mode,omitempty"`
}

var (
	// ErrInvalid is wrapped by every validation failure.
	ErrInvalid = errors.New("invalid project descriptor")
)

// Load reads and validates the descriptor at path. Relative paths inside
// the document are made absolute against the descriptor's directory.
func Load(fs afero.Fs, path string) (*Descriptor, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor: %w", err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	d.resolve(filepath.Dir(abs))
	return d, nil
}

// Parse decodes and validates descriptor YAML without touching paths.
func Parse(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse descriptor: %w", err)
	}
	d.applyDefaults()
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (d *Descriptor) applyDefaults() {
	if d.Product.DisplayName == "" {
		d.Product.DisplayName = d.Product.Name
	}
	if d.Workspace.Name == "" {
		d.Workspace.Name = d.Product.Name
	}
	if d.Workspace.Mode == "" {
		d.Workspace.Mode = "combined"
	}
	for i := range d.Targets {
		if d.Targets[i].Link == "" {
			d.Targets[i].Link = "modular"
		}
		if len(d.Targets[i].Platforms) == 0 {
			d.Targets[i].Platforms = append([]string(nil), d.Platforms...)
		}
	}
}

// Validate reports every structural problem at once.
func (d *Descriptor) Validate() error {
	var errs []error
	if d.Product.Name == "" {
		errs = append(errs, fmt.Errorf("%w: product.name is required", ErrInvalid))
	}
	if d.Paths.ProjectRoot == "" {
		errs = append(errs, fmt.Errorf("%w: paths.project_root is required", ErrInvalid))
	}
	if len(d.Platforms) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one platform is required", ErrInvalid))
	}
	if len(d.Targets) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one target is required", ErrInvalid))
	}
	if d.Workspace.Mode != "combined" && d.Workspace.Mode != "per-platform" {
		errs = append(errs, fmt.Errorf("%w: workspace.mode %q must be combined or per-platform", ErrInvalid, d.Workspace.Mode))
	}

	seen := make(map[string]bool)
	for i, t := range d.Targets {
		if t.Name == "" {
			errs = append(errs, fmt.Errorf("%w: targets[%d].name is required", ErrInvalid, i))
			continue
		}
		if seen[t.Name] {
			errs = append(errs, fmt.Errorf("%w: duplicate target %q", ErrInvalid, t.Name))
		}
		seen[t.Name] = true
	}

	modules := make(map[string]bool)
	for i, m := range d.Modules {
		if m.Name == "" {
			errs = append(errs, fmt.Errorf("%w: modules[%d].name is required", ErrInvalid, i))
			continue
		}
		if modules[m.Name] {
			errs = append(errs, fmt.Errorf("%w: duplicate module %q", ErrInvalid, m.Name))
		}
		modules[m.Name] = true
	}
	return errors.Join(errs...)
}

func (d *Descriptor) resolve(base string) {
	abs := func(p string) string {
		if p == "" {
			return p
		}
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(base, p)
	}
	absAll := func(ps []string) {
		for i := range ps {
			ps[i] = abs(ps[i])
		}
	}

	d.Paths.ProjectRoot = abs(d.Paths.ProjectRoot)
	d.Paths.EngineRoot = abs(d.Paths.EngineRoot)
	d.Paths.Intermediate = abs(d.Paths.Intermediate)
	d.Paths.Output = abs(d.Paths.Output)
	d.Paths.BuildTool = abs(d.Paths.BuildTool)
	d.Paths.Template = abs(d.Paths.Template)
	d.Paths.ProjectFile = abs(d.Paths.ProjectFile)
	if d.Paths.Output == "" {
		d.Paths.Output = d.Paths.ProjectRoot
	}
	if d.Paths.Intermediate == "" {
		d.Paths.Intermediate = filepath.Join(d.Paths.ProjectRoot, "Intermediate", "ProjectFiles")
	}

	for i := range d.Modules {
		m := &d.Modules[i]
		m.Definitions = abs(m.Definitions)
		m.PCH = abs(m.PCH)
		absAll(m.SystemIncludes)
		absAll(m.UserIncludes)
		absAll(m.Files)
	}
	absAll(d.Resources)
	absAll(d.Files)
	for k, mf := range d.Metadata {
		mf.Plist = abs(mf.Plist)
		mf.Entitlements = abs(mf.Entitlements)
		d.Metadata[k] = mf
	}
}
