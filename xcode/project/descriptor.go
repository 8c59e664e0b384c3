package project

import (
	"fmt"

	"github.com/spf13/afero"
)

// DescriptorMode says who owns a plist or entitlements file.
type DescriptorMode int

const (
	// Synthesize lets the IDE generate the file from build settings.
	Synthesize DescriptorMode = iota
	// UseExisting points the IDE at a file the user maintains.
	UseExisting
)

func (m DescriptorMode) String() string {
	if m == UseExisting {
		return "use-existing"
	}
	return "synthesize"
}

// MetadataDescriptor is the resolved source of a plist or entitlements
// file for one platform.
type MetadataDescriptor struct {
	Mode DescriptorMode
	Path string
}

// ResolveDescriptor picks UseExisting when a file exists at declared (or
// at fallback when nothing is declared), Synthesize otherwise.
func ResolveDescriptor(fs afero.Fs, declared, fallback string) (MetadataDescriptor, error) {
	path := declared
	if path == "" {
		path = fallback
	}
	if path == "" {
		return MetadataDescriptor{Mode: Synthesize}, nil
	}
	ok, err := afero.Exists(fs, path)
	if err != nil {
		return MetadataDescriptor{}, fmt.Errorf("checking %s: %w", path, err)
	}
	if ok {
		return MetadataDescriptor{Mode: UseExisting, Path: path}, nil
	}
	return MetadataDescriptor{Mode: Synthesize, Path: path}, nil
}

// PlistSettings returns the build settings that point the IDE at the plist
// or have it synthesize one.
func (m *ProjectMetadata) PlistSettings(p Platform) []Setting {
	d := m.Plist[p]
	if d.Mode == UseExisting {
		return []Setting{
			{Key: "GENERATE_INFOPLIST_FILE", Value: "NO"},
			{Key: "INFOPLIST_FILE", Value: d.Path},
		}
	}
	settings := []Setting{
		{Key: "GENERATE_INFOPLIST_FILE", Value: "YES"},
		{Key: "INFOPLIST_KEY_CFBundleDisplayName", Value: m.DisplayName},
		{Key: "INFOPLIST_KEY_LSApplicationCategoryType", Value: "public.app-category.games"},
	}
	if p.IsMobile() {
		settings = append(settings,
			Setting{Key: "INFOPLIST_KEY_UIRequiresFullScreen", Value: "YES"},
			Setting{Key: "INFOPLIST_KEY_UILaunchStoryboardName", Value: "LaunchScreen"},
		)
	}
	return settings
}

// EntitlementsSettings returns CODE_SIGN_ENTITLEMENTS for a user-maintained
// file. Synthesized entitlements need no setting.
func (m *ProjectMetadata) EntitlementsSettings(p Platform) []Setting {
	d := m.Entitlements[p]
	if d.Mode == UseExisting {
		return []Setting{{Key: "CODE_SIGN_ENTITLEMENTS", Value: d.Path}}
	}
	return nil
}
