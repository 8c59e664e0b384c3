// Package project resolves product identity, the platform and
// configuration matrix, and the plist/entitlements sources for one
// generation run.
package project

import (
	"fmt"
	"strings"
)

// Platform is an SDK family the IDE can build for.
type Platform string

const (
	PlatformMac      Platform = "Mac"
	PlatformIOS      Platform = "IOS"
	PlatformTVOS     Platform = "TVOS"
	PlatformVisionOS Platform = "VisionOS"
)

// AllPlatforms lists platforms in canonical order.
var AllPlatforms = []Platform{PlatformMac, PlatformIOS, PlatformTVOS, PlatformVisionOS}

// ParsePlatform accepts platform names case-insensitively.
func ParsePlatform(s string) (Platform, error) {
	for _, p := range AllPlatforms {
		if strings.EqualFold(string(p), s) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// SDKRoot is the IDE's SDKROOT value.
func (p Platform) SDKRoot() string {
	switch p {
	case PlatformIOS:
		return "iphoneos"
	case PlatformTVOS:
		return "appletvos"
	case PlatformVisionOS:
		return "xros"
	default:
		return "macosx"
	}
}

// SDKFilter is the bracketed per-SDK suffix used to scope a setting, e.g.
// "sdk=iphoneos*".
func (p Platform) SDKFilter() string {
	return "sdk=" + p.SDKRoot() + "*"
}

// DeploymentTargetKey is the build setting holding the minimum OS version.
func (p Platform) DeploymentTargetKey() string {
	switch p {
	case PlatformIOS:
		return "IPHONEOS_DEPLOYMENT_TARGET"
	case PlatformTVOS:
		return "TVOS_DEPLOYMENT_TARGET"
	case PlatformVisionOS:
		return "XROS_DEPLOYMENT_TARGET"
	default:
		return "MACOSX_DEPLOYMENT_TARGET"
	}
}

// IsMobile reports whether the platform runs bundled apps only.
func (p Platform) IsMobile() bool {
	return p != PlatformMac
}

// Configuration is the build configuration passed to the build tool.
type Configuration string

const (
	ConfigDebug       Configuration = "Debug"
	ConfigDebugGame   Configuration = "DebugGame"
	ConfigDevelopment Configuration = "Development"
	ConfigTest        Configuration = "Test"
	ConfigShipping    Configuration = "Shipping"
)

// AllConfigurations lists configurations in canonical order.
var AllConfigurations = []Configuration{ConfigDebug, ConfigDebugGame, ConfigDevelopment, ConfigTest, ConfigShipping}

// DefaultConfiguration is the configuration schemes launch with and the
// name template configurations are reconciled to.
const DefaultConfiguration = ConfigDevelopment

// ParseConfiguration accepts configuration names case-insensitively.
func ParseConfiguration(s string) (Configuration, error) {
	for _, c := range AllConfigurations {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown configuration %q", s)
}

// TargetType is the role of a build target.
type TargetType string

const (
	TargetGame    TargetType = "Game"
	TargetClient  TargetType = "Client"
	TargetServer  TargetType = "Server"
	TargetEditor  TargetType = "Editor"
	TargetProgram TargetType = "Program"
)

// ParseTargetType accepts target types case-insensitively.
func ParseTargetType(s string) (TargetType, error) {
	for _, t := range []TargetType{TargetGame, TargetClient, TargetServer, TargetEditor, TargetProgram} {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown target type %q", s)
}

// IsApplication reports whether the target produces an app bundle rather
// than a command-line tool.
func (t TargetType) IsApplication() bool {
	return t != TargetProgram && t != TargetServer
}

// LinkType is how modules are linked into a target.
type LinkType string

const (
	LinkMonolithic LinkType = "monolithic"
	LinkModular    LinkType = "modular"
)

// Target is a build target of the surrounding build system.
type Target struct {
	Name      string
	Type      TargetType
	Link      LinkType
	Platforms []Platform
	// Configurations restricts the matrix; empty means every configuration
	// valid for the target type.
	Configurations []Configuration
	// ExecutableRule names the output binary; {target}, {platform} and
	// {config} are substituted.
	ExecutableRule string
}

// Supports reports whether the target builds for p.
func (t *Target) Supports(p Platform) bool {
	for _, tp := range t.Platforms {
		if tp == p {
			return true
		}
	}
	return false
}
