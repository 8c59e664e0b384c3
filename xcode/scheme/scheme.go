// Package scheme writes the run schemes, scheme management files and
// workspace documents that reference generated project documents.
package scheme

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"path/filepath"

	"github.com/realAYAYA/xcodegen/xcode/graph"
	"github.com/realAYAYA/xcodegen/xcode/pbx"
)

const (
	lastUpgradeVersion = "1500"
	lldbDebugger       = "Xcode.DebuggerFoundation.Debugger.LLDB"
	lldbLauncher       = "Xcode.DebuggerFoundation.Launcher.LLDB"
)

// Scheme is the root of an .xcscheme document.
type Scheme struct {
	XMLName            xml.Name      `xml:"Scheme"`
	LastUpgradeVersion string        `xml:"LastUpgradeVersion,attr"`
	Version            string        `xml:"version,attr"`
	BuildAction        BuildAction   `xml:"BuildAction"`
	TestAction         ConfigAction  `xml:"TestAction"`
	LaunchAction       LaunchAction  `xml:"LaunchAction"`
	ProfileAction      ConfigAction  `xml:"ProfileAction"`
	AnalyzeAction      ConfigAction  `xml:"AnalyzeAction"`
	ArchiveAction      ArchiveAction `xml:"ArchiveAction"`
}

type BuildAction struct {
	ParallelizeBuildables     string             `xml:"parallelizeBuildables,attr"`
	BuildImplicitDependencies string             `xml:"buildImplicitDependencies,attr"`
	Entries                   []BuildActionEntry `xml:"BuildActionEntries>BuildActionEntry"`
}

type BuildActionEntry struct {
	BuildForTesting   string             `xml:"buildForTesting,attr"`
	BuildForRunning   string             `xml:"buildForRunning,attr"`
	BuildForProfiling string             `xml:"buildForProfiling,attr"`
	BuildForArchiving string             `xml:"buildForArchiving,attr"`
	BuildForAnalyzing string             `xml:"buildForAnalyzing,attr"`
	Reference         BuildableReference `xml:"BuildableReference"`
}

// BuildableReference points a scheme action at a target by identifier.
type BuildableReference struct {
	BuildableIdentifier string `xml:"BuildableIdentifier,attr"`
	BlueprintIdentifier string `xml:"BlueprintIdentifier,attr"`
	BuildableName       string `xml:"BuildableName,attr"`
	BlueprintName       string `xml:"BlueprintName,attr"`
	ReferencedContainer string `xml:"ReferencedContainer,attr"`
}

type ConfigAction struct {
	BuildConfiguration string `xml:"buildConfiguration,attr"`
}

type ArchiveAction struct {
	BuildConfiguration       string `xml:"buildConfiguration,attr"`
	RevealArchiveInOrganizer string `xml:"revealArchiveInOrganizer,attr"`
}

type LaunchAction struct {
	BuildConfiguration         string            `xml:"buildConfiguration,attr"`
	SelectedDebuggerIdentifier string            `xml:"selectedDebuggerIdentifier,attr"`
	SelectedLauncherIdentifier string            `xml:"selectedLauncherIdentifier,attr"`
	LaunchStyle                string            `xml:"launchStyle,attr"`
	UseCustomWorkingDirectory  string            `xml:"useCustomWorkingDirectory,attr"`
	DebugDocumentVersioning    string            `xml:"debugDocumentVersioning,attr"`
	AllowLocationSimulation    string            `xml:"allowLocationSimulation,attr"`
	Runnable                   *Runnable         `xml:"BuildableProductRunnable,omitempty"`
	CommandLineArguments       *CommandLineBlock `xml:"CommandLineArguments,omitempty"`
}

type Runnable struct {
	RunnableDebuggingMode string             `xml:"runnableDebuggingMode,attr"`
	Reference             BuildableReference `xml:"BuildableReference"`
}

// CommandLineBlock keeps user-entered launch arguments verbatim.
type CommandLineBlock struct {
	Inner string `xml:",innerxml"`
}

// FileName is the scheme file name of a Run target.
func FileName(rt graph.RunTarget) string {
	return rt.Node.Name + ".xcscheme"
}

// Path is where a Run target's shared scheme lives in doc.
func Path(doc *graph.Document, rt graph.RunTarget) string {
	return filepath.Join(doc.Path(), "xcshareddata", "xcschemes", FileName(rt))
}

func reference(doc *graph.Document, n *pbx.Node, buildable string) BuildableReference {
	return BuildableReference{
		BuildableIdentifier: "primary",
		BlueprintIdentifier: n.ID,
		BuildableName:       buildable,
		BlueprintName:       n.Name,
		ReferencedContainer: "container:" + doc.Name + ".xcodeproj",
	}
}

func buildEntry(ref BuildableReference) BuildActionEntry {
	return BuildActionEntry{
		BuildForTesting:   "YES",
		BuildForRunning:   "YES",
		BuildForProfiling: "YES",
		BuildForArchiving: "YES",
		BuildForAnalyzing: "YES",
		Reference:         ref,
	}
}

// New builds the scheme of one Run target. previous is the scheme file
// being replaced, if any; its launch arguments are carried over.
func New(doc *graph.Document, rt graph.RunTarget, previous []byte) (*Scheme, error) {
	config := doc.DefaultConfiguration
	run := reference(doc, rt.Node, rt.ProductName)

	s := &Scheme{
		LastUpgradeVersion: lastUpgradeVersion,
		Version:            "1.7",
		BuildAction: BuildAction{
			ParallelizeBuildables:     "YES",
			BuildImplicitDependencies: "YES",
			Entries: []BuildActionEntry{
				buildEntry(reference(doc, doc.Build, doc.Build.Name)),
				buildEntry(run),
			},
		},
		TestAction: ConfigAction{BuildConfiguration: config},
		LaunchAction: LaunchAction{
			BuildConfiguration:         config,
			SelectedDebuggerIdentifier: lldbDebugger,
			SelectedLauncherIdentifier: lldbLauncher,
			LaunchStyle:                "0",
			UseCustomWorkingDirectory:  "NO",
			DebugDocumentVersioning:    "YES",
			AllowLocationSimulation:    "YES",
			Runnable:                   &Runnable{RunnableDebuggingMode: "0", Reference: run},
		},
		ProfileAction: ConfigAction{BuildConfiguration: config},
		AnalyzeAction: ConfigAction{BuildConfiguration: config},
		ArchiveAction: ArchiveAction{BuildConfiguration: config, RevealArchiveInOrganizer: "YES"},
	}

	if len(previous) > 0 {
		args, err := PreservedArguments(previous)
		if err != nil {
			return nil, err
		}
		s.LaunchAction.CommandLineArguments = args
	}
	return s, nil
}

// PreservedArguments extracts the launch arguments block of an existing
// scheme.
func PreservedArguments(data []byte) (*CommandLineBlock, error) {
	var old struct {
		LaunchAction struct {
			CommandLineArguments *CommandLineBlock `xml:"CommandLineArguments"`
		} `xml:"LaunchAction"`
	}
	if err := xml.Unmarshal(data, &old); err != nil {
		return nil, fmt.Errorf("read previous scheme: %w", err)
	}
	return old.LaunchAction.CommandLineArguments, nil
}

// Render encodes s as an .xcscheme document.
func (s *Scheme) Render() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "   ")
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Management builds xcschememanagement.plist for doc: scheme order and
// suppression of automatically created schemes.
func Management(doc *graph.Document) ([]byte, error) {
	m := schemeManagement{
		SchemeUserState:               make(map[string]schemeState, len(doc.Run)),
		SuppressBuildableAutocreation: make(map[string]buildableState, len(doc.Run)),
	}
	for i, rt := range doc.Run {
		m.SchemeUserState[FileName(rt)+"_^#shared#^_"] = schemeState{OrderHint: i}
		m.SuppressBuildableAutocreation[rt.Node.ID] = buildableState{Primary: true}
	}
	return marshalPlist(m)
}

// ManagementPath is the per-user scheme management file of doc.
func ManagementPath(doc *graph.Document, user string) string {
	return filepath.Join(doc.Path(), "xcuserdata", user+".xcuserdatad", "xcschemes", "xcschememanagement.plist")
}
