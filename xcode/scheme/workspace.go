package scheme

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/realAYAYA/xcodegen/xcode/graph"
	"github.com/realAYAYA/xcodegen/xcode/project"
)

// Mode selects how workspaces group project documents.
type Mode int

const (
	// Combined writes one workspace referencing every document.
	Combined Mode = iota
	// PerPlatform writes one workspace per platform, each referencing only
	// that platform's documents.
	PerPlatform
)

func (m Mode) String() string {
	if m == PerPlatform {
		return "per-platform"
	}
	return "combined"
}

// ParseMode accepts "combined" and "per-platform".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "combined":
		return Combined, nil
	case "per-platform", "perplatform", "platform":
		return PerPlatform, nil
	}
	return Combined, fmt.Errorf("unknown workspace mode %q", s)
}

// Workspace is a .xcworkspace bundle referencing project documents.
type Workspace struct {
	Name      string
	Dir       string
	Platform  project.Platform
	Documents []*graph.Document
}

// Path is the workspace bundle directory.
func (w *Workspace) Path() string {
	return filepath.Join(w.Dir, w.Name+".xcworkspace")
}

// ContentsPath is the document list inside the bundle.
func (w *Workspace) ContentsPath() string {
	return filepath.Join(w.Path(), "contents.xcworkspacedata")
}

// SettingsPath is the shared workspace settings file.
func (w *Workspace) SettingsPath() string {
	return filepath.Join(w.Path(), "xcshareddata", "WorkspaceSettings.xcsettings")
}

// Workspaces groups docs into workspaces according to mode. Combined
// references every document. In PerPlatform mode a document joins a
// platform's workspace only when it was built for that platform; documents
// spanning all platforms are left out.
func Workspaces(name, dir string, mode Mode, docs []*graph.Document) ([]*Workspace, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("workspace %s has no project documents", name)
	}
	if mode == Combined {
		return []*Workspace{{Name: name, Dir: dir, Documents: docs}}, nil
	}

	byPlatform := make(map[project.Platform][]*graph.Document)
	for _, d := range docs {
		if d.Platform != "" {
			byPlatform[d.Platform] = append(byPlatform[d.Platform], d)
		}
	}
	if len(byPlatform) == 0 {
		return nil, fmt.Errorf("per-platform workspace %s has no platform documents", name)
	}
	var out []*Workspace
	for _, p := range project.AllPlatforms {
		if ds, ok := byPlatform[p]; ok {
			out = append(out, &Workspace{
				Name:      fmt.Sprintf("%s (%s)", name, p),
				Dir:       dir,
				Platform:  p,
				Documents: ds,
			})
		}
	}
	return out, nil
}

type workspaceXML struct {
	XMLName xml.Name  `xml:"Workspace"`
	Version string    `xml:"version,attr"`
	Refs    []fileRef `xml:"FileRef"`
}

type fileRef struct {
	Location string `xml:"location,attr"`
}

// Contents renders contents.xcworkspacedata. Documents are referenced
// relative to the workspace directory, sorted by name.
func (w *Workspace) Contents() ([]byte, error) {
	doc := workspaceXML{Version: "1.0"}
	docs := append([]*graph.Document(nil), w.Documents...)
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	for _, d := range docs {
		loc := "absolute:" + d.Path()
		if rel, err := filepath.Rel(w.Dir, d.Path()); err == nil {
			loc = "group:" + filepath.ToSlash(rel)
		}
		doc.Refs = append(doc.Refs, fileRef{Location: loc})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "   ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Settings renders WorkspaceSettings.xcsettings. Schemes are generated,
// so the IDE must not create its own.
func (w *Workspace) Settings() ([]byte, error) {
	return marshalPlist(workspaceSettings{AutocreateContextsIfNeeded: false})
}
