package files

import (
	"path/filepath"
	"strings"
)

// Kind classifies a file by how the IDE treats it.
type Kind int

const (
	// Reference files are shown in the navigator but never built.
	Reference Kind = iota
	// Source files are compiled and may be backed by a response file.
	Source
	// Resource files are copied into the application bundle.
	Resource
)

func (k Kind) String() string {
	switch k {
	case Source:
		return "source"
	case Resource:
		return "resource"
	default:
		return "reference"
	}
}

var fileTypes = map[string]struct {
	kind     Kind
	fileType string
}{
	".c":            {Source, "sourcecode.c.c"},
	".cc":           {Source, "sourcecode.cpp.cpp"},
	".cpp":          {Source, "sourcecode.cpp.cpp"},
	".cxx":          {Source, "sourcecode.cpp.cpp"},
	".m":            {Source, "sourcecode.c.objc"},
	".mm":           {Source, "sourcecode.cpp.objcpp"},
	".swift":        {Source, "sourcecode.swift"},
	".h":            {Reference, "sourcecode.c.h"},
	".hpp":          {Reference, "sourcecode.cpp.h"},
	".inl":          {Reference, "sourcecode.cpp.h"},
	".xcassets":     {Resource, "folder.assetcatalog"},
	".storyboard":   {Resource, "file.storyboard"},
	".xib":          {Resource, "file.xib"},
	".strings":      {Resource, "text.plist.strings"},
	".png":          {Resource, "image.png"},
	".jpg":          {Resource, "image.jpeg"},
	".ttf":          {Resource, "file"},
	".bundle":       {Resource, "wrapper.plug-in"},
	".plist":        {Reference, "text.plist.xml"},
	".entitlements": {Reference, "text.plist.entitlements"},
	".xcconfig":     {Reference, "text.xcconfig"},
	".cs":           {Reference, "sourcecode.cs"},
	".ini":          {Reference, "text"},
	".uproject":     {Reference, "text.json"},
	".uplugin":      {Reference, "text.json"},
	".json":         {Reference, "text.json"},
	".md":           {Reference, "net.daringfireball.markdown"},
	".txt":          {Reference, "text"},
	".sh":           {Reference, "text.script.sh"},
}

// Classify returns the kind of path and the IDE's file type for it.
func Classify(path string) (Kind, string) {
	if ft, ok := fileTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return ft.kind, ft.fileType
	}
	return Reference, "text"
}
