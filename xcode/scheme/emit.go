package scheme

import (
	"context"
	"errors"
	"fmt"

	"github.com/realAYAYA/xcodegen/internal/debug"
	"github.com/realAYAYA/xcodegen/internal/storage"
	"github.com/realAYAYA/xcodegen/xcode/graph"
)

// Emit stages the schemes and scheme management file of doc. Existing
// schemes are read from store before being replaced so their launch
// arguments survive regeneration.
func Emit(ctx context.Context, store storage.Storage, out *storage.Bundle, doc *graph.Document, user string) error {
	log := debug.Component("scheme")

	for _, rt := range doc.Run {
		path := Path(doc, rt)
		previous, err := store.Read(ctx, path)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		s, err := New(doc, rt, previous)
		if err != nil {
			// An unreadable scheme is replaced rather than blocking
			// generation.
			log.Warn("discarding unreadable scheme", "path", path, "error", err)
			if s, err = New(doc, rt, nil); err != nil {
				return err
			}
		}
		data, err := s.Render()
		if err != nil {
			return fmt.Errorf("render scheme %s: %w", rt.Node.Name, err)
		}
		out.Stage(path, data)
		log.Debug("scheme staged", "target", rt.Node.Name, "preserved_args", s.LaunchAction.CommandLineArguments != nil)
	}

	if user != "" {
		data, err := Management(doc)
		if err != nil {
			return fmt.Errorf("render scheme management: %w", err)
		}
		out.Stage(ManagementPath(doc, user), data)
	}
	return nil
}

// EmitWorkspaces stages every workspace bundle.
func EmitWorkspaces(out *storage.Bundle, ws []*Workspace) error {
	for _, w := range ws {
		contents, err := w.Contents()
		if err != nil {
			return fmt.Errorf("render workspace %s: %w", w.Name, err)
		}
		out.Stage(w.ContentsPath(), contents)
		settings, err := w.Settings()
		if err != nil {
			return fmt.Errorf("render workspace settings %s: %w", w.Name, err)
		}
		out.Stage(w.SettingsPath(), settings)
	}
	return nil
}
