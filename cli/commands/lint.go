package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/realAYAYA/xcodegen/cli/internal/ui"
	"github.com/realAYAYA/xcodegen/xcode/descriptor"
	"github.com/realAYAYA/xcodegen/xcode/xcconfig"
)

var lintCmd = &cobra.Command{
	Use:   "lint [file...]",
	Short: "Check descriptors and settings layers",
	Long: `Check project descriptors and .xcconfig settings layers.

Descriptors are validated structurally. Settings layers are loaded with their
includes and checked for overrides that an earlier include already defines;
those settings are ignored by the IDE.`,
	RunE: runLint,
}

func init() {
	rootCmd.AddCommand(lintCmd)
}

func runLint(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{cfg.Descriptor}
	}
	ui.PrintHeader("xcodegen", "Lint")

	failed := 0
	for _, path := range args {
		var err error
		if strings.EqualFold(filepath.Ext(path), ".xcconfig") {
			err = lintLayer(path)
		} else {
			err = lintDescriptor(path)
		}
		if err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed lint", failed, len(args))
	}
	return nil
}

func lintLayer(path string) error {
	layer, err := xcconfig.LoadTree(fsys(), path)
	if err != nil {
		ui.PrintError("%s: %v", path, err)
		return err
	}
	if err := layer.Lint(); err != nil {
		vs := xcconfig.Violations(err)
		for _, v := range vs {
			ui.PrintViolation(v.Layer, v.Key, "is shadowed by "+v.Included)
		}
		if len(vs) == 0 {
			ui.PrintError("%s: %v", path, err)
		}
		return err
	}
	ui.PrintSuccess("%s: %d setting(s) resolved", path, len(layer.Keys()))
	return nil
}

func lintDescriptor(path string) error {
	d, err := descriptor.Load(fsys(), path)
	if err != nil {
		ui.PrintError("Descriptor is invalid: %s", path)
		for _, e := range flatten(err) {
			fmt.Printf("  • %v\n", e)
		}
		return err
	}

	ui.PrintSuccess("Descriptor is valid: %s", absPath(path))
	fmt.Println()
	ui.PrintSection("Descriptor Summary")
	ui.PrintList([]string{
		fmt.Sprintf("product %s", d.Product.Name),
		fmt.Sprintf("%d platform(s): %s", len(d.Platforms), strings.Join(d.Platforms, ", ")),
		fmt.Sprintf("%d target(s)", len(d.Targets)),
		fmt.Sprintf("%d module(s)", len(d.Modules)),
		fmt.Sprintf("workspace mode %s", d.Workspace.Mode),
	})
	return nil
}

func flatten(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	var inner interface{ Unwrap() []error }
	if errors.As(err, &inner) {
		return inner.Unwrap()
	}
	return []error{err}
}
