package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/realAYAYA/xcodegen/cli/internal/toolcheck"
	"github.com/realAYAYA/xcodegen/cli/internal/ui"
	"github.com/realAYAYA/xcodegen/cli/internal/watch"
	"github.com/realAYAYA/xcodegen/generator"
	"github.com/realAYAYA/xcodegen/telemetry"
	"github.com/realAYAYA/xcodegen/xcode/descriptor"
	"github.com/realAYAYA/xcodegen/xcode/merge"
)

var generateCmd = &cobra.Command{
	Use:   "generate [descriptor]",
	Short: "Generate the IDE project bundle",
	Long: `Generate project documents, settings layers, response files, schemes and
workspaces from a project descriptor.

When the descriptor names a template project, generated targets are grafted
into a copy of it with the system plist editor. Outputs are only written
once every step succeeded.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

var (
	generateDescriptor string
	generateMode       string
	generateWatch      bool
	generateDryRun     bool
	generateStats      bool
)

func init() {
	generateCmd.Flags().StringVarP(&generateDescriptor, "descriptor", "d", "", "Path to the project descriptor")
	generateCmd.Flags().StringVar(&generateMode, "mode", "", "Workspace mode (combined, per-platform)")
	generateCmd.Flags().BoolVarP(&generateWatch, "watch", "w", false, "Regenerate when the descriptor changes")
	generateCmd.Flags().BoolVar(&generateDryRun, "dry-run", false, "Stage outputs without writing them")
	generateCmd.Flags().BoolVar(&generateStats, "stats", false, "Print per-phase timings")

	rootCmd.AddCommand(generateCmd)
}

func generateOnce(ctx context.Context, path string) error {
	mode, err := workspaceMode(generateMode)
	if err != nil {
		return err
	}
	rec := telemetry.NewRecorder(generateStats || cfg.Stats)

	var tool merge.Tool
	if cfg.ToolPath != "" {
		tool = merge.NewExecTool(cfg.ToolPath)
	}

	spinner, _ := ui.PrintSpinner("Generating project files...")
	g := generator.NewGenerator(fsys(), generator.Options{
		Descriptor: path,
		Mode:       mode,
		User:       cfg.User,
		Tool:       tool,
		DryRun:     generateDryRun,
		Recorder:   rec,
	})
	res, err := g.Generate(ctx)
	spinner.Stop()
	if err != nil {
		printStats(rec)
		return fmt.Errorf("generation failed: %w", err)
	}

	if generateDryRun {
		ui.PrintInfo("Dry run: %d file(s) would be written", len(res.Files))
	} else {
		ui.PrintSuccess("Generated %d document(s) from %s", len(res.Documents), absPath(path))
	}
	fmt.Println()
	printResult(res)
	printStats(rec)
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	path := descriptorPath(generateDescriptor, args)
	if _, err := fsys().Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("descriptor not found: %s", path)
	}

	if cfg.MinIDEVersion != "" {
		if _, err := toolcheck.CheckIDE(cmd.Context(), toolcheck.ExecRunner, cfg.MinIDEVersion); err != nil {
			return err
		}
	}

	if generateWatch {
		return runGenerateWatch(cmd.Context(), path)
	}

	ui.PrintHeader("xcodegen", "Generate")
	if err := generateOnce(cmd.Context(), path); err != nil {
		ui.PrintError("%v", err)
		return err
	}
	return nil
}

// watchedFiles are the descriptor and every definitions header it names.
func watchedFiles(path string) []string {
	files := []string{path}
	d, err := descriptor.Load(fsys(), path)
	if err != nil {
		return files
	}
	for _, m := range d.Modules {
		if m.Definitions != "" {
			files = append(files, m.Definitions)
		}
	}
	return files
}

func runGenerateWatch(ctx context.Context, path string) error {
	ui.PrintHeader("xcodegen", "Watch Mode")

	if err := generateOnce(ctx, path); err != nil {
		ui.PrintError("%v", err)
	}

	watcher, err := watch.NewWatcher(watchedFiles(path), func() error {
		ui.PrintInfo("Descriptor changed, regenerating...")
		return generateOnce(ctx, path)
	})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	watcher.OnError(func(err error) { ui.PrintError("%v", err) })
	watcher.Start()
	defer watcher.Stop()

	ui.PrintSuccess("Watching %s for changes... (Press Ctrl+C to stop)", path)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	ui.PrintInfo("Stopping watch mode...")
	return nil
}
