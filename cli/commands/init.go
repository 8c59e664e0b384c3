package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/realAYAYA/xcodegen/cli/internal/config"
	"github.com/realAYAYA/xcodegen/cli/internal/ui"
	"github.com/realAYAYA/xcodegen/xcode/project"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a starter descriptor and config",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

var initProduct string

// initAnswers are the starter descriptor choices.
type initAnswers struct {
	Product   string   `survey:"product"`
	Platforms []string `survey:"platforms"`
	Mode      string   `survey:"mode"`
}

// interactive reports whether init may prompt.
var interactive = func() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// askInit prompts for the starter descriptor, starting from defaults.
var askInit = func(defaults initAnswers) (initAnswers, error) {
	platforms := make([]string, len(project.AllPlatforms))
	for i, p := range project.AllPlatforms {
		platforms[i] = string(p)
	}
	qs := []*survey.Question{
		{
			Name:     "product",
			Prompt:   &survey.Input{Message: "Product name:", Default: defaults.Product},
			Validate: survey.Required,
		},
		{
			Name: "platforms",
			Prompt: &survey.MultiSelect{
				Message: "Platforms:",
				Options: platforms,
				Default: defaults.Platforms,
			},
			Validate: survey.MinItems(1),
		},
		{
			Name: "mode",
			Prompt: &survey.Select{
				Message: "Workspace mode:",
				Options: []string{"combined", "per-platform"},
				Default: defaults.Mode,
			},
		},
	}
	answers := defaults
	if err := survey.Ask(qs, &answers); err != nil {
		return initAnswers{}, err
	}
	return answers, nil
}

func init() {
	initCmd.Flags().StringVarP(&initProduct, "product", "p", "", "Product name (defaults to the directory name)")
	rootCmd.AddCommand(initCmd)
}

const starterDescriptor = `product:
  name: %s
paths:
  project_root: .
platforms: [%s]
targets:
  - name: %s
    type: game
modules: []
workspace:
  mode: %s
`

const starterIgnore = `# Generated IDE files
*.xcodeproj/
*.xcworkspace/
Intermediate/ProjectFiles/

.env.local
`

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	fs := fsys()
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}

	answers := initAnswers{
		Product:   initProduct,
		Platforms: []string{string(project.PlatformMac)},
		Mode:      "combined",
	}
	if answers.Product == "" {
		answers.Product = filepath.Base(absPath(dir))
		if interactive() {
			var err error
			if answers, err = askInit(answers); err != nil {
				return fmt.Errorf("init cancelled: %w", err)
			}
		}
	}

	path := filepath.Join(dir, "xcodegen.yaml")
	if ok, _ := afero.Exists(fs, path); ok {
		ui.PrintWarning("Descriptor already exists: %s", path)
	} else {
		content := fmt.Sprintf(starterDescriptor, answers.Product, strings.Join(answers.Platforms, ", "), answers.Product, answers.Mode)
		if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to create descriptor: %w", err)
		}
		ui.PrintSuccess("Created descriptor: %s", path)
	}

	ignore := filepath.Join(dir, ".gitignore")
	if ok, _ := afero.Exists(fs, ignore); !ok {
		if err := afero.WriteFile(fs, ignore, []byte(starterIgnore), 0644); err != nil {
			ui.PrintWarning("Failed to create .gitignore: %v", err)
		} else {
			ui.PrintSuccess("Created .gitignore")
		}
	}

	saved, err := config.SaveConfig(&config.Config{Descriptor: "xcodegen.yaml", Mode: answers.Mode}, dir)
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	ui.PrintSuccess("Created config: %s", saved)

	fmt.Println()
	ui.PrintSection("Next Steps")
	ui.PrintList([]string{
		"Have the build system fill in targets and modules",
		"Run: xcodegen lint",
		"Run: xcodegen generate",
	})
	return nil
}
