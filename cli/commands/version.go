package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/realAYAYA/xcodegen/cli/internal/toolcheck"
	"github.com/realAYAYA/xcodegen/cli/internal/ui"
	"github.com/realAYAYA/xcodegen/cli/internal/version"
	"github.com/realAYAYA/xcodegen/xcode/merge"
)

var versionCheckTools bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Get()
		if !versionCheckTools {
			cmd.Println(info.String())
			return nil
		}

		rows := info.Rows()
		toolPath := cfg.ToolPath
		if toolPath == "" {
			toolPath = merge.DefaultToolPath
		}
		if found, err := toolcheck.CheckTool(fsys(), toolPath); err != nil {
			rows = append(rows, []string{"Plist Editor", "missing"})
		} else {
			rows = append(rows, []string{"Plist Editor", found})
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		if r, err := toolcheck.CheckIDE(ctx, toolcheck.ExecRunner, cfg.MinIDEVersion); err != nil {
			rows = append(rows, []string{"IDE", err.Error()})
		} else {
			rows = append(rows, []string{"IDE", r.IDEVersion.String()})
		}
		ui.PrintTable([]string{"Component", "Value"}, rows)
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionCheckTools, "check-tools", false, "Also report the plist editor and IDE version")
	rootCmd.AddCommand(versionCmd)
}
