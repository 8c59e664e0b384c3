package commands

import (
	"github.com/spf13/cobra"

	"github.com/realAYAYA/xcodegen/cli/internal/config"
	"github.com/realAYAYA/xcodegen/internal/debug"
)

var (
	cfg *config.Config

	debugFlag     bool
	logFormatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "xcodegen",
	Short: "Generate IDE project bundles from build descriptors",
	Long: `xcodegen turns a project descriptor written by the build system into a
native IDE project bundle: project documents, layered settings files,
compiler response files, schemes and workspaces.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadConfig()
		if err != nil {
			return err
		}
		cfg = loaded
		if cmd.Flags().Changed("debug") {
			cfg.Debug = debugFlag
		}
		if cmd.Flags().Changed("log-format") {
			cfg.LogFormat = logFormatFlag
		}
		debug.InitWriter(cfg.Debug, cmd.ErrOrStderr(), debug.Format(cfg.LogFormat))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "text", "Debug log format (text, json)")
}

// Execute is the main entry point for the CLI
func Execute() error {
	return rootCmd.Execute()
}
