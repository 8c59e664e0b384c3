package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/realAYAYA/xcodegen/cli/internal/config"
	"github.com/realAYAYA/xcodegen/cli/internal/ui"
	"github.com/realAYAYA/xcodegen/generator"
	"github.com/realAYAYA/xcodegen/telemetry"
	"github.com/realAYAYA/xcodegen/xcode/scheme"
)

func fsys() afero.Fs {
	return config.AppFs
}

// descriptorPath picks the positional argument, then the flag, then the
// configured default.
func descriptorPath(flag string, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if flag != "" {
		return flag
	}
	return cfg.Descriptor
}

// workspaceMode returns nil when the descriptor's own mode applies.
func workspaceMode(flag string) (*scheme.Mode, error) {
	if flag == "" {
		flag = cfg.Mode
	}
	if flag == "" {
		return nil, nil
	}
	m, err := scheme.ParseMode(flag)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// summary renders a generation result as markdown.
func summary(res *generator.Result) string {
	var sb strings.Builder
	sb.WriteString("## Generated\n\n")
	sb.WriteString("| Document | Platform | Run targets | Template |\n|---|---|---|---|\n")
	merged := make(map[string]bool)
	for _, name := range res.Merged {
		merged[name] = true
	}
	for _, d := range res.Documents {
		platform := string(d.Platform)
		if platform == "" {
			platform = "all"
		}
		tpl := "no"
		if merged[d.Name] {
			tpl = "merged"
		}
		fmt.Fprintf(&sb, "| %s | %s | %d | %s |\n", d.Name, platform, len(d.Run), tpl)
	}
	fmt.Fprintf(&sb, "\n%d file batch(es), %d workspace(s), %d file(s) staged.\n",
		len(res.Batches), len(res.Workspaces), len(res.Files))
	return sb.String()
}

func printResult(res *generator.Result) {
	if err := ui.PrintMarkdown(summary(res)); err != nil {
		fmt.Print(summary(res))
	}
	for _, w := range res.Workspaces {
		ui.PrintPath("workspace", w.Path())
	}
	for _, d := range res.Documents {
		ui.PrintPath("project", d.Path())
	}
	for _, f := range res.Fallbacks {
		ui.PrintWarning("Template %s not found, %s written fresh", f.Template, f.Document)
	}
	if len(res.Orphans) > 0 {
		fmt.Println()
		ui.PrintWarning("%d source file(s) belong to no module and will not be indexed", len(res.Orphans))
		ui.PrintList(res.Orphans)
	}
}

func printStats(rec *telemetry.Recorder) {
	rows := rec.Rows()
	if len(rows) == 0 {
		return
	}
	fmt.Println()
	ui.PrintSection("Phases")
	rows = append(rows, []string{"total", rec.Total().String(), ""})
	ui.PrintTable([]string{"Phase", "Duration", "Status"}, rows)
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
