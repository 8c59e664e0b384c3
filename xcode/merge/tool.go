package merge

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/realAYAYA/xcodegen/internal/debug"
)

// DefaultToolPath is the property list editor shipped with the OS.
const DefaultToolPath = "/usr/libexec/PlistBuddy"

// ResultKind classifies the outcome of one tool command.
type ResultKind int

const (
	// Value means the command succeeded; Text holds its output.
	Value ResultKind = iota
	// NotFound means the addressed entry does not exist.
	NotFound
	// Error means the tool reported any other failure.
	Error
)

func (k ResultKind) String() string {
	switch k {
	case Value:
		return "value"
	case NotFound:
		return "not-found"
	default:
		return "error"
	}
}

// Result is the parsed outcome of one command.
type Result struct {
	Kind ResultKind
	Text string
}

// OK reports whether the command produced a value.
func (r Result) OK() bool { return r.Kind == Value }

// Err converts a non-value result into an error.
func (r Result) Err() error {
	if r.Kind == Value {
		return nil
	}
	return fmt.Errorf("%s: %s", r.Kind, r.Text)
}

// Tool runs one path-addressed edit command against a document. Commands
// are issued one at a time, in order.
type Tool interface {
	Run(ctx context.Context, doc, command string) Result
}

// ExecTool drives the property list editor binary, one process per
// command.
type ExecTool struct {
	Path string
}

// NewExecTool returns a tool for the binary at path, or the default
// editor when path is empty.
func NewExecTool(path string) *ExecTool {
	if path == "" {
		path = DefaultToolPath
	}
	return &ExecTool{Path: path}
}

// Run implements Tool.
func (t *ExecTool) Run(ctx context.Context, doc, command string) Result {
	cmd := exec.CommandContext(ctx, t.Path, "-c", command, doc)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := strings.TrimRight(stdout.String(), "\n")
	debug.Component("merge").Debug("tool command", "command", command, "doc", doc, "error", err)
	return classify(out, stderr.String(), err)
}

func classify(stdout, stderr string, err error) Result {
	text := strings.TrimSpace(stdout + "\n" + stderr)
	if strings.Contains(text, "Does Not Exist") {
		return Result{Kind: NotFound, Text: text}
	}
	if err != nil || strings.HasPrefix(stdout, "Error") {
		if text == "" && err != nil {
			text = err.Error()
		}
		return Result{Kind: Error, Text: text}
	}
	return Result{Kind: Value, Text: stdout}
}

// Entry joins path components into a colon-delimited entry path.
func Entry(parts ...string) string {
	return ":" + strings.Join(parts, ":")
}

func quoteArg(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\"'\\") {
		return s
	}
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

// Command builders for the editor's command language.

func PrintCmd(entry string) string { return "Print " + entry }

func SetCmd(entry, value string) string { return "Set " + entry + " " + quoteArg(value) }

func AddCmd(entry, typ, value string) string {
	if value == "" && (typ == "dict" || typ == "array") {
		return "Add " + entry + " " + typ
	}
	return "Add " + entry + " " + typ + " " + quoteArg(value)
}

func DeleteCmd(entry string) string { return "Delete " + entry }

func MergeCmd(file, entry string) string { return "Merge " + quoteArg(file) + " " + entry }

func CopyCmd(src, dst string) string { return "Copy " + src + " " + dst }
