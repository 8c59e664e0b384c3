// Package merge grafts a generated project graph into a hand-authored
// template document by driving an external property list editor.
package merge

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-version"

	"github.com/realAYAYA/xcodegen/internal/debug"
	"github.com/realAYAYA/xcodegen/internal/storage"
	"github.com/realAYAYA/xcodegen/xcode/graph"
	"github.com/realAYAYA/xcodegen/xcode/pbx"
)

var (
	// ErrNoTemplate is returned by Detect when no template document
	// exists. Callers serialize the generated graph instead.
	ErrNoTemplate = errors.New("no template document")

	// ErrImportFailed is returned when the generated fragment could not be
	// merged into the template's object table.
	ErrImportFailed = errors.New("import of generated objects failed")
)

// State is a step of the merge.
type State int

const (
	StateDetect State = iota
	StateSeed
	StateWriteAside
	StatePathFixup
	StateImport
	StateWire
	StateReconcile
	StateUnionGroups
	StateDone
)

var stateNames = [...]string{"detect", "seed", "write-aside", "path-fixup", "import", "wire", "reconcile-configurations", "union-groups", "done"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

// StepError reports the step a merge failed in.
type StepError struct {
	Step  State
	Cause error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("merge %s: %v", e.Step, e.Cause)
}

func (e *StepError) Unwrap() error { return e.Cause }

// groupIndexBase is where generated groups are appended in the template's
// main group, past any real child index.
const groupIndexBase = 100000

// Plan describes one merge.
type Plan struct {
	// Template is the hand-authored project.pbxproj.
	Template string
	// Output is where the merged project.pbxproj will be committed. The
	// working copy is kept beside it and removed afterwards.
	Output string
	// Document is the generated graph to graft.
	Document *graph.Document
	// Settings are propagated onto every template configuration whose
	// value differs, compared as versions.
	Settings map[string]string
}

// Engine runs the merge state machine.
type Engine struct {
	tool  Tool
	store storage.Storage
	state State

	plan     Plan
	work     string
	fragment string
	root     string
	dep      *pbx.Node
	objects  objectTable
}

// New creates an engine using tool for document edits and store for the
// working copy.
func New(tool Tool, store storage.Storage) *Engine {
	return &Engine{tool: tool, store: store}
}

// State returns the last state the engine reached.
func (e *Engine) State() State {
	return e.state
}

// Run performs the merge and returns the merged document. Nothing is left
// at plan.Output: the caller commits the returned bytes. On failure the
// working copy is removed.
func (e *Engine) Run(ctx context.Context, plan Plan) ([]byte, error) {
	e.plan = plan
	e.work = plan.Output + ".merge"
	e.fragment = plan.Output + ".fragment"
	e.state = StateDetect
	defer e.cleanup(ctx)

	steps := []struct {
		state State
		fn    func(context.Context) error
	}{
		{StateDetect, e.detect},
		{StateSeed, e.seed},
		{StateWriteAside, e.writeAside},
		{StatePathFixup, e.pathFixup},
		{StateImport, e.importFragment},
		{StateWire, e.wire},
		{StateReconcile, e.reconcile},
		{StateUnionGroups, e.unionGroups},
	}
	log := debug.Component("merge")
	for _, s := range steps {
		e.state = s.state
		log.Debug("merge step", "step", s.state, "template", plan.Template)
		if err := s.fn(ctx); err != nil {
			if errors.Is(err, ErrNoTemplate) {
				return nil, err
			}
			return nil, &StepError{Step: s.state, Cause: err}
		}
	}

	out, err := e.store.Read(ctx, e.work)
	if err != nil {
		return nil, &StepError{Step: StateDone, Cause: err}
	}
	e.state = StateDone
	return out, nil
}

func (e *Engine) cleanup(ctx context.Context) {
	_ = e.store.RemoveAll(context.WithoutCancel(ctx), e.work)
	_ = e.store.RemoveAll(context.WithoutCancel(ctx), e.fragment)
}

func (e *Engine) run(ctx context.Context, command string) Result {
	return e.tool.Run(ctx, e.work, command)
}

// get returns the value at entry; any error result counts as absent.
func (e *Engine) get(ctx context.Context, entry string) (string, bool) {
	r := e.run(ctx, PrintCmd(entry))
	return r.Text, r.OK()
}

// put updates entry in place, falling back to creating it when the tool
// reports it absent.
func (e *Engine) put(ctx context.Context, entry, value string) error {
	if r := e.run(ctx, SetCmd(entry, value)); r.OK() {
		return nil
	}
	if r := e.run(ctx, AddCmd(entry, "string", value)); !r.OK() {
		return fmt.Errorf("set %s: %w", entry, r.Err())
	}
	return nil
}

// appendRef adds id to the array at entry unless already present. An
// absent array is created first.
func (e *Engine) appendRef(ctx context.Context, entry, id string, index int) (bool, error) {
	if r := e.run(ctx, PrintCmd(entry)); r.Kind == NotFound {
		if r := e.run(ctx, AddCmd(entry, "array", "")); !r.OK() {
			return false, fmt.Errorf("create %s: %w", entry, r.Err())
		}
	}
	for _, existing := range e.arrayAt(ctx, entry) {
		if existing == id {
			return false, nil
		}
	}
	if r := e.run(ctx, AddCmd(entry+":"+strconv.Itoa(index), "string", id)); !r.OK() {
		return false, fmt.Errorf("append to %s: %w", entry, r.Err())
	}
	return true, nil
}

func (e *Engine) arrayAt(ctx context.Context, entry string) []string {
	text, ok := e.get(ctx, entry)
	if !ok {
		return nil
	}
	tree, err := ParseTree(text)
	if err != nil {
		return nil
	}
	return object{"v": tree}.refs("v")
}

func (e *Engine) loadObjects(ctx context.Context) error {
	text, ok := e.get(ctx, Entry("objects"))
	if !ok {
		return fmt.Errorf("template has no object table: %s", text)
	}
	tree, err := ParseTree(text)
	if err != nil {
		return fmt.Errorf("parse object table: %w", err)
	}
	e.objects, err = newObjectTable(tree)
	return err
}

func (e *Engine) detect(ctx context.Context) error {
	ok, err := e.store.Exists(ctx, e.plan.Template)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w at %s", ErrNoTemplate, e.plan.Template)
	}
	return nil
}

func (e *Engine) seed(ctx context.Context) error {
	if err := e.store.CopyFile(ctx, e.plan.Template, e.work); err != nil {
		return err
	}
	root, ok := e.get(ctx, Entry("rootObject"))
	if !ok {
		return fmt.Errorf("template has no root object")
	}
	e.root = root
	return e.loadObjects(ctx)
}

// writeAside serializes the Build and Index targets, one dependency edge
// onto the Build target, and the generated group tree.
func (e *Engine) writeAside(ctx context.Context) error {
	doc := e.plan.Document
	dep, err := doc.TemplateDependency()
	if err != nil {
		return err
	}
	e.dep = dep
	frag, err := pbx.SerializeFragment(
		[]*pbx.Node{doc.Build, doc.Index, dep, doc.MainGroup},
		map[*pbx.Node]bool{doc.Project: true},
	)
	if err != nil {
		return err
	}
	return e.store.Write(ctx, e.fragment, frag)
}

// pathFixup rewrites template paths relative to the template's directory
// so they resolve from the output location.
func (e *Engine) pathFixup(ctx context.Context) error {
	from := filepath.Dir(filepath.Dir(e.plan.Template))
	to := filepath.Dir(filepath.Dir(e.plan.Output))
	if from == to {
		return nil
	}
	rewrite := func(entry string) error {
		old, ok := e.get(ctx, entry)
		if !ok || old == "" || filepath.IsAbs(old) || strings.HasPrefix(old, "$(") {
			return nil
		}
		rel, err := filepath.Rel(to, filepath.Join(from, old))
		if err != nil {
			return err
		}
		if rel == old {
			return nil
		}
		return e.put(ctx, entry, rel)
	}

	project := e.objects[e.root]
	topLevel := make(map[string]bool)
	if main, ok := e.objects[project.str("mainGroup")]; ok {
		for _, id := range main.refs("children") {
			topLevel[id] = true
		}
	}
	for _, id := range e.objects.ids("") {
		o := e.objects[id]
		tree := o.str("sourceTree")
		if tree == "SOURCE_ROOT" || (tree == "<group>" && topLevel[id]) {
			if err := rewrite(Entry("objects", id, "path")); err != nil {
				return err
			}
		}
	}
	for _, id := range e.objects.ids("XCBuildConfiguration") {
		for _, key := range []string{"INFOPLIST_FILE", "CODE_SIGN_ENTITLEMENTS"} {
			if err := rewrite(Entry("objects", id, "buildSettings", key)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) importFragment(ctx context.Context) error {
	if r := e.run(ctx, MergeCmd(e.fragment, Entry("objects"))); !r.OK() {
		return fmt.Errorf("%w: %s", ErrImportFailed, r.Text)
	}
	doc := e.plan.Document
	targets := Entry("objects", e.root, "targets")
	count := len(e.arrayAt(ctx, targets))
	for _, t := range []*pbx.Node{doc.Build, doc.Index} {
		added, err := e.appendRef(ctx, targets, t.ID, count)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrImportFailed, err)
		}
		if added {
			count++
		}
	}
	return nil
}

// wire adds the Build dependency to every application target of the
// template and points the edge at the template's project.
func (e *Engine) wire(ctx context.Context) error {
	log := debug.Component("merge")
	for _, id := range e.objects.ids("PBXNativeTarget") {
		if e.objects[id].str("productType") != graph.ProductTypeApplication {
			continue
		}
		deps := Entry("objects", id, "dependencies")
		added, err := e.appendRef(ctx, deps, e.dep.ID, len(e.arrayAt(ctx, deps)))
		if err != nil {
			return err
		}
		log.Debug("wired build dependency", "target", e.objects[id].str("name"), "added", added)
	}
	proxy := e.dep.Data.(*pbx.DependencyData).Proxy
	return e.put(ctx, Entry("objects", proxy.ID, "containerPortal"), e.root)
}

// reconcile renames each template list's default configuration to the
// generated default and propagates settings that differ.
func (e *Engine) reconcile(ctx context.Context) error {
	want := e.plan.Document.DefaultConfiguration
	for _, listID := range e.objects.ids("XCConfigurationList") {
		list := e.objects[listID]
		old := list.str("defaultConfigurationName")
		if old == "" || old == want {
			continue
		}
		for _, cfgID := range list.refs("buildConfigurations") {
			if e.objects[cfgID].str("name") == old {
				if err := e.put(ctx, Entry("objects", cfgID, "name"), want); err != nil {
					return err
				}
			}
		}
		if err := e.put(ctx, Entry("objects", listID, "defaultConfigurationName"), want); err != nil {
			return err
		}
	}

	for _, cfgID := range e.objects.ids("XCBuildConfiguration") {
		for _, key := range sortedKeys(e.plan.Settings) {
			entry := Entry("objects", cfgID, "buildSettings", key)
			value := e.plan.Settings[key]
			if current, ok := e.get(ctx, entry); ok && sameVersion(current, value) {
				continue
			}
			if err := e.put(ctx, entry, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func sameVersion(a, b string) bool {
	va, errA := version.NewVersion(a)
	vb, errB := version.NewVersion(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return va.Equal(vb)
}

// unionGroups moves the generated root's children into the template's
// main group and drops the generated root.
func (e *Engine) unionGroups(ctx context.Context) error {
	main := e.objects[e.root].str("mainGroup")
	if main == "" {
		return fmt.Errorf("template project has no main group")
	}
	children := Entry("objects", main, "children")
	generated := e.plan.Document.MainGroup
	for i, child := range generated.Data.(*pbx.GroupData).Children {
		if _, err := e.appendRef(ctx, children, child.ID, groupIndexBase+i); err != nil {
			return err
		}
	}
	if r := e.run(ctx, DeleteCmd(Entry("objects", generated.ID))); !r.OK() && r.Kind != NotFound {
		return fmt.Errorf("delete generated root: %w", r.Err())
	}
	return nil
}
