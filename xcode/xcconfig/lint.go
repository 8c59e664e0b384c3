package xcconfig

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrShadowedOverride is wrapped by lint violations where a setting
	// follows an include that already defines the same key. The setting
	// would be ignored.
	ErrShadowedOverride = errors.New("override after include is ignored")

	// ErrIncludeCycle is returned when layers include each other.
	ErrIncludeCycle = errors.New("include cycle")
)

// Violation is one shadowed override.
type Violation struct {
	Layer    string
	Key      string
	Included string
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s: %s is set after including %s, which already defines it", v.Layer, v.Key, v.Included)
}

func (v Violation) Unwrap() error { return ErrShadowedOverride }

// Lint checks l and every layer it includes.
func (l *Layer) Lint() error {
	var errs []error
	l.lint(&errs, make(map[*Layer]bool), make(map[*Layer]bool))
	return errors.Join(errs...)
}

func (l *Layer) lint(errs *[]error, stack, done map[*Layer]bool) {
	if stack[l] {
		*errs = append(*errs, fmt.Errorf("%w at %s", ErrIncludeCycle, l.Name))
		return
	}
	if done[l] {
		return
	}
	stack[l] = true
	defer func() {
		delete(stack, l)
		done[l] = true
	}()

	// key -> name of the include that defined it
	shadowing := make(map[string]string)
	for _, s := range l.statements {
		switch s.Kind {
		case StatementInclude:
			if s.Included == nil {
				continue
			}
			s.Included.lint(errs, stack, done)
			for key := range s.Included.Keys() {
				if _, ok := shadowing[key]; !ok {
					shadowing[key] = s.Included.Name
				}
			}
		case StatementSetting:
			if inc, ok := shadowing[s.FullKey()]; ok {
				*errs = append(*errs, Violation{Layer: l.Name, Key: s.FullKey(), Included: inc})
			}
		}
	}
}

// Violations extracts the shadowed overrides from a Lint error.
func Violations(err error) []Violation {
	if err == nil {
		return nil
	}
	var out []Violation
	var walk func(error)
	walk = func(e error) {
		var v Violation
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				walk(inner)
			}
			return
		}
		if errors.As(e, &v) {
			out = append(out, v)
		}
	}
	walk(err)
	return out
}

// Summary formats violations one per line.
func Summary(vs []Violation) string {
	lines := make([]string, len(vs))
	for i, v := range vs {
		lines[i] = v.Error()
	}
	return strings.Join(lines, "\n")
}
