package factory

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// iteratorDecl draws successive values from a static corpus.
type iteratorDecl struct {
	base
	values []any
	getter func(v any) any
	cycle  bool
	cursor int
	err    error
}

// Iterate returns a declaration drawing one value per build from the given
// corpus, in order, wrapping around once exhausted. Like the sequence
// counter, the cursor is shared by all builds of the owning factory and
// assumes single-threaded use.
func Iterate(values ...any) *iteratorDecl {
	return &iteratorDecl{base: newBase(), values: values, cycle: true}
}

// IterateYAML returns an Iterate declaration over a corpus loaded from a
// YAML sequence document. A malformed document surfaces as a definition
// error when the factory is assembled.
func IterateYAML(data []byte) *iteratorDecl {
	d := &iteratorDecl{base: newBase(), cycle: true}
	if err := yaml.Unmarshal(data, &d.values); err != nil {
		d.err = fmt.Errorf("factory: invalid YAML corpus: %w", err)
	}
	return d
}

// NoCycle makes the iterator fail instead of wrapping around once the
// corpus is exhausted.
func (d *iteratorDecl) NoCycle() *iteratorDecl {
	d.cycle = false
	return d
}

// Getter installs a projection applied to each drawn corpus entry.
func (d *iteratorDecl) Getter(fn func(v any) any) *iteratorDecl {
	d.getter = fn
	return d
}

func (d *iteratorDecl) Phase() Phase { return AttributeResolution }

func (d *iteratorDecl) declarationError() error { return d.err }

func (d *iteratorDecl) Evaluate(*EvalContext) (any, error) {
	if len(d.values) == 0 {
		return nil, NewDefinitionError("", "", "Iterate requires a non-empty corpus")
	}
	if d.cursor >= len(d.values) {
		if !d.cycle {
			return nil, NewDefinitionError("", "", "Iterate corpus exhausted")
		}
		d.cursor = 0
	}
	v := d.values[d.cursor]
	d.cursor++
	if d.getter != nil {
		v = d.getter(v)
	}
	return v, nil
}
