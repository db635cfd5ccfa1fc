package factory

import (
	"reflect"
	"slices"
)

// Scope is the lazy-evaluation context of one build step. Attribute access
// through Attr computes and caches each declared value on first use,
// detecting self-referential cycles via a pending stack, and exposes the
// enclosing build's scope for ancestor lookups.
type Scope struct {
	step       *BuildStep
	decls      *declarationSet
	values     map[string]any
	pending    []string
	pendingSet map[string]struct{}
}

func newScope(step *BuildStep, decls *declarationSet) *Scope {
	return &Scope{
		step:       step,
		decls:      decls,
		values:     map[string]any{},
		pendingSet: map[string]struct{}{},
	}
}

// Parent returns the scope of the enclosing build step, or nil at the root.
func (s *Scope) Parent() *Scope {
	if s.step.parent == nil {
		return nil
	}
	return s.step.parent.scope
}

// Step returns the build step owning this scope.
func (s *Scope) Step() *BuildStep { return s.step }

// Has reports whether the scope declares the given attribute.
func (s *Scope) Has(name string) bool {
	return s.decls.has(name)
}

// Attr resolves one attribute, evaluating its declaration on first access
// and caching the result for the lifetime of the build step. Reentrant
// access to a name already being resolved fails with a
// CyclicDefinitionError carrying the pending chain.
func (s *Scope) Attr(name string) (any, error) {
	if v, ok := s.values[name]; ok {
		return v, nil
	}
	if _, ok := s.pendingSet[name]; ok {
		return nil, &CyclicDefinitionError{Chain: append(slices.Clone(s.pending), name)}
	}
	entry := s.decls.get(name)
	if entry == nil {
		return nil, &UnknownAttributeError{Name: name, Scope: s.step.factory.Name()}
	}
	decl, ok := entry.value.(Declaration)
	if !ok {
		if len(entry.context) > 0 {
			return nil, NewDefinitionError(s.step.factory.Name(), name,
				"nested context supplied for a plain value")
		}
		s.values[name] = entry.value
		return entry.value, nil
	}

	s.pending = append(s.pending, name)
	s.pendingSet[name] = struct{}{}
	defer func() {
		s.pending = s.pending[:len(s.pending)-1]
		delete(s.pendingSet, name)
	}()

	if logger := s.step.logger(); logger != nil {
		logger.Debug("resolving attribute",
			"factory", s.step.factory.Name(), "name", name, "depth", len(s.pending))
	}
	ec, err := s.step.evalContext(s, decl, entry.context)
	if err != nil {
		return nil, err
	}
	v, err := decl.Evaluate(ec)
	if err != nil {
		return nil, err
	}
	s.values[name] = v
	return v, nil
}

// deepGet performs one attribute-style lookup on an already-resolved value:
// a stub attribute, a map key, or an exported struct field.
func deepGet(v any, name string) (any, bool) {
	switch t := v.(type) {
	case *Stub:
		return t.Attr(name)
	case map[string]any:
		out, ok := t[name]
		return out, ok
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Struct:
		if f, ok := structField(rv, name); ok {
			return f.Interface(), true
		}
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			out := rv.MapIndex(reflect.ValueOf(name))
			if out.IsValid() {
				return out.Interface(), true
			}
		}
	}
	return nil, false
}
