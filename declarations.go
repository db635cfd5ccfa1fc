package factory

import (
	"strings"

	"github.com/google/uuid"
)

// sequenceDecl derives a value from the build's sequence number.
type sequenceDecl struct {
	base
	fn func(n int64) any
}

// Sequence returns a declaration computing its value from the sequence
// number assigned to the build. Consecutive builds of the same factory see
// strictly increasing numbers, starting at the factory's sequence start.
func Sequence(fn func(n int64) any) Declaration {
	return &sequenceDecl{base: newBase(), fn: fn}
}

func (d *sequenceDecl) Phase() Phase { return AttributeResolution }

func (d *sequenceDecl) Evaluate(ec *EvalContext) (any, error) {
	return d.fn(ec.Step.Sequence()), nil
}

// lazyFunctionDecl computes a value with no access to siblings.
type lazyFunctionDecl struct {
	base
	fn func() any
}

// LazyFunction returns a declaration whose value is computed at build time
// by a function of nothing. Use it for values that must be fresh per build
// (timestamps, random identifiers) but depend on no other attribute.
func LazyFunction(fn func() any) Declaration {
	return &lazyFunctionDecl{base: newBase(), fn: fn}
}

func (d *lazyFunctionDecl) Phase() Phase { return AttributeResolution }

func (d *lazyFunctionDecl) Evaluate(*EvalContext) (any, error) {
	return d.fn(), nil
}

// UUIDValue returns a declaration producing a fresh UUIDv4 string per build.
func UUIDValue() Declaration {
	return LazyFunction(func() any { return uuid.NewString() })
}

// lazyAttributeDecl computes a value from sibling attributes.
type lazyAttributeDecl struct {
	base
	fn func(s *Scope) (any, error)
}

// LazyAttribute returns a declaration computed from sibling attributes.
// Accessing an attribute through the scope triggers its resolution; cyclic
// references fail with a CyclicDefinitionError.
func LazyAttribute(fn func(s *Scope) (any, error)) Declaration {
	return &lazyAttributeDecl{base: newBase(), fn: fn}
}

func (d *lazyAttributeDecl) Phase() Phase { return AttributeResolution }

func (d *lazyAttributeDecl) Evaluate(ec *EvalContext) (any, error) {
	return d.fn(ec.Scope)
}

// lazySequenceDecl combines the sequence number with sibling access.
type lazySequenceDecl struct {
	base
	fn func(s *Scope, n int64) (any, error)
}

// LazySequence returns a declaration computed from both the sequence number
// and sibling attributes.
func LazySequence(fn func(s *Scope, n int64) (any, error)) Declaration {
	return &lazySequenceDecl{base: newBase(), fn: fn}
}

func (d *lazySequenceDecl) Phase() Phase { return AttributeResolution }

func (d *lazySequenceDecl) Evaluate(ec *EvalContext) (any, error) {
	return d.fn(ec.Scope, ec.Step.Sequence())
}

// selfAttributeDecl copies another attribute, optionally from an ancestor
// scope, optionally with a fallback default.
type selfAttributeDecl struct {
	base
	depth      int    // leading dots: levels up the build-step chain
	path       string // dot-separated attribute path in the target scope
	fallback   any
	hasDefault bool
}

// SelfAttribute returns a declaration copying the value of another
// attribute. The path is resolved in the current scope; each leading dot
// climbs one level up the enclosing build chain, so "..x" reads x from the
// scope two levels above. Segments after the first are plain attribute
// lookups on the resolved value (struct field, map key, or stub attribute).
func SelfAttribute(path string) *selfAttributeDecl {
	depth := 0
	for depth < len(path) && path[depth] == '.' {
		depth++
	}
	return &selfAttributeDecl{base: newBase(), depth: depth, path: path[depth:]}
}

// Default sets the value returned when any path segment is missing.
func (d *selfAttributeDecl) Default(v any) *selfAttributeDecl {
	d.fallback = v
	d.hasDefault = true
	return d
}

func (d *selfAttributeDecl) Phase() Phase { return AttributeResolution }

func (d *selfAttributeDecl) references() []string {
	if d.depth > 0 || d.path == "" {
		return nil
	}
	root, _, _ := strings.Cut(d.path, ".")
	return []string{root}
}

func (d *selfAttributeDecl) Evaluate(ec *EvalContext) (any, error) {
	scope := ec.Scope
	for i := 0; i < d.depth; i++ {
		scope = scope.Parent()
		if scope == nil {
			if d.hasDefault {
				return d.fallback, nil
			}
			return nil, &UnknownAttributeError{Name: strings.Repeat(".", d.depth) + d.path}
		}
	}
	segments := strings.Split(d.path, ".")
	v, err := scope.Attr(segments[0])
	if err != nil {
		if d.hasDefault && IsUnknownAttributeError(err) {
			return d.fallback, nil
		}
		return nil, err
	}
	for _, seg := range segments[1:] {
		next, ok := deepGet(v, seg)
		if !ok {
			if d.hasDefault {
				return d.fallback, nil
			}
			return nil, &UnknownAttributeError{Name: d.path}
		}
		v = next
	}
	return v, nil
}

// maybeDecl selects between two values based on a boolean-valued sibling.
type maybeDecl struct {
	base
	decider Declaration
	yes, no any
}

// Maybe returns a declaration selecting between yes and no based on a
// boolean decider. The decider may be a sibling attribute name or any
// declaration evaluating to a bool; either branch may itself be a
// declaration or a plain value.
func Maybe(decider any, yes, no any) Declaration {
	d := &maybeDecl{base: newBase(), yes: yes, no: no}
	switch dec := decider.(type) {
	case string:
		d.decider = SelfAttribute(dec)
	case Declaration:
		d.decider = dec
	default:
		d.decider = LazyFunction(func() any { return decider })
	}
	return d
}

func (d *maybeDecl) Phase() Phase { return AttributeResolution }

func (d *maybeDecl) references() []string {
	var refs []string
	for _, v := range []any{d.decider, d.yes, d.no} {
		if r, ok := v.(referencer); ok {
			refs = append(refs, r.references()...)
		}
	}
	return refs
}

func (d *maybeDecl) Evaluate(ec *EvalContext) (any, error) {
	v, err := d.decider.Evaluate(ec)
	if err != nil {
		return nil, err
	}
	on := false
	switch dec := v.(type) {
	case nil:
	case bool:
		on = dec
	default:
		return nil, NewDefinitionError("", "", "Maybe decider must evaluate to a bool or nil")
	}
	branch := d.no
	if on {
		branch = d.yes
	}
	return evalWrapped(ec, branch)
}

// evalWrapped resolves a branch or wrapped value. A plain value passes
// through; a declaration gets a fresh context so its own nested defaults
// unroll, merged under the enclosing entry's call-time context.
func evalWrapped(ec *EvalContext, v any) (any, error) {
	decl, ok := v.(Declaration)
	if !ok {
		return v, nil
	}
	inner, err := ec.Step.evalContext(ec.Scope, decl, ec.extraDecls())
	if err != nil {
		return nil, err
	}
	inner.Instance = ec.Instance
	inner.Create = ec.Create
	return decl.Evaluate(inner)
}

// transformDecl applies a function to another declaration's value.
type transformDecl struct {
	base
	wrapped any
	fn      func(v any) (any, error)
}

// Transform returns a declaration wrapping another declaration (or plain
// value) and applying fn to the resolved value.
func Transform(wrapped any, fn func(v any) (any, error)) Declaration {
	return &transformDecl{base: newBase(), wrapped: wrapped, fn: fn}
}

func (d *transformDecl) Phase() Phase { return AttributeResolution }

func (d *transformDecl) references() []string {
	if r, ok := d.wrapped.(referencer); ok {
		return r.references()
	}
	return nil
}

func (d *transformDecl) Evaluate(ec *EvalContext) (any, error) {
	v, err := evalWrapped(ec, d.wrapped)
	if err != nil {
		return nil, err
	}
	return d.fn(v)
}
