package factory

import "sync/atomic"

// Phase tags when a declaration is evaluated relative to object construction.
type Phase int

const (
	// AttributeResolution declarations are evaluated before the target
	// object exists and contribute to its constructor arguments.
	AttributeResolution Phase = iota

	// PostInstantiation declarations are evaluated after the target object
	// has been instantiated, as ordered side-effecting hooks.
	PostInstantiation
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case AttributeResolution:
		return "attribute-resolution"
	case PostInstantiation:
		return "post-instantiation"
	default:
		return "unknown"
	}
}

// creationCounter provides the global monotonic ordering key assigned to
// every declaration at construction time. It only orders declarations
// relative to each other; the value itself carries no meaning.
var creationCounter atomic.Uint64

func nextCreationOrder() uint64 {
	return creationCounter.Add(1)
}

// EvalContext carries the state a declaration may consult while evaluating.
type EvalContext struct {
	// Scope is the lazy attribute resolver for the build in progress.
	Scope *Scope

	// Step is the build step owning the resolution.
	Step *BuildStep

	// Extra is the unrolled nested context: the declaration's static
	// defaults merged with call-time dotted overrides.
	Extra map[string]any

	// extraOrder preserves the insertion order of Extra for declarations
	// that forward their context as overrides (sub-factories, hooks).
	extraOrder []string

	// Instance and Create are populated for PostInstantiation declarations
	// only: the constructed object and whether the build persists it.
	Instance any
	Create   bool
}

// extraDecls returns the unrolled context as an ordered override list.
func (ec *EvalContext) extraDecls() []Decl {
	decls := make([]Decl, 0, len(ec.extraOrder))
	for _, name := range ec.extraOrder {
		decls = append(decls, Decl{Name: name, Value: ec.Extra[name]})
	}
	return decls
}

// Declaration is a named, deferred specification of how to compute one
// attribute's value. Declarations are defined once, at factory definition
// time, and are reused read-only across every build; all per-build state
// lives in the build step and its resolver.
type Declaration interface {
	// Phase reports when the declaration is evaluated.
	Phase() Phase

	// CreationOrder returns the global ordering key assigned when the
	// declaration was constructed.
	CreationOrder() uint64

	// Defaults returns the declaration's static nested-context defaults,
	// merged under call-time dotted overrides before evaluation. May be nil.
	Defaults() []Decl

	// Evaluate computes the attribute value.
	Evaluate(ec *EvalContext) (any, error)
}

// referencer is implemented by declarations that can name the sibling
// attributes they read. Used for parameter dependency ordering.
type referencer interface {
	references() []string
}

// errored is implemented by declarations that collected a construction
// error, surfaced when the factory is assembled.
type errored interface {
	declarationError() error
}

// contextForwarder is implemented by declarations that pass their nested
// context on as overrides instead of having it unrolled (evaluated) first.
type contextForwarder interface {
	forwardsContext() bool
}

// base carries the creation-order key shared by all declaration variants.
type base struct {
	order uint64
}

func newBase() base {
	return base{order: nextCreationOrder()}
}

// CreationOrder returns the global ordering key.
func (b base) CreationOrder() uint64 { return b.order }

// Defaults returns nil; variants with nested defaults override it.
func (base) Defaults() []Decl { return nil }

// Decl is one named declaration or plain value, as supplied to a factory
// definition or a call-time override list. Dotted names use "__" to reach
// into nested declarations: Attr("profile__bio", v) overrides the "bio"
// attribute of the "profile" sub-factory.
type Decl struct {
	Name  string
	Value any
}

// Attr returns a named declaration entry for a factory definition or a
// call-time override list. The value may be a Declaration or a plain value.
func Attr(name string, value any) Decl {
	return Decl{Name: name, Value: value}
}

// SequenceOverrideKey is the reserved override name that forces the sequence
// number for a single invocation: Attr(SequenceOverrideKey, int64(42)).
const SequenceOverrideKey = "__sequence"

// WithSequenceValue returns an override forcing the sequence number for one
// build invocation.
func WithSequenceValue(n int64) Decl {
	return Decl{Name: SequenceOverrideKey, Value: n}
}

// skipSentinel is the type of Skip.
type skipSentinel struct{}

// String returns the sentinel name.
func (skipSentinel) String() string { return "factory.Skip" }

// Skip is a sentinel value: any attribute resolving to Skip is stripped
// from the arguments before instantiation.
var Skip = skipSentinel{}
