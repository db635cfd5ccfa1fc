package factory

import (
	"log/slog"
	"reflect"
	"sort"
)

// Strategy selects how a factory materializes an object.
type Strategy string

const (
	// BuildStrategy constructs the object in memory.
	BuildStrategy Strategy = "build"

	// CreateStrategy constructs and persists the object through the
	// factory's creation hook.
	CreateStrategy Strategy = "create"

	// StubStrategy returns a plain *Stub attribute bag without touching
	// the target type or any instantiation hook.
	StubStrategy Strategy = "stub"
)

// InstantiateFunc turns resolved positional and keyword arguments into a
// built object. The build hook constructs only; the create hook also
// persists (see the adapter packages).
type InstantiateFunc func(step *BuildStep, args []any, kwargs map[string]any) (any, error)

// AdjustFunc is an extension hook adjusting the resolved keyword arguments
// before exclusion, renaming, and positional extraction.
type AdjustFunc func(step *BuildStep, kwargs map[string]any) error

// ReportFunc receives the instance and the collected post-generation
// results, exactly once per completed build step.
type ReportFunc func(instance any, create bool, results map[string]any) error

// config collects the raw options passed to New.
type config struct {
	name     string
	parent   *Factory
	decls    []Decl
	params   []Decl
	exclude  []string
	rename   map[string]string
	inline   []string
	abstract bool

	strategy Strategy
	allowed  []Strategy

	buildFn  InstantiateFunc
	createFn InstantiateFunc
	adjustFn AdjustFunc
	reportFn ReportFunc

	seqStart func() int64
	logger   *slog.Logger
}

// Option configures a factory definition.
type Option func(*config) error

// WithName sets the factory name used in error messages. Defaults to the
// target type's name.
func WithName(name string) Option {
	return func(c *config) error {
		c.name = name
		return nil
	}
}

// WithParent makes the new factory inherit the parent's declarations,
// parameters, hooks, and (unless the target type is overridden) its
// sequence counter. Own declarations shadow inherited ones by name.
func WithParent(parent *Factory) Option {
	return func(c *config) error {
		if parent == nil {
			return NewDefinitionError("", "", "nil parent factory")
		}
		c.parent = parent
		return nil
	}
}

// WithDeclarations adds attribute and post-generation declarations, in
// source order.
func WithDeclarations(decls ...Decl) Option {
	return func(c *config) error {
		c.decls = append(c.decls, decls...)
		return nil
	}
}

// WithParams declares named parameters: call-time knobs resolvable by other
// declarations but stripped from the instantiation arguments. A parameter
// whose value is a Trait expands into conditional overrides.
func WithParams(params ...Decl) Option {
	return func(c *config) error {
		c.params = append(c.params, params...)
		return nil
	}
}

// WithExclude names declarations resolved as usual but stripped from the
// instantiation arguments.
func WithExclude(names ...string) Option {
	return func(c *config) error {
		c.exclude = append(c.exclude, names...)
		return nil
	}
}

// WithRename maps declaration names to the argument names the instantiation
// hook receives, for target fields that collide with reserved names.
func WithRename(rename map[string]string) Option {
	return func(c *config) error {
		if c.rename == nil {
			c.rename = map[string]string{}
		}
		for from, to := range rename {
			c.rename[from] = to
		}
		return nil
	}
}

// WithInlineArgs names declarations peeled off, in order, into positional
// arguments for the instantiation hook.
func WithInlineArgs(names ...string) Option {
	return func(c *config) error {
		c.inline = append(c.inline, names...)
		return nil
	}
}

// Abstract marks the factory as a base for inheritance only; building it
// directly is an error.
func Abstract() Option {
	return func(c *config) error {
		c.abstract = true
		return nil
	}
}

// WithStrategy sets the default strategy used by Generate-less entry
// points in embedding code. Defaults to BuildStrategy.
func WithStrategy(s Strategy) Option {
	return func(c *config) error {
		c.strategy = s
		return nil
	}
}

// WithAllowedStrategies restricts the factory to the given strategies; any
// other strategy fails with a StrategyError. An empty call leaves all
// strategies allowed.
func WithAllowedStrategies(strategies ...Strategy) Option {
	return func(c *config) error {
		c.allowed = append(c.allowed, strategies...)
		return nil
	}
}

// WithBuild replaces the build-only instantiation hook. The default
// reflectively populates a new value of the target type.
func WithBuild(fn InstantiateFunc) Option {
	return func(c *config) error {
		c.buildFn = fn
		return nil
	}
}

// WithCreate sets the persisting instantiation hook used by the create
// strategy. Defaults to the build hook.
func WithCreate(fn InstantiateFunc) Option {
	return func(c *config) error {
		c.createFn = fn
		return nil
	}
}

// WithAdjust installs an extension hook adjusting the resolved keyword
// arguments before exclusion, renaming, and positional extraction.
func WithAdjust(fn AdjustFunc) Option {
	return func(c *config) error {
		c.adjustFn = fn
		return nil
	}
}

// WithAfterPostGeneration installs the post-generation reporting hook,
// invoked exactly once per completed build step with the instance and the
// collected hook results.
func WithAfterPostGeneration(fn ReportFunc) Option {
	return func(c *config) error {
		c.reportFn = fn
		return nil
	}
}

// WithSequenceStart sets the function producing the first sequence number.
// Defaults to zero.
func WithSequenceStart(fn func() int64) Option {
	return func(c *config) error {
		c.seqStart = fn
		return nil
	}
}

// WithLogger enables debug tracing of attribute resolution.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) error {
		c.logger = l
		return nil
	}
}

// options is the immutable per-factory metadata computed once by New.
type options struct {
	name   string
	parent *Factory

	target      any // prototype value, nil for abstract/stub-only factories
	targetType  reflect.Type
	targetIsMap bool

	abstract        bool
	defaultStrategy Strategy
	allowed         map[Strategy]bool // nil allows all

	// rawPre holds declarations before parameter expansion and is what
	// subclasses inherit; basePre is rawPre with parameters applied.
	rawPre   *declarationSet
	basePre  *declarationSet
	basePost *declarationSet

	params     []Decl
	paramNames map[string]bool
	exclude    map[string]bool
	rename     map[string]string
	inline     []string

	buildFn  InstantiateFunc
	createFn InstantiateFunc
	adjustFn AdjustFunc
	reportFn ReportFunc

	counter      *sequenceCounter
	counterOwner bool

	logger *slog.Logger
}

// prepareArguments turns the resolved attribute map into the final
// positional and keyword arguments: extension hook, then stripping of
// excluded names, parameters, the sequence override, and Skip markers,
// then renames, then positional extraction. The returned name list keeps
// the surviving keyword arguments in resolution order.
func (o *options) prepareArguments(step *BuildStep, order []string, kwargs map[string]any) ([]any, []string, map[string]any, error) {
	if o.adjustFn != nil {
		if err := o.adjustFn(step, kwargs); err != nil {
			return nil, nil, nil, err
		}
		// The hook may add arguments; append unseen names deterministically.
		known := make(map[string]bool, len(order))
		for _, name := range order {
			known[name] = true
		}
		var added []string
		for name := range kwargs {
			if !known[name] {
				added = append(added, name)
			}
		}
		sort.Strings(added)
		order = append(order, added...)
	}

	out := make(map[string]any, len(kwargs))
	names := make([]string, 0, len(kwargs))
	for _, name := range order {
		v, ok := kwargs[name]
		if !ok {
			continue // removed by the adjust hook
		}
		if o.exclude[name] || o.paramNames[name] || name == SequenceOverrideKey {
			continue
		}
		if _, skip := v.(skipSentinel); skip {
			continue
		}
		if to, ok := o.rename[name]; ok {
			name = to
		}
		out[name] = v
		names = append(names, name)
	}

	args := make([]any, 0, len(o.inline))
	for _, name := range o.inline {
		v, ok := out[name]
		if !ok {
			return nil, nil, nil, NewDefinitionError(o.name, name, "inline argument not resolved")
		}
		args = append(args, v)
		delete(out, name)
		for i, n := range names {
			if n == name {
				names = append(names[:i], names[i+1:]...)
				break
			}
		}
	}
	return args, names, out, nil
}

// instantiate dispatches on the strategy: build calls the build hook,
// create calls the persisting hook, stub returns a plain attribute bag
// without invoking either.
func (o *options) instantiate(step *BuildStep, args []any, names []string, kwargs map[string]any) (any, error) {
	switch step.strategy {
	case StubStrategy:
		return newStub(names, kwargs), nil
	case BuildStrategy:
		return o.buildFn(step, args, kwargs)
	case CreateStrategy:
		return o.createFn(step, args, kwargs)
	default:
		return nil, &StrategyError{Strategy: step.strategy, Factory: o.name, Message: "unknown strategy"}
	}
}
