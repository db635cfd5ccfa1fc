package factory

import (
	"fmt"
	"reflect"
	"slices"
)

// Factory turns a set of named declarations into built objects. Factories
// are defined once with New and are safe to reuse for any number of
// builds; all per-build state lives in the build step.
type Factory struct {
	opts *options
}

// New assembles a factory for the given target from the supplied options.
// The target is a prototype: a struct value, a pointer to struct, or a
// map[string]any; it may be nil for abstract or stub-only factories, or
// when inherited through WithParent. Configuration problems (unknown
// nested-override roots, cyclic parameter dependencies, malformed
// declarations) are reported here, never at build time.
func New(target any, opts ...Option) (*Factory, error) {
	cfg := &config{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if _, ok := target.(*Factory); ok {
		return nil, NewDefinitionError(cfg.name, "", "target cannot itself be a factory; use SubFactory")
	}

	o := &options{name: cfg.name, parent: cfg.parent, abstract: cfg.abstract}
	var parent *options
	if cfg.parent != nil {
		parent = cfg.parent.opts
	}

	targetExplicit := target != nil
	switch {
	case targetExplicit:
		if m, ok := target.(map[string]any); ok {
			o.target = m
			o.targetIsMap = true
		} else {
			t := reflect.TypeOf(target)
			for t.Kind() == reflect.Pointer {
				t = t.Elem()
			}
			if t.Kind() != reflect.Struct {
				return nil, NewDefinitionError(cfg.name, "",
					fmt.Sprintf("target must be a struct, pointer to struct, or map[string]any, got %T", target))
			}
			o.target = target
			o.targetType = t
		}
	case parent != nil:
		o.target = parent.target
		o.targetType = parent.targetType
		o.targetIsMap = parent.targetIsMap
	}

	if o.name == "" {
		switch {
		case o.targetType != nil:
			o.name = o.targetType.Name() + "Factory"
		case o.targetIsMap:
			o.name = "DictFactory"
		default:
			o.name = "Factory"
		}
	}

	// Merge inherited declarations with the class body; own names shadow.
	if parent != nil {
		o.rawPre = parent.rawPre.copy()
		o.basePost = parent.basePost.copy()
	} else {
		o.rawPre = newDeclarationSet("attribute", o.name)
		o.basePost = newDeclarationSet("post-generation", o.name)
	}
	o.rawPre.owner, o.basePost.owner = o.name, o.name
	forced, err := parseDeclarations(o.rawPre, o.basePost, cfg.decls)
	if err != nil {
		return nil, err
	}
	if forced != nil {
		return nil, NewDefinitionError(o.name, SequenceOverrideKey,
			"reserved for call-time overrides")
	}

	// Merge inherited parameters, expand them over the attribute set in
	// dependency order, and fail on cycles now rather than at build time.
	if parent != nil {
		o.params = slices.Clone(parent.params)
	}
	for _, p := range cfg.params {
		replaced := false
		for i, existing := range o.params {
			if existing.Name == p.Name {
				o.params[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			o.params = append(o.params, p)
		}
	}
	ordered, err := orderParams(o.params, o.name)
	if err != nil {
		return nil, err
	}
	o.basePre = o.rawPre.copy()
	if err := applyParams(o.basePre, ordered, o.name); err != nil {
		return nil, err
	}
	o.paramNames = make(map[string]bool, len(o.params))
	for _, p := range o.params {
		o.paramNames[p.Name] = true
	}

	if err := checkDeclarations(o.name, o.basePre, o.basePost); err != nil {
		return nil, err
	}

	// Meta-style knobs, inherited then overlaid.
	o.exclude = map[string]bool{}
	o.rename = map[string]string{}
	if parent != nil {
		for name := range parent.exclude {
			o.exclude[name] = true
		}
		for from, to := range parent.rename {
			o.rename[from] = to
		}
		o.inline = slices.Clone(parent.inline)
		o.defaultStrategy = parent.defaultStrategy
		o.allowed = parent.allowed
		o.buildFn = parent.buildFn
		o.createFn = parent.createFn
		o.adjustFn = parent.adjustFn
		o.reportFn = parent.reportFn
		o.logger = parent.logger
	}
	for _, name := range cfg.exclude {
		o.exclude[name] = true
	}
	for from, to := range cfg.rename {
		o.rename[from] = to
	}
	if len(cfg.inline) > 0 {
		o.inline = cfg.inline
	}
	if cfg.strategy != "" {
		o.defaultStrategy = cfg.strategy
	}
	if o.defaultStrategy == "" {
		o.defaultStrategy = BuildStrategy
	}
	if len(cfg.allowed) > 0 {
		o.allowed = make(map[Strategy]bool, len(cfg.allowed))
		for _, s := range cfg.allowed {
			o.allowed[s] = true
		}
	}
	if cfg.buildFn != nil {
		o.buildFn = cfg.buildFn
	}
	if o.buildFn == nil {
		o.buildFn = defaultBuild
	}
	if cfg.createFn != nil {
		o.createFn = cfg.createFn
	}
	if o.createFn == nil {
		o.createFn = o.buildFn
	}
	if cfg.adjustFn != nil {
		o.adjustFn = cfg.adjustFn
	}
	if cfg.reportFn != nil {
		o.reportFn = cfg.reportFn
	}
	if cfg.logger != nil {
		o.logger = cfg.logger
	}

	// Counter ownership: a subclass inheriting the concrete target of a
	// non-abstract parent references the parent's counter, so siblings
	// draw from one stream. Overriding the target, even with the same
	// type, starts a fresh counter.
	start := cfg.seqStart
	if start == nil && parent != nil {
		start = parent.counter.start
	}
	if start == nil {
		start = func() int64 { return 0 }
	}
	if parent != nil && !parent.abstract && (parent.target != nil || parent.targetIsMap) && !targetExplicit {
		o.counter = parent.counter
	} else {
		o.counter = newSequenceCounter(start)
		o.counterOwner = true
	}

	return &Factory{opts: o}, nil
}

// MustNew is like New but panics on configuration errors. Intended for
// package-level factory definitions.
func MustNew(target any, opts ...Option) *Factory {
	f, err := New(target, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

// checkDeclarations surfaces construction errors collected by fluent
// declaration builders (e.g. a malformed YAML corpus).
func checkDeclarations(owner string, sets ...*declarationSet) error {
	for _, set := range sets {
		for _, name := range set.names {
			entry := set.get(name)
			values := []any{entry.value}
			for _, c := range entry.context {
				values = append(values, c.Value)
			}
			for _, v := range values {
				if e, ok := v.(errored); ok && e.declarationError() != nil {
					return NewDefinitionError(owner, name, e.declarationError().Error())
				}
			}
		}
	}
	return nil
}

// Name returns the factory name used in error messages.
func (f *Factory) Name() string { return f.opts.name }

// DefaultStrategy returns the strategy used by batch helpers and inherited
// by subfactory recursion.
func (f *Factory) DefaultStrategy() Strategy { return f.opts.defaultStrategy }

// Build constructs one object in memory.
func (f *Factory) Build(overrides ...Decl) (any, error) {
	return f.generate(nil, BuildStrategy, nil, overrides)
}

// Create constructs and persists one object through the creation hook.
func (f *Factory) Create(overrides ...Decl) (any, error) {
	return f.generate(nil, CreateStrategy, nil, overrides)
}

// Stub resolves the declarations into a plain attribute bag without
// instantiating the target type.
func (f *Factory) Stub(overrides ...Decl) (*Stub, error) {
	v, err := f.generate(nil, StubStrategy, nil, overrides)
	if err != nil {
		return nil, err
	}
	return v.(*Stub), nil
}

// Generate runs one build under the given strategy.
func (f *Factory) Generate(strategy Strategy, overrides ...Decl) (any, error) {
	return f.generate(nil, strategy, nil, overrides)
}

// BuildBatch builds size objects, drawing consecutive sequence numbers.
func (f *Factory) BuildBatch(size int, overrides ...Decl) ([]any, error) {
	return f.GenerateBatch(BuildStrategy, size, overrides...)
}

// CreateBatch creates size objects.
func (f *Factory) CreateBatch(size int, overrides ...Decl) ([]any, error) {
	return f.GenerateBatch(CreateStrategy, size, overrides...)
}

// StubBatch stubs size objects.
func (f *Factory) StubBatch(size int, overrides ...Decl) ([]*Stub, error) {
	out := make([]*Stub, 0, size)
	for i := 0; i < size; i++ {
		s, err := f.Stub(overrides...)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// GenerateBatch runs size builds under the given strategy.
func (f *Factory) GenerateBatch(strategy Strategy, size int, overrides ...Decl) ([]any, error) {
	out := make([]any, 0, size)
	for i := 0; i < size; i++ {
		v, err := f.generate(nil, strategy, nil, overrides)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ResetSequence makes the next build draw the given sequence number. Only
// the counter-owning factory may reset; a factory sharing an ancestor's
// counter must pass force, which resets the shared stream for every
// factory referencing it.
func (f *Factory) ResetSequence(value int64, force bool) error {
	if !f.opts.counterOwner && !force {
		return NewDefinitionError(f.opts.name, "",
			"cannot reset a sequence counter owned by an ancestor factory; pass force to reset the shared stream")
	}
	f.opts.counter.reset(value)
	return nil
}

// BuildT builds one object and asserts it to T.
func BuildT[T any](f *Factory, overrides ...Decl) (T, error) {
	return assertT[T](f.Build(overrides...))
}

// CreateT creates one object and asserts it to T.
func CreateT[T any](f *Factory, overrides ...Decl) (T, error) {
	return assertT[T](f.Create(overrides...))
}

func assertT[T any](v any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("factory: built %T, want %T", v, zero)
	}
	return out, nil
}
