package factory

import (
	"log/slog"
	"sync"
)

// BuildStep is one in-progress construction of one object: its sequence
// number, its attribute resolver, and a reference to the enclosing step
// when the build was started by a sub-factory declaration. Steps are
// created per build and discarded once construction, including
// post-generation, completes.
type BuildStep struct {
	factory  *Factory
	strategy Strategy
	parent   *BuildStep
	sequence int64
	scope    *Scope
	instance any
}

// Factory returns the factory driving this step.
func (s *BuildStep) Factory() *Factory { return s.factory }

// Strategy returns the active strategy.
func (s *BuildStep) Strategy() Strategy { return s.strategy }

// Sequence returns the sequence number assigned to this build.
func (s *BuildStep) Sequence() int64 { return s.sequence }

// Parent returns the enclosing build step, or nil at the root.
func (s *BuildStep) Parent() *BuildStep { return s.parent }

// Instance returns the constructed object; nil until instantiation.
func (s *BuildStep) Instance() any { return s.instance }

func (s *BuildStep) logger() *slog.Logger { return s.factory.opts.logger }

// Recurse starts a nested build whose parent is this step, inheriting the
// active strategy. A non-nil forceSequence pins the nested build's sequence
// number, overriding any per-object sequence override.
func (s *BuildStep) Recurse(f *Factory, overrides []Decl, forceSequence *int64) (any, error) {
	return f.generate(s, s.strategy, forceSequence, overrides)
}

// generate drives one build: partition overrides, assign the sequence
// number, resolve attributes, instantiate, then run post-generation hooks
// in deterministic order and report the results.
func (f *Factory) generate(parent *BuildStep, strategy Strategy, forceSequence *int64, overrides []Decl) (any, error) {
	o := f.opts
	switch strategy {
	case BuildStrategy, CreateStrategy, StubStrategy:
	default:
		return nil, &StrategyError{Strategy: strategy, Factory: o.name, Message: "unknown strategy"}
	}
	if o.allowed != nil && !o.allowed[strategy] {
		return nil, &StrategyError{Strategy: strategy, Factory: o.name, Message: "not allowed on this factory"}
	}
	if o.abstract {
		return nil, NewDefinitionError(o.name, "", "cannot build an abstract factory")
	}

	pre := o.basePre.copy()
	post := o.basePost.copy()
	post.appendNew = true
	forced, err := parseDeclarations(pre, post, overrides)
	if err != nil {
		return nil, err
	}
	// An explicit forced value, from an enclosing call or a sub-factory's
	// sequence alignment, beats the per-object override, which beats
	// drawing from the owning counter.
	if forceSequence != nil {
		forced = forceSequence
	}

	step := &BuildStep{factory: f, strategy: strategy, parent: parent}
	if forced != nil {
		step.sequence = *forced
	} else {
		step.sequence = o.counter.next()
	}
	step.scope = newScope(step, pre)

	// Eagerly pull every declared attribute: this materializes the full
	// argument set and triggers lazy evaluation, sub-factory recursion,
	// and cycle detection.
	order := pre.sorted()
	kwargs := make(map[string]any, len(order))
	for _, name := range order {
		v, err := step.scope.Attr(name)
		if err != nil {
			return nil, err
		}
		kwargs[name] = v
	}

	args, names, prepared, err := o.prepareArguments(step, order, kwargs)
	if err != nil {
		return nil, err
	}
	instance, err := o.instantiate(step, args, names, prepared)
	if err != nil {
		return nil, err
	}
	step.instance = instance

	results := make(map[string]any)
	for _, name := range post.sorted() {
		entry := post.get(name)
		decl, ok := entry.value.(Declaration)
		if !ok {
			return nil, NewDefinitionError(o.name, name, "post-generation entry is not a declaration")
		}
		ec, err := step.evalContext(step.scope, decl, entry.context)
		if err != nil {
			return nil, err
		}
		ec.Instance = instance
		ec.Create = strategy == CreateStrategy
		v, err := decl.Evaluate(ec)
		if err != nil {
			return nil, err
		}
		results[name] = v
	}

	if o.reportFn != nil {
		if err := o.reportFn(instance, strategy == CreateStrategy, results); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// evalContext unrolls a declaration's nested context: static defaults
// merged under call-time overrides. Declarations forwarding their context
// (sub-factories, related factories) receive it verbatim as an override
// list; for all others, any declaration-valued entry is evaluated first by
// building a transient key-value container aligned with this build's
// sequence number.
func (s *BuildStep) evalContext(scope *Scope, decl Declaration, overrides []Decl) (*EvalContext, error) {
	merged := mergeContext(decl.Defaults(), overrides)
	ec := &EvalContext{Scope: scope, Step: s}

	forwards := false
	if cf, ok := decl.(contextForwarder); ok {
		forwards = cf.forwardsContext()
	}
	hasDecl := false
	if !forwards {
		for _, d := range merged {
			if _, ok := d.Value.(Declaration); ok {
				hasDecl = true
				break
			}
		}
	}
	if hasDecl {
		// The container is always built in memory, whatever the strategy of
		// the enclosing step.
		n := s.sequence
		v, err := transientFactory().generate(s, BuildStrategy, &n, merged)
		if err != nil {
			return nil, err
		}
		ec.Extra = v.(map[string]any)
		ec.extraOrder = make([]string, 0, len(merged))
		for _, d := range merged {
			ec.extraOrder = append(ec.extraOrder, d.Name)
		}
		return ec, nil
	}

	ec.Extra = make(map[string]any, len(merged))
	ec.extraOrder = make([]string, 0, len(merged))
	for _, d := range merged {
		ec.Extra[d.Name] = d.Value
		ec.extraOrder = append(ec.extraOrder, d.Name)
	}
	return ec, nil
}

// mergeContext overlays call-time overrides on static defaults: overridden
// names keep their declared position, new names append in supplied order.
func mergeContext(defaults, overrides []Decl) []Decl {
	merged := make([]Decl, len(defaults))
	copy(merged, defaults)
	for _, o := range overrides {
		replaced := false
		for i, d := range merged {
			if d.Name == o.Name {
				merged[i].Value = o.Value
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, o)
		}
	}
	return merged
}

var (
	transientOnce    sync.Once
	transientBuilder *Factory
)

// transientFactory builds the plain key-value containers used to evaluate
// declaration-valued nested context.
func transientFactory() *Factory {
	transientOnce.Do(func() {
		transientBuilder = MustNew(map[string]any{}, WithName("transient"))
	})
	return transientBuilder
}
