package factory

// factoryRef is a lazily-resolved reference to another factory. Accepting a
// func() *Factory keeps mutually-referential factory definitions
// expressible; the cell is resolved on first use and cached.
type factoryRef struct {
	factory *Factory
	resolve func() *Factory
}

func newFactoryRef(ref any) (*factoryRef, error) {
	switch r := ref.(type) {
	case *Factory:
		if r == nil {
			return nil, NewDefinitionError("", "", "nil factory reference")
		}
		return &factoryRef{factory: r}, nil
	case func() *Factory:
		return &factoryRef{resolve: r}, nil
	default:
		return nil, NewDefinitionError("", "", "factory reference must be a *Factory or func() *Factory")
	}
}

func (r *factoryRef) get() (*Factory, error) {
	if r.factory == nil {
		r.factory = r.resolve()
		if r.factory == nil {
			return nil, NewDefinitionError("", "", "lazy factory reference resolved to nil")
		}
	}
	return r.factory, nil
}

// subFactoryDecl builds a nested object through another factory.
type subFactoryDecl struct {
	base
	ref          *factoryRef
	defaults     []Decl
	sameSequence bool
	err          error
}

// SubFactory returns a declaration whose value is an object built by
// another factory, using the enclosing build's strategy. The reference may
// be a *Factory or a func() *Factory for mutually-referential definitions.
// Defaults are overridden by call-time dotted overrides targeted at the
// declaration's name.
func SubFactory(ref any, defaults ...Decl) *subFactoryDecl {
	d := &subFactoryDecl{base: newBase(), defaults: defaults}
	d.ref, d.err = newFactoryRef(ref)
	return d
}

// SameSequence aligns the nested build's sequence number with the owning
// build's, keeping tightly-coupled sibling objects numbered together.
func (d *subFactoryDecl) SameSequence() *subFactoryDecl {
	d.sameSequence = true
	return d
}

func (d *subFactoryDecl) Phase() Phase { return AttributeResolution }

// Defaults implements Declaration.
func (d *subFactoryDecl) Defaults() []Decl { return d.defaults }

func (d *subFactoryDecl) declarationError() error { return d.err }

// forwardsContext marks the nested context as overrides for the sub-build
// rather than values to evaluate in the current scope.
func (d *subFactoryDecl) forwardsContext() bool { return true }

func (d *subFactoryDecl) Evaluate(ec *EvalContext) (any, error) {
	f, err := d.ref.get()
	if err != nil {
		return nil, err
	}
	var force *int64
	if d.sameSequence {
		n := ec.Step.Sequence()
		force = &n
	}
	return ec.Step.Recurse(f, ec.extraDecls(), force)
}
