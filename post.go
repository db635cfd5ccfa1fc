package factory

import (
	"fmt"
	"reflect"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// ExtractedKey is the sentinel context key carrying a bare call-time value
// supplied for a post-instantiation declaration: Build(Attr("hook", v))
// makes v available as the hook's extracted value. A more specific dotted
// override always wins over the bare value for the key it names.
const ExtractedKey = ""

// PostContext is the state handed to a post-generation hook.
type PostContext struct {
	// Instance is the constructed object.
	Instance any

	// Create reports whether the enclosing build persists the instance.
	Create bool

	// Extracted is the bare call-time override value for the hook's own
	// name, if one was supplied.
	Extracted    any
	HasExtracted bool

	// Kwargs holds the named context: static defaults merged under
	// call-time dotted overrides.
	Kwargs map[string]any

	// Step is the build step owning the hook invocation.
	Step *BuildStep
}

func newPostContext(ec *EvalContext) *PostContext {
	pc := &PostContext{
		Instance: ec.Instance,
		Create:   ec.Create,
		Kwargs:   make(map[string]any, len(ec.Extra)),
		Step:     ec.Step,
	}
	for k, v := range ec.Extra {
		if k == ExtractedKey {
			pc.Extracted = v
			pc.HasExtracted = true
			continue
		}
		pc.Kwargs[k] = v
	}
	return pc
}

// postGenerationDecl invokes a hook after instantiation.
type postGenerationDecl struct {
	base
	fn func(pc *PostContext) (any, error)
}

// PostGeneration returns a declaration invoking fn after the object has
// been instantiated. Hooks run in declaration order; call-time additions
// run after declared hooks, in the order supplied. The returned value is
// collected and reported to the factory's post-generation reporting hook.
func PostGeneration(fn func(pc *PostContext) (any, error)) Declaration {
	return &postGenerationDecl{base: newBase(), fn: fn}
}

func (d *postGenerationDecl) Phase() Phase { return PostInstantiation }

func (d *postGenerationDecl) Evaluate(ec *EvalContext) (any, error) {
	return d.fn(newPostContext(ec))
}

// relatedFactoryDecl builds a dependent object after instantiation.
type relatedFactoryDecl struct {
	base
	ref      *factoryRef
	selfAttr string
	defaults []Decl
	err      error
}

// RelatedFactory returns a post-instantiation declaration building a
// dependent object through another factory, with the just-built instance
// supplied under selfAttr (skipped when selfAttr is empty). A bare
// call-time override short-circuits the build and is used as the result.
func RelatedFactory(ref any, selfAttr string, defaults ...Decl) *relatedFactoryDecl {
	d := &relatedFactoryDecl{base: newBase(), selfAttr: selfAttr, defaults: defaults}
	d.ref, d.err = newFactoryRef(ref)
	return d
}

func (d *relatedFactoryDecl) Phase() Phase { return PostInstantiation }

// Defaults implements Declaration.
func (d *relatedFactoryDecl) Defaults() []Decl { return d.defaults }

func (d *relatedFactoryDecl) declarationError() error { return d.err }

func (d *relatedFactoryDecl) forwardsContext() bool { return true }

func (d *relatedFactoryDecl) Evaluate(ec *EvalContext) (any, error) {
	if v, ok := ec.Extra[ExtractedKey]; ok {
		return v, nil
	}
	f, err := d.ref.get()
	if err != nil {
		return nil, err
	}
	overrides := make([]Decl, 0, len(ec.extraOrder)+1)
	for _, o := range ec.extraDecls() {
		if o.Name != ExtractedKey {
			overrides = append(overrides, o)
		}
	}
	if d.selfAttr != "" {
		overrides = append(overrides, Decl{Name: d.selfAttr, Value: ec.Instance})
	}
	return ec.Step.Recurse(f, overrides, nil)
}

// postCallDecl invokes a method on the instance after construction.
type postCallDecl struct {
	base
	method string
	args   []any
}

// PostCall returns a post-instantiation declaration calling the named
// method on the instance. A bare call-time override replaces the default
// arguments. If the method's last return value is a non-nil error, the
// build fails; otherwise the first return value (if any) is collected.
func PostCall(method string, args ...any) Declaration {
	return &postCallDecl{base: newBase(), method: method, args: args}
}

func (d *postCallDecl) Phase() Phase { return PostInstantiation }

func (d *postCallDecl) Evaluate(ec *EvalContext) (any, error) {
	args := d.args
	if v, ok := ec.Extra[ExtractedKey]; ok {
		args = []any{v}
	}
	rv := reflect.ValueOf(ec.Instance)
	method := rv.MethodByName(d.method)
	if !method.IsValid() {
		return nil, NewDefinitionError("", d.method, fmt.Sprintf("no method %q on %T", d.method, ec.Instance))
	}
	mt := method.Type()
	if mt.IsVariadic() {
		if len(args) < mt.NumIn()-1 {
			return nil, NewDefinitionError("", d.method,
				fmt.Sprintf("method %q takes at least %d arguments, got %d", d.method, mt.NumIn()-1, len(args)))
		}
	} else if mt.NumIn() != len(args) {
		return nil, NewDefinitionError("", d.method,
			fmt.Sprintf("method %q takes %d arguments, got %d", d.method, mt.NumIn(), len(args)))
	}
	argType := func(i int) reflect.Type {
		if mt.IsVariadic() && i >= mt.NumIn()-1 {
			return mt.In(mt.NumIn() - 1).Elem()
		}
		return mt.In(i)
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		if a == nil {
			in[i] = reflect.Zero(argType(i))
			continue
		}
		in[i] = reflect.ValueOf(a)
	}
	out := method.Call(in)
	if n := len(out); n > 0 && out[n-1].Type().Implements(errorType) {
		if err, _ := out[n-1].Interface().(error); err != nil {
			return nil, err
		}
		out = out[:n-1]
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0].Interface(), nil
}
