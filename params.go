package factory

import (
	"strings"
)

// traitDecl bundles several declaration overrides under one boolean switch.
// It is only meaningful as a parameter value (WithParams); activating the
// parameter at call time applies every override.
type traitDecl struct {
	overrides []Decl
}

// Trait returns a parameter value bundling declaration overrides under one
// boolean switch:
//
//	factory.WithParams(factory.Attr("even", factory.Trait(
//		factory.Attr("two", true),
//		factory.Attr("four", true),
//	)))
//
// Building with Attr("even", true) applies both overrides; otherwise each
// attribute keeps its declared value (or is omitted if it has none).
func Trait(overrides ...Decl) *traitDecl {
	return &traitDecl{overrides: overrides}
}

// paramDeps returns the parameter names a parameter value depends on.
func paramDeps(name string, value any, paramNames map[string]bool) []string {
	var deps []string
	seen := map[string]bool{name: true}
	add := func(n string) {
		if paramNames[n] && !seen[n] {
			seen[n] = true
			deps = append(deps, n)
		}
	}
	switch v := value.(type) {
	case *traitDecl:
		for _, o := range v.overrides {
			root, _ := splitKey(o.Name)
			add(root)
			if r, ok := o.Value.(referencer); ok {
				for _, n := range r.references() {
					add(n)
				}
			}
		}
	case referencer:
		for _, n := range v.references() {
			add(n)
		}
	}
	return deps
}

// orderParams computes a dependency-respecting order over the declared
// parameters. A cyclic dependency is a definition error, raised when the
// factory is assembled rather than at build time.
func orderParams(params []Decl, owner string) ([]Decl, error) {
	paramNames := make(map[string]bool, len(params))
	byName := make(map[string]Decl, len(params))
	for _, p := range params {
		paramNames[p.Name] = true
		byName[p.Name] = p
	}
	deps := make(map[string][]string, len(params))
	for _, p := range params {
		deps[p.Name] = paramDeps(p.Name, p.Value, paramNames)
	}

	const (
		white = iota // unvisited
		gray         // on the DFS stack
		black        // done
	)
	state := make(map[string]int, len(params))
	var ordered []Decl
	var visit func(name string, chain []string) error
	visit = func(name string, chain []string) error {
		switch state[name] {
		case black:
			return nil
		case gray:
			return NewDefinitionError(owner, name,
				"cyclic parameter dependency: "+strings.Join(append(chain, name), " -> "))
		}
		state[name] = gray
		for _, dep := range deps[name] {
			if err := visit(dep, append(chain, name)); err != nil {
				return err
			}
		}
		state[name] = black
		ordered = append(ordered, byName[name])
		return nil
	}
	for _, p := range params {
		if err := visit(p.Name, nil); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}

// applyParams overlays the parameters' contributed declarations onto the
// attribute set, in dependency order. A trait override wraps the previous
// declaration in a conditional keyed on the trait's own name; attributes a
// trait introduces without a prior declaration fall back to Skip, so they
// vanish from the arguments when the trait is off.
func applyParams(pre *declarationSet, ordered []Decl, owner string) error {
	for _, p := range ordered {
		trait, ok := p.Value.(*traitDecl)
		if !ok {
			pre.set(p.Name, p.Value)
			continue
		}
		for _, o := range trait.overrides {
			// A dotted override evaluates inside the nested build it
			// targets; the decider climbs back to the scope declaring
			// the trait, one level per nesting step.
			up := strings.Count(o.Name, nestedSep)
			decider := SelfAttribute(strings.Repeat(".", up) + p.Name).Default(false)

			root, sub := splitKey(o.Name)
			if sub == "" {
				var prev any = Skip
				if entry := pre.get(root); entry != nil {
					prev = entry.value
				}
				pre.set(root, Maybe(decider, o.Value, prev))
				continue
			}
			entry := pre.get(root)
			if entry == nil {
				return NewDefinitionError(owner, o.Name,
					"trait override targets an undeclared attribute")
			}
			var prev any = Skip
			for _, c := range entry.context {
				if c.Name == sub {
					prev = c.Value
					break
				}
			}
			entry.setContext(sub, Maybe(decider, o.Value, prev))
		}
	}
	return nil
}
