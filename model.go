package factory

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
)

// defaultBuild is the instantiation hook used when none is configured: it
// allocates a new value of the target type and populates it from the
// resolved arguments. Map targets get a shallow copy of the prototype with
// the arguments merged in; struct targets are matched field by field.
func defaultBuild(step *BuildStep, args []any, kwargs map[string]any) (any, error) {
	o := step.factory.opts
	if o.targetIsMap {
		proto := o.target.(map[string]any)
		out := make(map[string]any, len(proto)+len(kwargs))
		for k, v := range proto {
			out[k] = v
		}
		for k, v := range kwargs {
			out[k] = v
		}
		return out, nil
	}
	if o.targetType == nil {
		return nil, NewDefinitionError(o.name, "",
			"no target configured; set one, install a build hook, or use the stub strategy")
	}

	pv := reflect.New(o.targetType)
	rv := pv.Elem()
	for i, arg := range args {
		if i >= len(o.inline) {
			break
		}
		if err := assignField(o.name, rv, o.inline[i], arg); err != nil {
			return nil, err
		}
	}
	for name, v := range kwargs {
		if err := assignField(o.name, rv, name, v); err != nil {
			return nil, err
		}
	}
	return pv.Interface(), nil
}

// assignField sets one struct field from a resolved argument, converting
// the value when the types differ but are convertible.
func assignField(owner string, rv reflect.Value, name string, v any) error {
	field, ok := structField(rv, name)
	if !ok {
		return &InstantiationError{Factory: owner, Field: name,
			Err: fmt.Errorf("no field matching argument %q on %s", name, rv.Type())}
	}
	if v == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}
	val := reflect.ValueOf(v)
	switch {
	case val.Type().AssignableTo(field.Type()):
		field.Set(val)
	case val.Type().ConvertibleTo(field.Type()):
		field.Set(val.Convert(field.Type()))
	default:
		return &InstantiationError{Factory: owner, Field: name,
			Err: fmt.Errorf("cannot assign %T to field %s of %s", v, field.Type(), rv.Type())}
	}
	return nil
}

var foldCaser = cases.Fold()

// structField matches an argument name to an exported struct field: exact
// name first, then the CamelCase form of a snake_case name, then a
// case-folded comparison ignoring underscores.
func structField(rv reflect.Value, name string) (reflect.Value, bool) {
	t := rv.Type()
	if f, ok := t.FieldByName(name); ok && f.PkgPath == "" {
		return rv.FieldByIndex(f.Index), true
	}
	if camel := inflect.Camelize(name); camel != name {
		if f, ok := t.FieldByName(camel); ok && f.PkgPath == "" {
			return rv.FieldByIndex(f.Index), true
		}
	}
	want := foldCaser.String(strings.ReplaceAll(name, "_", ""))
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}
		if foldCaser.String(f.Name) == want {
			return rv.Field(i), true
		}
	}
	return reflect.Value{}, false
}
