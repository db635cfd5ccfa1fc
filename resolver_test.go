package factory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	factory "github.com/FactoryBoy/factory-boy-sub000"
)

func attrOf(s *factory.Scope, name string) (any, error) {
	return s.Attr(name)
}

func TestScopeCaching(t *testing.T) {
	t.Parallel()

	calls := 0
	f := factory.MustNew(map[string]any{}, factory.WithDeclarations(
		factory.Attr("base", factory.LazyFunction(func() any {
			calls++
			return calls
		})),
		factory.Attr("a", factory.SelfAttribute("base")),
		factory.Attr("b", factory.SelfAttribute("base")),
	))

	m := buildMap(t, f)
	// Both readers observe the single cached evaluation.
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, m["a"])
	assert.Equal(t, 1, m["b"])
}

func TestScopeLaziness(t *testing.T) {
	t.Parallel()

	evaluated := false
	f := factory.MustNew(map[string]any{}, factory.WithDeclarations(
		factory.Attr("expensive", factory.LazyFunction(func() any {
			evaluated = true
			return "x"
		})),
		factory.Attr("cheap", 1),
	))

	// Overriding the declaration with a plain value skips its evaluation.
	m := buildMap(t, f, factory.Attr("expensive", "override"))
	assert.False(t, evaluated)
	assert.Equal(t, "override", m["expensive"])
}

func TestScopeCycleDetection(t *testing.T) {
	t.Parallel()

	t.Run("mutual cycle", func(t *testing.T) {
		t.Parallel()

		f := factory.MustNew(map[string]any{}, factory.WithDeclarations(
			factory.Attr("a", factory.LazyAttribute(func(s *factory.Scope) (any, error) {
				return attrOf(s, "b")
			})),
			factory.Attr("b", factory.LazyAttribute(func(s *factory.Scope) (any, error) {
				return attrOf(s, "a")
			})),
		))
		_, err := f.Build()
		require.Error(t, err)
		assert.True(t, factory.IsCyclicDefinitionError(err))

		var ce *factory.CyclicDefinitionError
		require.ErrorAs(t, err, &ce)
		assert.Contains(t, ce.Chain, "a")
		assert.Contains(t, ce.Chain, "b")
		// The chain closes on the attribute already being resolved.
		assert.Equal(t, ce.Chain[0], ce.Chain[len(ce.Chain)-1])
	})

	t.Run("self cycle", func(t *testing.T) {
		t.Parallel()

		f := factory.MustNew(map[string]any{}, factory.WithDeclarations(
			factory.Attr("a", factory.SelfAttribute("a")),
		))
		_, err := f.Build()
		require.Error(t, err)
		assert.True(t, factory.IsCyclicDefinitionError(err))
	})

	t.Run("diamond is not a cycle", func(t *testing.T) {
		t.Parallel()

		f := factory.MustNew(map[string]any{}, factory.WithDeclarations(
			factory.Attr("root", 1),
			factory.Attr("left", factory.SelfAttribute("root")),
			factory.Attr("right", factory.SelfAttribute("root")),
			factory.Attr("join", factory.LazyAttribute(func(s *factory.Scope) (any, error) {
				l, err := s.Attr("left")
				if err != nil {
					return nil, err
				}
				r, err := s.Attr("right")
				if err != nil {
					return nil, err
				}
				return l.(int) + r.(int), nil
			})),
		))
		m := buildMap(t, f)
		assert.Equal(t, 2, m["join"])
	})
}

func TestScopeUnknownAttribute(t *testing.T) {
	t.Parallel()

	f := factory.MustNew(map[string]any{}, factory.WithDeclarations(
		factory.Attr("a", factory.SelfAttribute("nope")),
	))
	_, err := f.Build()
	require.Error(t, err)
	assert.True(t, factory.IsUnknownAttributeError(err))
	assert.Contains(t, err.Error(), "nope")
}

func TestScopeNestedContextOnPlainValue(t *testing.T) {
	t.Parallel()

	f := factory.MustNew(map[string]any{}, factory.WithDeclarations(
		factory.Attr("profile", "plain"),
	))
	_, err := f.Build(factory.Attr("profile__city", "Tokyo"))
	require.Error(t, err)
	assert.True(t, factory.IsDefinitionError(err))
}
