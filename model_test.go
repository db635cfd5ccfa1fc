package factory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	factory "github.com/FactoryBoy/factory-boy-sub000"
)

type article struct {
	Title     string
	WordCount int64
	AuthorID  int
	Draft     bool
}

func TestDefaultBuildStruct(t *testing.T) {
	t.Parallel()

	t.Run("snake case arguments match exported fields", func(t *testing.T) {
		t.Parallel()

		f := factory.MustNew(article{}, factory.WithDeclarations(
			factory.Attr("title", "hello"),
			factory.Attr("word_count", int64(120)),
			factory.Attr("author_id", 7),
		))
		v, err := f.Build()
		require.NoError(t, err)
		a := v.(*article)
		assert.Equal(t, "hello", a.Title)
		assert.Equal(t, int64(120), a.WordCount)
		assert.Equal(t, 7, a.AuthorID)
	})

	t.Run("convertible values are converted", func(t *testing.T) {
		t.Parallel()

		f := factory.MustNew(article{}, factory.WithDeclarations(
			factory.Attr("word_count", 42), // int into an int64 field
		))
		v, err := f.Build()
		require.NoError(t, err)
		assert.Equal(t, int64(42), v.(*article).WordCount)
	})

	t.Run("nil zeroes the field", func(t *testing.T) {
		t.Parallel()

		f := factory.MustNew(article{}, factory.WithDeclarations(
			factory.Attr("draft", true),
		))
		v, err := f.Build(factory.Attr("draft", nil))
		require.NoError(t, err)
		assert.False(t, v.(*article).Draft)
	})

	t.Run("unmatched argument is an instantiation error", func(t *testing.T) {
		t.Parallel()

		f := factory.MustNew(article{}, factory.WithDeclarations(
			factory.Attr("publisher", "acme"),
		))
		_, err := f.Build()
		require.Error(t, err)
		assert.True(t, factory.IsInstantiationError(err))
		assert.Contains(t, err.Error(), "publisher")
	})

	t.Run("incompatible value is an instantiation error", func(t *testing.T) {
		t.Parallel()

		f := factory.MustNew(article{}, factory.WithDeclarations(
			factory.Attr("title", 3.14),
		))
		_, err := f.Build()
		require.Error(t, err)
		assert.True(t, factory.IsInstantiationError(err))
	})
}

func TestDefaultBuildMap(t *testing.T) {
	t.Parallel()

	// The prototype's entries survive unless shadowed by a declaration.
	f := factory.MustNew(map[string]any{"kind": "fixture"}, factory.WithDeclarations(
		factory.Attr("name", "jane"),
	))
	m := buildMap(t, f)
	assert.Equal(t, "fixture", m["kind"])
	assert.Equal(t, "jane", m["name"])

	// Each build gets its own copy.
	m["kind"] = "mutated"
	assert.Equal(t, "fixture", buildMap(t, f)["kind"])
}

func TestNoTargetWithoutHook(t *testing.T) {
	t.Parallel()

	f := factory.MustNew(nil, factory.WithDeclarations(factory.Attr("a", 1)))
	_, err := f.Build()
	require.Error(t, err)
	assert.True(t, factory.IsDefinitionError(err))

	// The stub strategy needs no target.
	stub, err := f.Stub()
	require.NoError(t, err)
	v, ok := stub.Attr("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestPointerTarget(t *testing.T) {
	t.Parallel()

	f := factory.MustNew(&article{}, factory.WithDeclarations(
		factory.Attr("title", "ptr"),
	))
	v, err := f.Build()
	require.NoError(t, err)
	assert.Equal(t, "ptr", v.(*article).Title)
}

func TestFloatConversion(t *testing.T) {
	t.Parallel()

	// float64 converts to int64; this is a conversion, not a failure.
	f := factory.MustNew(article{}, factory.WithDeclarations(
		factory.Attr("word_count", 99.0),
	))
	v, err := f.Build()
	require.NoError(t, err)
	assert.Equal(t, int64(99), v.(*article).WordCount)
}
