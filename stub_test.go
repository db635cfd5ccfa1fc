package factory_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	factory "github.com/FactoryBoy/factory-boy-sub000"
)

func TestStubStrategy(t *testing.T) {
	t.Parallel()

	t.Run("resolves declarations without instantiation", func(t *testing.T) {
		t.Parallel()

		built := false
		f := factory.MustNew(map[string]any{},
			factory.WithBuild(func(step *factory.BuildStep, args []any, kwargs map[string]any) (any, error) {
				built = true
				return kwargs, nil
			}),
			factory.WithDeclarations(
				factory.Attr("name", "jane"),
				factory.Attr("email", factory.SelfAttribute("name")),
			),
		)

		stub, err := f.Stub()
		require.NoError(t, err)
		assert.False(t, built)

		v, ok := stub.Attr("email")
		require.True(t, ok)
		assert.Equal(t, "jane", v)
		assert.ElementsMatch(t, []string{"name", "email"}, stub.Names())
	})

	t.Run("nested factories stub recursively", func(t *testing.T) {
		t.Parallel()

		inner := factory.MustNew(map[string]any{}, factory.WithDeclarations(
			factory.Attr("city", "Paris"),
		))
		f := factory.MustNew(map[string]any{}, factory.WithDeclarations(
			factory.Attr("profile", factory.SubFactory(inner)),
		))

		stub, err := f.Stub()
		require.NoError(t, err)
		v, ok := stub.Attr("profile")
		require.True(t, ok)
		nested, ok := v.(*factory.Stub)
		require.True(t, ok)
		city, ok := nested.Attr("city")
		require.True(t, ok)
		assert.Equal(t, "Paris", city)
	})
}

func TestStubEncoding(t *testing.T) {
	t.Parallel()

	f := factory.MustNew(map[string]any{}, factory.WithDeclarations(
		factory.Attr("name", "jane"),
		factory.Attr("age", 30),
	))
	stub, err := f.Stub()
	require.NoError(t, err)

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(stub)
		require.NoError(t, err)
		var got map[string]any
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, "jane", got["name"])
		assert.EqualValues(t, 30, got["age"])
	})

	t.Run("msgpack", func(t *testing.T) {
		t.Parallel()

		data, err := msgpack.Marshal(stub)
		require.NoError(t, err)
		var got factory.Stub
		require.NoError(t, msgpack.Unmarshal(data, &got))
		name, ok := got.Attr("name")
		require.True(t, ok)
		assert.Equal(t, "jane", name)
		assert.Equal(t, stub.Names(), got.Names())
	})
}
