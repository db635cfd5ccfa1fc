package factory_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	factory "github.com/FactoryBoy/factory-boy-sub000"
)

func TestDefinitionError(t *testing.T) {
	t.Parallel()

	err := factory.NewDefinitionError("UserFactory", "email", "unknown attribute root")
	assert.True(t, factory.IsDefinitionError(err))
	assert.True(t, errors.Is(err, factory.ErrDefinition))
	assert.Contains(t, err.Error(), "UserFactory")
	assert.Contains(t, err.Error(), "email")

	wrapped := fmt.Errorf("building fixtures: %w", err)
	assert.True(t, factory.IsDefinitionError(wrapped))

	var de *factory.DefinitionError
	require.True(t, errors.As(wrapped, &de))
	assert.Equal(t, "UserFactory", de.Factory)
}

func TestCyclicDefinitionError(t *testing.T) {
	t.Parallel()

	err := &factory.CyclicDefinitionError{Chain: []string{"a", "b", "a"}}
	assert.True(t, factory.IsCyclicDefinitionError(err))
	assert.True(t, errors.Is(err, factory.ErrCyclicDefinition))
	assert.Contains(t, err.Error(), "a -> b -> a")
}

func TestUnknownAttributeError(t *testing.T) {
	t.Parallel()

	err := &factory.UnknownAttributeError{Name: "ghost", Scope: "UserFactory"}
	assert.True(t, factory.IsUnknownAttributeError(err))
	assert.True(t, errors.Is(err, factory.ErrUnknownAttribute))
	assert.Contains(t, err.Error(), "ghost")
}

func TestStrategyError(t *testing.T) {
	t.Parallel()

	err := &factory.StrategyError{Strategy: "teleport", Factory: "UserFactory"}
	assert.True(t, factory.IsStrategyError(err))
	assert.True(t, errors.Is(err, factory.ErrUnknownStrategy))
	assert.Contains(t, err.Error(), "teleport")
}

func TestInstantiationErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := &factory.InstantiationError{Factory: "UserFactory", Field: "age", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "age")
}
