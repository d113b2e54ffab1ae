package kernel_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uniconnect/backend/internal/kernel"
	"github.com/uniconnect/backend/internal/kernel/kerneltest"
	"github.com/uniconnect/backend/internal/websocket"
)

func TestValidate_MissingDeps(t *testing.T) {
	err := kernel.New().Wire()
	require.Error(t, err)

	assert.ErrorIs(t, err, kernel.ErrIncomplete)
	var missing kernel.MissingDepsError
	require.True(t, errors.As(err, &missing))
	assert.ElementsMatch(t, []string{"database (DB)", "websocket hub", "JWT secret"}, []string(missing))
}

func TestWire_BuildsServices(t *testing.T) {
	k, _ := kerneltest.New(t, nil)

	assert.NotNil(t, k.Auth())
	assert.NotNil(t, k.Groups())
	assert.NotNil(t, k.Notifications())
	assert.NotNil(t, k.Users())
	assert.NotNil(t, k.Posts())
	assert.NotNil(t, k.Connections())
	assert.NotNil(t, k.Messages())
	assert.NotNil(t, k.Cache())

	_, ok := k.Hub().GetHandler(websocket.MessageTypeSendGroupMessage)
	assert.True(t, ok, "chat handlers are registered on the hub")

	groups := k.Groups()
	require.NoError(t, k.Wire())
	assert.Same(t, groups, k.Groups(), "wiring twice keeps the same services")
}

func TestCleanup_RunsInReverseOrder(t *testing.T) {
	k := kernel.New()
	var order []int
	for i := 0; i < 3; i++ {
		k.OnCleanup(func(context.Context) error {
			order = append(order, i)
			if i == 1 {
				return errors.New("boom")
			}
			return nil
		})
	}

	require.NoError(t, k.Cleanup(context.Background()))
	assert.Equal(t, []int{2, 1, 0}, order)

	// cleanups run once
	require.NoError(t, k.Cleanup(context.Background()))
	assert.Len(t, order, 3)
}
