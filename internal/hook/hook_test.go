package hook_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpaas/tenantd/internal/hook"
)

func recorder(id string, calls *[]string, err error) hook.ListenerFunc {
	return hook.ListenerFunc{
		ID: id,
		Fn: func(context.Context, hook.Event) error {
			*calls = append(*calls, id)
			return err
		},
	}
}

func TestEmitOrder(t *testing.T) {
	d := hook.NewDispatcher()

	var calls []string

	require.NoError(t, d.Register(hook.AfterCreate, recorder("first", &calls, nil)))
	require.NoError(t, d.Register(hook.AfterCreate, recorder("second", &calls, nil)))
	require.NoError(t, d.Register(hook.AfterCreate, recorder("third", &calls, nil)))

	d.Emit(t.Context(), hook.Event{Kind: hook.AfterCreate, TenantID: "acme"})

	assert.Equal(t, []string{"first", "second", "third"}, calls)
}

func TestEmitFailureIsIsolated(t *testing.T) {
	d := hook.NewDispatcher()

	var calls []string

	require.NoError(t, d.Register(hook.AfterSuspend, recorder("a", &calls, nil)))
	require.NoError(t, d.Register(hook.AfterSuspend, recorder("b", &calls, errors.New("hook exploded"))))
	require.NoError(t, d.Register(hook.AfterSuspend, recorder("c", &calls, nil)))

	d.Emit(t.Context(), hook.Event{Kind: hook.AfterSuspend, TenantID: "acme", Reason: "billing"})

	assert.Equal(t, []string{"a", "b", "c"}, calls)
}

func TestEmitOnlyMatchingKind(t *testing.T) {
	d := hook.NewDispatcher()

	var calls []string

	require.NoError(t, d.Register(hook.BeforeDelete, recorder("delete", &calls, nil)))
	require.NoError(t, d.Register(hook.AfterCreate, recorder("create", &calls, nil)))

	d.Emit(t.Context(), hook.Event{Kind: hook.BeforeDelete, TenantID: "acme", Hard: true})

	assert.Equal(t, []string{"delete"}, calls)
}

func TestEmitNoListeners(t *testing.T) {
	d := hook.NewDispatcher()

	assert.NotPanics(t, func() {
		d.Emit(t.Context(), hook.Event{Kind: hook.AfterProvision, TenantID: "acme"})
	})
}

func TestRegisterDuplicateID(t *testing.T) {
	d := hook.NewDispatcher()

	var calls []string

	require.NoError(t, d.Register(hook.AfterCreate, recorder("dup", &calls, nil)))

	err := d.Register(hook.AfterCreate, recorder("dup", &calls, nil))
	assert.ErrorIs(t, err, hook.ErrListenerRegistered)
}

func TestUnregister(t *testing.T) {
	d := hook.NewDispatcher()

	var calls []string

	require.NoError(t, d.Register(hook.AfterCreate, recorder("keep", &calls, nil)))
	require.NoError(t, d.Register(hook.AfterCreate, recorder("drop", &calls, nil)))

	d.Unregister(hook.AfterCreate, "drop")
	d.Unregister(hook.AfterCreate, "never-registered")

	d.Emit(t.Context(), hook.Event{Kind: hook.AfterCreate, TenantID: "acme"})

	assert.Equal(t, []string{"keep"}, calls)
}
