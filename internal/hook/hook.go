// Package hook delivers tenant lifecycle events to registered
// listeners. Delivery is synchronous and ordered by registration; a
// failing listener is logged and never blocks the others or the
// operation that emitted the event.
package hook

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/openpaas/tenantd/internal/log"
	"github.com/openpaas/tenantd/internal/model"
)

// Kind identifies a lifecycle event.
type Kind string

const (
	BeforeCreate    Kind = "before_create"
	AfterCreate     Kind = "after_create"
	BeforeProvision Kind = "before_provision"
	AfterProvision  Kind = "after_provision"
	BeforeActivate  Kind = "before_activate"
	AfterActivate   Kind = "after_activate"
	BeforeSuspend   Kind = "before_suspend"
	AfterSuspend    Kind = "after_suspend"
	BeforeDelete    Kind = "before_delete"
	AfterDelete     Kind = "after_delete"
)

// Event carries everything a listener may need about a lifecycle
// transition. Tenant is a snapshot, mutating it has no effect on the
// stored record.
type Event struct {
	Kind     Kind
	TenantID string
	Tenant   *model.Tenant
	Plan     model.SubscriptionPlan
	Reason   string
	Hard     bool
}

// Listener receives lifecycle events. ListenerID must be stable, it is
// the registration and unregistration key.
type Listener interface {
	ListenerID() string
	OnLifecycleEvent(ctx context.Context, event Event) error
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc struct {
	ID string
	Fn func(ctx context.Context, event Event) error
}

func (l ListenerFunc) ListenerID() string { return l.ID }

func (l ListenerFunc) OnLifecycleEvent(ctx context.Context, event Event) error {
	return l.Fn(ctx, event)
}

var ErrListenerRegistered = errors.New("listener id is already registered")

// Dispatcher fans lifecycle events out to listeners per event kind.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners map[Kind][]Listener
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		listeners: map[Kind][]Listener{},
	}
}

// Register subscribes a listener to one event kind. Listeners fire in
// registration order.
func (d *Dispatcher) Register(kind Kind, listener Listener) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, l := range d.listeners[kind] {
		if l.ListenerID() == listener.ListenerID() {
			return ErrListenerRegistered
		}
	}

	d.listeners[kind] = append(d.listeners[kind], listener)

	return nil
}

// Unregister removes the listener with the given id from one event
// kind. Unknown ids are ignored.
func (d *Dispatcher) Unregister(kind Kind, listenerID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.listeners[kind] = slices.DeleteFunc(d.listeners[kind], func(l Listener) bool {
		return l.ListenerID() == listenerID
	})
}

// Emit delivers the event to every listener of its kind, in
// registration order. A listener error is logged and delivery
// continues; Emit itself never fails.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	d.mu.RLock()
	listeners := slices.Clone(d.listeners[event.Kind])
	d.mu.RUnlock()

	for _, listener := range listeners {
		err := listener.OnLifecycleEvent(ctx, event)
		if err != nil {
			log.Error(ctx, "lifecycle hook failed", err,
				slog.String("hook", string(event.Kind)),
				slog.String("listener", listener.ListenerID()),
				slog.String("tenantId", event.TenantID),
			)
		}
	}
}
