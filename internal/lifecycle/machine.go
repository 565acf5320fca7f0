package lifecycle

import (
	"context"
	"errors"

	"github.com/looplab/fsm"

	"github.com/openpaas/tenantd/internal/errs"
	"github.com/openpaas/tenantd/internal/model"
)

// Transition names the events driving the tenant state machine.
type Transition string

const (
	TransitionProvision Transition = "provision"
	TransitionComplete  Transition = "complete"
	TransitionActivate  Transition = "activate"
	TransitionSuspend   Transition = "suspend"
	TransitionDelete    Transition = "delete"
)

func (t Transition) String() string {
	return string(t)
}

// convertEvent converts Transition and TenantStatus types to string
// and creates an EventDesc object for the state machine.
func convertEvent(
	transition Transition,
	sourceStates []model.TenantStatus,
	destinationState model.TenantStatus,
) fsm.EventDesc {
	src := make([]string, len(sourceStates))
	for i, state := range sourceStates {
		src[i] = string(state)
	}

	return fsm.EventDesc{
		Name: transition.String(),
		Src:  src,
		Dst:  string(destinationState),
	}
}

// newStateMachine builds the tenant state machine positioned at the
// given status. Re-provisioning an already active or suspended tenant
// is allowed, it re-runs the idempotent database setup. Activate and
// suspend apply from any live state. Nothing leaves the deleted state
// except a hard delete, which bypasses the machine.
func newStateMachine(current model.TenantStatus) *fsm.FSM {
	return fsm.NewFSM(
		string(current),
		fsm.Events{
			convertEvent(
				TransitionProvision,
				[]model.TenantStatus{
					model.TenantStatusPending,
					model.TenantStatusProvisioning,
					model.TenantStatusActive,
					model.TenantStatusSuspended,
				},
				model.TenantStatusProvisioning,
			),
			convertEvent(
				TransitionComplete,
				[]model.TenantStatus{model.TenantStatusProvisioning},
				model.TenantStatusActive,
			),
			convertEvent(
				TransitionActivate,
				[]model.TenantStatus{
					model.TenantStatusPending,
					model.TenantStatusProvisioning,
					model.TenantStatusActive,
					model.TenantStatusSuspended,
				},
				model.TenantStatusActive,
			),
			convertEvent(
				TransitionSuspend,
				[]model.TenantStatus{
					model.TenantStatusPending,
					model.TenantStatusProvisioning,
					model.TenantStatusActive,
					model.TenantStatusSuspended,
				},
				model.TenantStatusSuspended,
			),
			convertEvent(
				TransitionDelete,
				[]model.TenantStatus{
					model.TenantStatusPending,
					model.TenantStatusProvisioning,
					model.TenantStatusActive,
					model.TenantStatusSuspended,
					model.TenantStatusDeleted,
				},
				model.TenantStatusDeleted,
			),
		},
		fsm.Callbacks{},
	)
}

// applyTransition runs one transition against a tenant's current
// status. It returns the resulting status and whether the status
// actually changed. A transition that would keep the status as is
// (activating an active tenant) is a successful no-op.
func applyTransition(ctx context.Context, current model.TenantStatus, transition Transition) (model.TenantStatus, bool, error) {
	machine := newStateMachine(current)

	err := machine.Event(ctx, transition.String())
	if err != nil {
		var noTransition fsm.NoTransitionError
		if errors.As(err, &noTransition) {
			return current, false, nil
		}

		var invalidEvent fsm.InvalidEventError
		if errors.As(err, &invalidEvent) {
			return current, false, errs.Wrap(ErrInvalidTransition, err)
		}

		return current, false, err
	}

	return model.TenantStatus(machine.Current()), true, nil
}
