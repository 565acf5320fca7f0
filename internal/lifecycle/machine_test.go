package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpaas/tenantd/internal/model"
)

func TestApplyTransition(t *testing.T) {
	tests := map[string]struct {
		current    model.TenantStatus
		transition Transition
		want       model.TenantStatus
		changed    bool
		wantErr    error
	}{
		"provision pending": {
			current:    model.TenantStatusPending,
			transition: TransitionProvision,
			want:       model.TenantStatusProvisioning,
			changed:    true,
		},
		"provision active tenant again": {
			current:    model.TenantStatusActive,
			transition: TransitionProvision,
			want:       model.TenantStatusProvisioning,
			changed:    true,
		},
		"provision deleted tenant": {
			current:    model.TenantStatusDeleted,
			transition: TransitionProvision,
			wantErr:    ErrInvalidTransition,
		},
		"complete provisioning": {
			current:    model.TenantStatusProvisioning,
			transition: TransitionComplete,
			want:       model.TenantStatusActive,
			changed:    true,
		},
		"complete from active": {
			current:    model.TenantStatusActive,
			transition: TransitionComplete,
			wantErr:    ErrInvalidTransition,
		},
		"activate suspended": {
			current:    model.TenantStatusSuspended,
			transition: TransitionActivate,
			want:       model.TenantStatusActive,
			changed:    true,
		},
		"activate active is noop": {
			current:    model.TenantStatusActive,
			transition: TransitionActivate,
			want:       model.TenantStatusActive,
			changed:    false,
		},
		"activate pending": {
			current:    model.TenantStatusPending,
			transition: TransitionActivate,
			want:       model.TenantStatusActive,
			changed:    true,
		},
		"activate deleted": {
			current:    model.TenantStatusDeleted,
			transition: TransitionActivate,
			wantErr:    ErrInvalidTransition,
		},
		"suspend active": {
			current:    model.TenantStatusActive,
			transition: TransitionSuspend,
			want:       model.TenantStatusSuspended,
			changed:    true,
		},
		"suspend pending": {
			current:    model.TenantStatusPending,
			transition: TransitionSuspend,
			want:       model.TenantStatusSuspended,
			changed:    true,
		},
		"suspend suspended is noop": {
			current:    model.TenantStatusSuspended,
			transition: TransitionSuspend,
			want:       model.TenantStatusSuspended,
			changed:    false,
		},
		"suspend deleted": {
			current:    model.TenantStatusDeleted,
			transition: TransitionSuspend,
			wantErr:    ErrInvalidTransition,
		},
		"delete active": {
			current:    model.TenantStatusActive,
			transition: TransitionDelete,
			want:       model.TenantStatusDeleted,
			changed:    true,
		},
		"delete deleted is noop": {
			current:    model.TenantStatusDeleted,
			transition: TransitionDelete,
			want:       model.TenantStatusDeleted,
			changed:    false,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, changed, err := applyTransition(t.Context(), tt.current, tt.transition)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.changed, changed)
		})
	}
}
