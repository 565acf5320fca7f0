package alloc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpaas/tenantd/internal/alloc"
)

func TestNewPortAllocator(t *testing.T) {
	tests := map[string]struct {
		windowStart int
		windowEnd   int
		perTenant   int
		wantErr     error
	}{
		"default window": {
			windowStart: 11100,
			windowEnd:   11999,
			perTenant:   5,
		},
		"inverted window": {
			windowStart: 11999,
			windowEnd:   11100,
			perTenant:   5,
			wantErr:     alloc.ErrInvalidWindow,
		},
		"zero start": {
			windowStart: 0,
			windowEnd:   100,
			perTenant:   5,
			wantErr:     alloc.ErrInvalidWindow,
		},
		"zero width": {
			windowStart: 11100,
			windowEnd:   11999,
			perTenant:   0,
			wantErr:     alloc.ErrInvalidWidth,
		},
		"window narrower than one range": {
			windowStart: 11100,
			windowEnd:   11102,
			perTenant:   5,
			wantErr:     alloc.ErrWindowTooNarrow,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := alloc.NewPortAllocator(tt.windowStart, tt.windowEnd, tt.perTenant)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestAllocate(t *testing.T) {
	a, err := alloc.NewPortAllocator(11100, 11999, 5)
	require.NoError(t, err)

	tests := map[string]struct {
		ordinal   int
		wantRange alloc.PortRange
		wantErr   error
	}{
		"first tenant": {
			ordinal:   0,
			wantRange: alloc.PortRange{Start: 11100, End: 11104},
		},
		"second tenant": {
			ordinal:   1,
			wantRange: alloc.PortRange{Start: 11105, End: 11109},
		},
		"last fitting tenant": {
			ordinal:   178,
			wantRange: alloc.PortRange{Start: 11990, End: 11994},
		},
		"past capacity": {
			ordinal: 179,
			wantErr: alloc.ErrRangeExceeded,
		},
		"negative ordinal": {
			ordinal: -1,
			wantErr: alloc.ErrNegativeOrdinal,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := a.Allocate(tt.ordinal)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantRange, got)
		})
	}
}

func TestCapacity(t *testing.T) {
	a, err := alloc.NewPortAllocator(11100, 11999, 5)
	require.NoError(t, err)

	assert.Equal(t, 179, a.Capacity())
	assert.Equal(t, 5, a.PortsPerTenant())
}

func TestNextOrdinal(t *testing.T) {
	a, err := alloc.NewPortAllocator(11100, 11999, 5)
	require.NoError(t, err)

	assert.Equal(t, 0, a.NextOrdinal(0))
	assert.Equal(t, 1, a.NextOrdinal(11100))
	assert.Equal(t, 2, a.NextOrdinal(11105))
	assert.Equal(t, 179, a.NextOrdinal(11990))
}

func TestAllocateRangesAreContiguous(t *testing.T) {
	a, err := alloc.NewPortAllocator(20000, 20099, 4)
	require.NoError(t, err)

	prevEnd := 19999
	for ordinal := range a.Capacity() {
		r, err := a.Allocate(ordinal)
		require.NoError(t, err)

		assert.Equal(t, prevEnd+1, r.Start)
		assert.Equal(t, r.Start+3, r.End)
		prevEnd = r.End
	}
}
