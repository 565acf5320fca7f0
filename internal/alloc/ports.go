// Package alloc assigns contiguous port ranges to tenants out of a
// fixed global window. Allocation is pure arithmetic over the tenant's
// ordinal so the same ordinal always maps to the same range.
package alloc

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidWindow   = errors.New("port window is invalid")
	ErrInvalidWidth    = errors.New("ports per tenant must be positive")
	ErrNegativeOrdinal = errors.New("tenant ordinal must not be negative")
	ErrRangeExceeded   = errors.New("tenant port range exceeds the global window")
	ErrWindowTooNarrow = errors.New("port window is narrower than one tenant range")
)

// PortRange is the inclusive span of ports assigned to a single tenant.
type PortRange struct {
	Start int
	End   int
}

func (p PortRange) String() string {
	return fmt.Sprintf("%d-%d", p.Start, p.End)
}

// PortAllocator hands out fixed-width port ranges from [windowStart, windowEnd].
type PortAllocator struct {
	windowStart int
	windowEnd   int
	perTenant   int
}

// NewPortAllocator validates the window and returns an allocator.
func NewPortAllocator(windowStart, windowEnd, perTenant int) (*PortAllocator, error) {
	if windowStart <= 0 || windowEnd < windowStart {
		return nil, fmt.Errorf("%w: [%d, %d]", ErrInvalidWindow, windowStart, windowEnd)
	}

	if perTenant <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWidth, perTenant)
	}

	if windowEnd-windowStart < perTenant {
		return nil, fmt.Errorf("%w: window [%d, %d], width %d",
			ErrWindowTooNarrow, windowStart, windowEnd, perTenant)
	}

	return &PortAllocator{
		windowStart: windowStart,
		windowEnd:   windowEnd,
		perTenant:   perTenant,
	}, nil
}

// Allocate returns the port range for the tenant with the given ordinal.
// Ordinals are zero based and dense: ordinal 0 gets the first range in
// the window, ordinal 1 the next, with no gaps between ranges.
func (a *PortAllocator) Allocate(ordinal int) (PortRange, error) {
	if ordinal < 0 {
		return PortRange{}, fmt.Errorf("%w: %d", ErrNegativeOrdinal, ordinal)
	}

	if ordinal >= a.Capacity() {
		return PortRange{}, fmt.Errorf("%w: ordinal %d, capacity %d",
			ErrRangeExceeded, ordinal, a.Capacity())
	}

	start := a.windowStart + ordinal*a.perTenant

	return PortRange{Start: start, End: start + a.perTenant - 1}, nil
}

// Capacity reports how many tenants fit in the window, computed as
// (windowEnd - windowStart) / perTenant.
func (a *PortAllocator) Capacity() int {
	return (a.windowEnd - a.windowStart) / a.perTenant
}

// NextOrdinal returns the ordinal following the allocated range with
// the highest start port. A start below the window means nothing has
// been allocated yet.
func (a *PortAllocator) NextOrdinal(highestStart int) int {
	if highestStart < a.windowStart {
		return 0
	}

	return (highestStart-a.windowStart)/a.perTenant + 1
}

// PortsPerTenant reports the width of each tenant range.
func (a *PortAllocator) PortsPerTenant() int {
	return a.perTenant
}
