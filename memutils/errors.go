package memutils

import "github.com/pkg/errors"

// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
var PowerOfTwoError error = errors.New("number must be a power of two")

var (
	// ErrInvalidSize is returned when an allocation is requested with a negative size, or a size larger than
	// the allocator is able to represent
	ErrInvalidSize error = errors.New("invalid allocation size")
	// ErrAllocationFailure is returned when the platform could not satisfy an allocation request, or when
	// satisfying it would exceed a configured limit
	ErrAllocationFailure error = errors.New("allocation failure")
	// ErrInvalidHandle is returned when an address passed to a deallocation or query method does not
	// correspond to a live allocation. Detection is best-effort unless allocation tracking is enabled.
	ErrInvalidHandle error = errors.New("invalid allocation handle")
	// ErrCorruptionDetected is returned when the guard bytes written after an allocation no longer hold
	// the expected magic value
	ErrCorruptionDetected error = errors.New("memory corruption detected")
	// ErrFeatureNotPresent is returned by debugging methods when the build tags that enable them are absent
	ErrFeatureNotPresent error = errors.New("feature not present")
)
