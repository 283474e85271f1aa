// Package aligned allocates raw memory whose starting address is aligned to a 4096-byte page
// boundary, and hands it back as an opaque Address rather than a Go pointer.
//
// The memory is mapped directly from the operating system and is invisible to the Go garbage
// collector. The caller owns every Address returned by Allocate and must pass it to Deallocate
// exactly once. Passing an Address that did not come from Allocate, or deallocating the same
// Address twice, is undefined behavior unless the Allocator was created with
// CreateTrackAllocations, in which case it is reported as memutils.ErrInvalidHandle.
//
// Failures are reported through error returns and a zero Address. Errors can be matched with
// errors.Is against memutils.ErrInvalidSize, memutils.ErrAllocationFailure and
// memutils.ErrInvalidHandle.
//
// Allocating zero bytes succeeds and returns a unique, non-zero Address with no usable bytes. It
// must still be deallocated.
//
// Building with the debug_pagealloc tag places guard bytes after every allocation, verifies them
// on release and forces allocation tracking on for every Allocator.
package aligned
