package aligned

import (
	"fmt"
	"math"

	cerrors "github.com/cockroachdb/errors"
	"github.com/vkngwrapper/pagealloc/aligned/internal/osmem"
	"github.com/vkngwrapper/pagealloc/memutils"
)

const (
	// Alignment is the boundary every non-null Address is a multiple of
	Alignment = 4096

	// MaxSize is the largest size that can be passed to Allocate. Larger requests fail with
	// memutils.ErrInvalidSize. Requests below it may still fail with memutils.ErrAllocationFailure
	// if the platform cannot satisfy them.
	MaxSize int = (math.MaxInt &^ (Alignment - 1)) - 2*Alignment
)

func checkSize(size, maxSize int) error {
	if size < 0 {
		return cerrors.Wrapf(memutils.ErrInvalidSize, "size is %d", size)
	}
	if size > maxSize {
		return cerrors.Wrapf(memutils.ErrInvalidSize, "size %d is larger than the maximum of %d", size, maxSize)
	}

	return nil
}

// Allocate maps at least size bytes of zeroed memory and returns its Address, which is a
// multiple of Alignment. The caller owns the memory and must release it with Deallocate.
//
// Allocate keeps no state between calls and is safe for concurrent use.
func Allocate(size int) (Address, error) {
	err := checkSize(size, MaxSize)
	if err != nil {
		return 0, err
	}

	address, _, err := allocatePages(osmem.System{}, size)
	return address, err
}

// Deallocate releases memory returned by Allocate. address must be released exactly once.
//
// A null or misaligned address fails with memutils.ErrInvalidHandle without touching memory.
// Any other address that did not come from Allocate is undefined behavior.
func Deallocate(address Address) error {
	_, _, err := releasePages(osmem.System{}, address)
	return err
}

// allocationFailure wraps cause in memutils.ErrAllocationFailure. The sentinel matches through both
// the standard errors.Is and the cockroachdb one, and cause stays in the standard chain.
func allocationFailure(cause error, format string, args ...any) error {
	err := fmt.Errorf("%s: %w: %w", fmt.Sprintf(format, args...), memutils.ErrAllocationFailure, cause)
	return cerrors.Mark(err, memutils.ErrAllocationFailure)
}

func allocatePages(mapper osmem.Mapper, size int) (Address, int, error) {
	mapped := mappingSize(size)
	base, err := mapper.Map(mapped)
	if err != nil {
		return 0, 0, allocationFailure(err, "mapping %d bytes for an allocation of %d bytes", mapped, size)
	}

	address := Address(base + Alignment)
	if !address.IsAligned() {
		// The platform layer broke its contract. Give the memory back rather than hand out a
		// misaligned address.
		cause := cerrors.Newf("platform returned misaligned mapping %s", Address(base))
		if unmapErr := mapper.Unmap(base, mapped); unmapErr != nil {
			cause = cerrors.Wrapf(unmapErr, "releasing misaligned mapping %s", Address(base))
		}
		return 0, 0, allocationFailure(cause, "mapping %d bytes for an allocation of %d bytes", mapped, size)
	}

	h := headerFor(address)
	h.magic = headerMagic
	h.mapped = mapped
	h.size = size

	memutils.WriteMagicValue(address.Pointer(), size)

	return address, mapped, nil
}

// releasePages unmaps the allocation at address and returns its requested and mapped sizes.
// If the guard bytes were overwritten the memory is still released and the error matches
// memutils.ErrCorruptionDetected.
func releasePages(mapper osmem.Mapper, address Address) (int, int, error) {
	h, err := readHeader(address)
	if err != nil {
		return 0, 0, err
	}

	size := h.size
	mapped := h.mapped

	var corruptionErr error
	if !memutils.ValidateMagicValue(address.Pointer(), size) {
		corruptionErr = cerrors.Wrapf(memutils.ErrCorruptionDetected, "guard bytes after the %d-byte allocation at %s were overwritten", size, address)
	}

	h.magic = 0
	err = mapper.Unmap(uintptr(address)-Alignment, mapped)
	if err != nil {
		h.magic = headerMagic
		return size, mapped, cerrors.Wrapf(err, "unmapping %d bytes at %s", mapped, address)
	}

	return size, mapped, corruptionErr
}
