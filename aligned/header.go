package aligned

import (
	"unsafe"

	cerrors "github.com/cockroachdb/errors"
	"github.com/vkngwrapper/pagealloc/memutils"
)

// headerMagic marks a live header page. It spells PAGEALND.
const headerMagic uint64 = 0x50414745414c4e44

// header sits at the start of the page directly below every Address and records what Deallocate
// needs to release the mapping
type header struct {
	magic  uint64
	mapped int
	size   int
}

func headerFor(address Address) *header {
	return (*header)(unsafe.Pointer(uintptr(address) - Alignment))
}

// mappingSize is the number of bytes mapped for an allocation of size bytes: one header page
// followed by the requested range and its guard bytes, rounded up to whole pages
func mappingSize(size int) int {
	return Alignment + memutils.AlignUp(size+memutils.DebugMargin, Alignment)
}

// checkHandle rejects addresses that are null or misaligned without reading memory
func checkHandle(address Address) error {
	if address.IsNull() {
		return cerrors.Wrap(memutils.ErrInvalidHandle, "address is null")
	}
	if !address.IsAligned() {
		return cerrors.Wrapf(memutils.ErrInvalidHandle, "address %s is not aligned to %d", address, Alignment)
	}

	return nil
}

// readHeader returns the header for address. Reading the header of an address that did not come
// from Allocate may fault.
func readHeader(address Address) (*header, error) {
	err := checkHandle(address)
	if err != nil {
		return nil, err
	}

	h := headerFor(address)
	if h.magic != headerMagic {
		return nil, cerrors.Wrapf(memutils.ErrInvalidHandle, "address %s has no allocation header", address)
	}

	return h, nil
}
