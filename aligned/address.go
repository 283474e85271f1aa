package aligned

import (
	"fmt"
	"unsafe"

	"github.com/vkngwrapper/pagealloc/memutils"
)

// Address is the opaque starting address of an allocation. It is pointer-width and round-trips
// losslessly through any integer type of that width. The zero Address is null.
type Address uintptr

// IsNull returns true for the zero Address
func (a Address) IsNull() bool {
	return a == 0
}

// IsAligned returns true if the Address is a multiple of Alignment
func (a Address) IsAligned() bool {
	return memutils.IsAligned(uintptr(a), Alignment)
}

// Pointer converts the Address to an unsafe.Pointer. The memory behind it is not managed by
// the Go runtime, so the conversion is valid for as long as the allocation is live.
func (a Address) Pointer() unsafe.Pointer {
	return unsafe.Pointer(uintptr(a))
}

func (a Address) String() string {
	return fmt.Sprintf("0x%x", uintptr(a))
}
