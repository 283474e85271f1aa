//go:build unix

package osmem

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Map returns the address of size bytes of fresh, zeroed, read-write memory
func Map(size int) (uintptr, error) {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return 0, err
	}

	return uintptr(unsafe.Pointer(&data[0])), nil
}

// Unmap releases a mapping previously returned by Map. size must be the value passed to Map.
func Unmap(address uintptr, size int) error {
	// unix.Munmap looks mappings up by their first and last byte, so rebuilding the slice
	// over the same range finds the original mapping
	data := unsafe.Slice((*byte)(unsafe.Pointer(address)), size)
	return unix.Munmap(data)
}
