//go:build windows

package osmem

import (
	"golang.org/x/sys/windows"
)

// Map returns the address of size bytes of fresh, zeroed, read-write memory
func Map(size int) (uintptr, error) {
	return windows.VirtualAlloc(0, uintptr(size), windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
}

// Unmap releases a mapping previously returned by Map. size must be the value passed to Map.
func Unmap(address uintptr, size int) error {
	// MEM_RELEASE frees the entire reservation and requires a size of 0
	return windows.VirtualFree(address, 0, windows.MEM_RELEASE)
}
