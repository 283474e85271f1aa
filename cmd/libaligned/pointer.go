package main

import (
	"github.com/vkngwrapper/pagealloc/aligned"
)

// allocatePointer returns the address of numberOfBytes page-aligned bytes, or 0 if the allocation
// failed for any reason
func allocatePointer(numberOfBytes int) uintptr {
	address, err := aligned.Allocate(numberOfBytes)
	if err != nil {
		return 0
	}

	return uintptr(address)
}

// freePointer releases an address returned by allocatePointer. It returns 0 on success and -1 if the
// address was rejected.
func freePointer(pointer uintptr) int {
	if err := aligned.Deallocate(aligned.Address(pointer)); err != nil {
		return -1
	}

	return 0
}
