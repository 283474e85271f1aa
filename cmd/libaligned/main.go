// Command libaligned builds a C shared library exposing page-aligned allocation to callers
// outside the Go runtime:
//
//	go build -buildmode=c-shared -o libaligned.so ./cmd/libaligned
//
// Addresses cross the boundary as uintptr_t. A zero address means the allocation failed.
package main

/*
#include <stdint.h>
*/
import "C"

// AlignedMallocGetPointer allocates numberOfBytes bytes aligned to 4096 and returns the address,
// or 0 on failure. The memory must be released with AlignedMallocFree.
//
//export AlignedMallocGetPointer
func AlignedMallocGetPointer(numberOfBytes C.int) C.uintptr_t {
	return C.uintptr_t(allocatePointer(int(numberOfBytes)))
}

// AlignedMallocFree releases an address returned by AlignedMallocGetPointer. It returns 0 on
// success and -1 if the address was rejected.
//
//export AlignedMallocFree
func AlignedMallocFree(pointer C.uintptr_t) C.int {
	return C.int(freePointer(uintptr(pointer)))
}

func main() {}
