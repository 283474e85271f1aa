//go:build !debug_pagealloc

package memutils

import "unsafe"

const (
	// DebugEnabled is true when the debug_pagealloc build tag is present
	DebugEnabled bool = false
	// DebugMargin is 0 in release builds: mappings carry no guard bytes
	DebugMargin int = 0
)

// ValidateMagicValue always reports intact guard bytes, since release builds do not write any
func ValidateMagicValue(data unsafe.Pointer, offset int) bool {
	return true
}

// WriteMagicValue no-ops in release builds
func WriteMagicValue(data unsafe.Pointer, offset int) {
}

// DebugValidate no-ops in release builds. Build with -tags debug_pagealloc to validate the allocator
// after every tracked allocation and deallocation.
func DebugValidate(validatable Validatable) {
}

// DebugCheckPow2 no-ops in release builds
func DebugCheckPow2[T Number](value T, name string) {
}
