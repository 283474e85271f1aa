//go:build debug_pagealloc

package memutils

import "unsafe"

const (
	// DebugEnabled is true when the debug_pagealloc build tag is present
	DebugEnabled bool = true
	// DebugMargin is the number of guard bytes reserved directly after the requested range of every
	// allocation, inside the same mapping
	DebugMargin int = 16
	// guardValue fills the guard bytes. An overrun that writes anything else is reported as
	// ErrCorruptionDetected when the allocation is released.
	guardValue uint32 = 0x7F84E666
)

// guardWords views the DebugMargin bytes that follow offset bytes of data as 32-bit words
func guardWords(data unsafe.Pointer, offset int) []uint32 {
	return unsafe.Slice((*uint32)(unsafe.Add(data, offset)), DebugMargin/int(unsafe.Sizeof(guardValue)))
}

// WriteMagicValue fills the guard bytes that follow the first offset bytes of data.
// This method no-ops unless the debug_pagealloc build tag is present.
func WriteMagicValue(data unsafe.Pointer, offset int) {
	guard := guardWords(data, offset)
	for i := range guard {
		guard[i] = guardValue
	}
}

// ValidateMagicValue reports whether the guard bytes written by WriteMagicValue are untouched.
// This method always returns true unless the debug_pagealloc build tag is present.
func ValidateMagicValue(data unsafe.Pointer, offset int) bool {
	for _, word := range guardWords(data, offset) {
		if word != guardValue {
			return false
		}
	}

	return true
}

// DebugValidate calls Validate on the provided object and panics if it fails, so bookkeeping errors
// surface at the call that caused them. This method no-ops unless the debug_pagealloc build tag is present.
func DebugValidate(validatable Validatable) {
	if err := validatable.Validate(); err != nil {
		panic(err)
	}
}

// DebugCheckPow2 panics if value is not a power of two.
// This method no-ops unless the debug_pagealloc build tag is present.
func DebugCheckPow2[T Number](value T, name string) {
	if err := CheckPow2(value, name); err != nil {
		panic(err)
	}
}
