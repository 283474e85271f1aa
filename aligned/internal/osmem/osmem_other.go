//go:build !unix && !windows

package osmem

import (
	"sync"
	"unsafe"

	"github.com/pkg/errors"
)

const pageSize = 4096

var (
	pinnedMutex sync.Mutex
	pinned      = make(map[uintptr][]byte)
)

// Map returns the address of size bytes of fresh, zeroed, read-write memory
func Map(size int) (uintptr, error) {
	if size > int(^uint(0)>>1)-pageSize {
		return 0, errors.Errorf("cannot map %d bytes", size)
	}

	buffer := make([]byte, size+pageSize)
	offset := 0
	if rem := int(uintptr(unsafe.Pointer(&buffer[0])) & (pageSize - 1)); rem != 0 {
		offset = pageSize - rem
	}
	address := uintptr(unsafe.Pointer(&buffer[offset]))

	pinnedMutex.Lock()
	defer pinnedMutex.Unlock()
	pinned[address] = buffer

	return address, nil
}

// Unmap releases a mapping previously returned by Map. size must be the value passed to Map.
func Unmap(address uintptr, size int) error {
	pinnedMutex.Lock()
	defer pinnedMutex.Unlock()

	if _, ok := pinned[address]; !ok {
		return errors.Errorf("address 0x%x was not mapped", address)
	}
	delete(pinned, address)

	return nil
}
