package aligned

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/pagealloc/aligned/internal/osmem"
	"github.com/vkngwrapper/pagealloc/aligned/internal/utils"
	"github.com/vkngwrapper/pagealloc/memutils"
	"golang.org/x/exp/slog"
)

type liveAllocation struct {
	size   int
	mapped int
}

// Allocator hands out page-aligned allocations like Allocate and Deallocate, with optional
// tracking, limits and callbacks layered on top. Without CreateTrackAllocations it holds no
// mutable state and is safe for concurrent use.
type Allocator struct {
	logger      *slog.Logger
	createFlags CreateFlags
	callbacks   memoryCallbacks
	mapper      osmem.Mapper

	maxAllocationSize int
	totalSizeLimit    int

	tracking     bool
	liveMutex    utils.OptionalMutex
	live         *swiss.Map[Address, liveAllocation]
	stats        memutils.Statistics
	pendingBytes int
}

// Allocate maps at least size bytes of zeroed memory and returns its Address, which is a
// multiple of Alignment. The caller owns the memory and must release it with Deallocate on
// this same Allocator.
func (a *Allocator) Allocate(size int) (Address, error) {
	a.logger.Debug("Allocator::Allocate", slog.Int("Size", size))

	err := checkSize(size, a.maxAllocationSize)
	if err != nil {
		return 0, err
	}

	if a.tracking {
		err = a.reserve(size)
		if err != nil {
			return 0, err
		}
	}

	address, mapped, err := allocatePages(a.mapper, size)
	if err != nil {
		a.logger.Error("failed to map memory", slog.Int("Size", size), slog.Any("error", err))
		if a.tracking {
			a.unreserve(size)
		}
		return 0, err
	}

	if a.tracking {
		a.commit(address, liveAllocation{size: size, mapped: mapped})
		memutils.DebugValidate(a)
	}

	a.callbacks.Allocate(address, size)

	return address, nil
}

// Deallocate releases memory returned by Allocate on this Allocator. address must be released
// exactly once.
//
// When allocations are tracked, an address that is not live fails with memutils.ErrInvalidHandle
// and nothing is read. Otherwise only null and misaligned addresses are detected.
func (a *Allocator) Deallocate(address Address) error {
	a.logger.Debug("Allocator::Deallocate", slog.String("Address", address.String()))

	var alloc liveAllocation
	if a.tracking {
		var err error
		alloc, err = a.unregister(address)
		if err != nil {
			return err
		}
		memutils.DebugValidate(a)
	}

	size, _, err := releasePages(a.mapper, address)
	if err != nil && !errors.Is(err, memutils.ErrCorruptionDetected) {
		if a.tracking {
			// The memory is still mapped, so it stays live and can be released again
			a.register(address, alloc)
		}
		if !errors.Is(err, memutils.ErrInvalidHandle) {
			a.logger.Error("failed to unmap memory", slog.String("Address", address.String()), slog.Any("error", err))
		}
		return err
	}

	a.callbacks.Free(address, size)

	return err
}

// Size returns the number of bytes requested when address was allocated
func (a *Allocator) Size(address Address) (int, error) {
	if a.tracking {
		a.liveMutex.Lock()
		alloc, ok := a.live.Get(address)
		a.liveMutex.Unlock()

		if !ok {
			return 0, errors.Wrapf(memutils.ErrInvalidHandle, "address %s is not a live allocation", address)
		}
		return alloc.size, nil
	}

	h, err := readHeader(address)
	if err != nil {
		return 0, err
	}

	return h.size, nil
}

// Bytes returns a slice over the requested range of the allocation at address. The slice is
// only valid until the allocation is deallocated. A zero-size allocation returns nil.
func (a *Allocator) Bytes(address Address) ([]byte, error) {
	size, err := a.Size(address)
	if err != nil {
		return nil, err
	}

	if size == 0 {
		return nil, nil
	}

	return unsafe.Slice((*byte)(address.Pointer()), size), nil
}

func (a *Allocator) reserve(size int) error {
	a.liveMutex.Lock()
	defer a.liveMutex.Unlock()

	if a.totalSizeLimit > 0 {
		outstanding := a.stats.AllocationBytes + a.pendingBytes
		if size > a.totalSizeLimit-outstanding {
			return errors.Wrapf(memutils.ErrAllocationFailure,
				"allocating %d bytes with %d bytes outstanding would exceed the limit of %d",
				size, outstanding, a.totalSizeLimit)
		}
	}

	a.pendingBytes += size
	return nil
}

func (a *Allocator) unreserve(size int) {
	a.liveMutex.Lock()
	defer a.liveMutex.Unlock()

	a.pendingBytes -= size
}

// commit turns a reservation made by reserve into a live allocation
func (a *Allocator) commit(address Address, alloc liveAllocation) {
	a.liveMutex.Lock()
	defer a.liveMutex.Unlock()

	a.pendingBytes -= alloc.size
	a.live.Put(address, alloc)
	a.stats.AddBlock(alloc.mapped, alloc.size)
}

func (a *Allocator) register(address Address, alloc liveAllocation) {
	a.liveMutex.Lock()
	defer a.liveMutex.Unlock()

	a.live.Put(address, alloc)
	a.stats.AddBlock(alloc.mapped, alloc.size)
}

func (a *Allocator) unregister(address Address) (liveAllocation, error) {
	a.liveMutex.Lock()
	defer a.liveMutex.Unlock()

	alloc, ok := a.live.Get(address)
	if !ok {
		return alloc, errors.Wrapf(memutils.ErrInvalidHandle, "address %s is not a live allocation", address)
	}

	a.live.Delete(address)
	a.stats.BlockCount--
	a.stats.BlockBytes -= alloc.mapped
	a.stats.AllocationCount--
	a.stats.AllocationBytes -= alloc.size

	return alloc, nil
}
