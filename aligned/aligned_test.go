package aligned

import (
	"math"
	"sort"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/pagealloc/memutils"
	"golang.org/x/sync/errgroup"
)

func TestAllocateIsAligned(t *testing.T) {
	sizes := []int{0, 1, 7, 64, 4095, 4096, 4097, 10000, 3 * 4096, 1 << 20, (1 << 20) + 3}

	for _, size := range sizes {
		address, err := Allocate(size)
		require.NoError(t, err, "size %d", size)
		require.False(t, address.IsNull())
		require.Zero(t, uintptr(address)%4096, "size %d returned %s", size, address)

		require.NoError(t, Deallocate(address))
	}
}

func TestAllocateFullRangeIsUsable(t *testing.T) {
	const size = 3*4096 + 123

	address, err := Allocate(size)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, Deallocate(address))
	}()

	data := unsafe.Slice((*byte)(address.Pointer()), size)
	for i := range data {
		require.Zero(t, data[i], "fresh memory is not zeroed at offset %d", i)
		data[i] = byte(i * 7)
	}
	for i := range data {
		require.Equal(t, byte(i*7), data[i])
	}
}

func TestAllocateZeroSizeIsUnique(t *testing.T) {
	first, err := Allocate(0)
	require.NoError(t, err)
	second, err := Allocate(0)
	require.NoError(t, err)

	require.False(t, first.IsNull())
	require.False(t, second.IsNull())
	require.NotEqual(t, first, second)
	require.True(t, first.IsAligned())
	require.True(t, second.IsAligned())

	require.NoError(t, Deallocate(first))
	require.NoError(t, Deallocate(second))
}

func TestAllocateNegativeSize(t *testing.T) {
	address, err := Allocate(-1)
	require.ErrorIs(t, err, memutils.ErrInvalidSize)
	require.True(t, address.IsNull())

	address, err = Allocate(math.MinInt)
	require.ErrorIs(t, err, memutils.ErrInvalidSize)
	require.True(t, address.IsNull())
}

func TestAllocateBeyondMaxSize(t *testing.T) {
	address, err := Allocate(MaxSize + 1)
	require.ErrorIs(t, err, memutils.ErrInvalidSize)
	require.True(t, address.IsNull())
}

func TestAllocateMoreThanAvailable(t *testing.T) {
	address, err := Allocate(MaxSize)
	require.ErrorIs(t, err, memutils.ErrAllocationFailure)
	require.NotErrorIs(t, err, memutils.ErrInvalidSize)
	require.True(t, address.IsNull())
}

func TestDeallocateRejectsNullAndMisaligned(t *testing.T) {
	require.ErrorIs(t, Deallocate(0), memutils.ErrInvalidHandle)
	require.ErrorIs(t, Deallocate(Address(4096*16+8)), memutils.ErrInvalidHandle)

	address, err := Allocate(100)
	require.NoError(t, err)
	require.ErrorIs(t, Deallocate(address+1), memutils.ErrInvalidHandle)
	require.NoError(t, Deallocate(address))
}

func TestDeallocateRejectsAddressWithoutHeader(t *testing.T) {
	// The second page of a larger allocation is mapped and aligned, but its preceding page is
	// user data rather than a header
	address, err := Allocate(3 * 4096)
	require.NoError(t, err)

	require.ErrorIs(t, Deallocate(address+4096), memutils.ErrInvalidHandle)
	require.NoError(t, Deallocate(address))
}

func TestAllocateDeallocateCycles(t *testing.T) {
	for i := 0; i < 10000; i++ {
		address, err := Allocate(4096)
		require.NoError(t, err)
		require.True(t, address.IsAligned())

		*(*uint64)(address.Pointer()) = uint64(i)

		require.NoError(t, Deallocate(address))
	}
}

func TestAllocateConcurrentRangesAreDisjoint(t *testing.T) {
	const workers = 8
	const perWorker = 64

	type span struct {
		start, end uintptr
	}

	results := make([][]span, workers)
	var group errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		group.Go(func() error {
			for i := 0; i < perWorker; i++ {
				size := (w*perWorker+i)*37 + 1
				address, err := Allocate(size)
				if err != nil {
					return err
				}
				if !address.IsAligned() {
					return memutils.ErrInvalidHandle
				}

				// Stamp the whole range so overlapping allocations would corrupt each other
				data := unsafe.Slice((*byte)(address.Pointer()), size)
				for j := range data {
					data[j] = byte(w)
				}
				results[w] = append(results[w], span{start: uintptr(address), end: uintptr(address) + uintptr(size)})
			}
			return nil
		})
	}
	require.NoError(t, group.Wait())

	var all []span
	for w, spans := range results {
		for _, s := range spans {
			data := unsafe.Slice((*byte)(unsafe.Pointer(s.start)), int(s.end-s.start))
			for _, b := range data {
				require.Equal(t, byte(w), b)
			}
		}
		all = append(all, spans...)
	}
	require.Len(t, all, workers*perWorker)

	sort.Slice(all, func(i, j int) bool { return all[i].start < all[j].start })
	for i := 1; i < len(all); i++ {
		require.LessOrEqual(t, all[i-1].end, all[i].start, "allocations %d and %d overlap", i-1, i)
	}

	for _, s := range all {
		require.NoError(t, Deallocate(Address(s.start)))
	}
}

func TestAddressString(t *testing.T) {
	require.Equal(t, "0x0", Address(0).String())
	require.Equal(t, "0x10001000", Address(0x10001000).String())
	require.True(t, Address(0).IsNull())
	require.True(t, Address(0x2000).IsAligned())
	require.False(t, Address(0x2004).IsAligned())
}
