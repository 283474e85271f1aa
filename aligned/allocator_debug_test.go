//go:build debug_pagealloc

package aligned

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/pagealloc/memutils"
)

func TestAllocatorDetectsOverrun(t *testing.T) {
	allocator := readyAllocator(t, CreateOptions{})

	intact, err := allocator.Allocate(100)
	require.NoError(t, err)
	overrun, err := allocator.Allocate(100)
	require.NoError(t, err)

	require.NoError(t, allocator.CheckCorruption())

	data := unsafe.Slice((*byte)(overrun.Pointer()), 100+memutils.DebugMargin)
	data[100] = 0

	err = allocator.CheckCorruption()
	require.ErrorIs(t, err, memutils.ErrCorruptionDetected)
	require.Contains(t, err.Error(), overrun.String())

	// The memory is released even though corruption is reported
	require.ErrorIs(t, allocator.Deallocate(overrun), memutils.ErrCorruptionDetected)
	require.ErrorIs(t, allocator.Deallocate(overrun), memutils.ErrInvalidHandle)

	require.NoError(t, allocator.CheckCorruption())
	require.NoError(t, allocator.Deallocate(intact))
}

func TestDebugBuildsAlwaysTrack(t *testing.T) {
	allocator := readyAllocator(t, CreateOptions{})

	address, err := allocator.Allocate(1)
	require.NoError(t, err)
	require.NoError(t, allocator.Deallocate(address))
	require.ErrorIs(t, allocator.Deallocate(address), memutils.ErrInvalidHandle)
}
