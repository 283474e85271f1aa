package aligned

import (
	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	pkgerrors "github.com/pkg/errors"
	"github.com/vkngwrapper/pagealloc/memutils"
	"golang.org/x/exp/slices"
)

// CalculateStatistics adds the live memory of this allocator to stats. Nothing is added unless
// allocations are tracked.
func (a *Allocator) CalculateStatistics(stats *memutils.Statistics) {
	a.logger.Debug("Allocator::CalculateStatistics")

	if !a.tracking {
		return
	}

	a.liveMutex.Lock()
	defer a.liveMutex.Unlock()

	stats.AddStatistics(&a.stats)
}

// BuildStatsString returns a JSON document describing this allocator and its live memory. If
// detailedMap is true and allocations are tracked, every live allocation is listed in address order.
func (a *Allocator) BuildStatsString(detailedMap bool) string {
	a.logger.Debug("Allocator::BuildStatsString")

	writer := jwriter.NewWriter()
	obj := writer.Object()

	obj.Name("Alignment").Int(Alignment)
	obj.Name("Flags").String(a.createFlags.String())
	obj.Name("Tracking").Bool(a.tracking)
	obj.Name("MaxAllocationSize").Int(a.maxAllocationSize)
	if a.totalSizeLimit > 0 {
		obj.Name("TotalSizeLimit").Int(a.totalSizeLimit)
	}

	if a.tracking {
		a.liveMutex.Lock()
		defer a.liveMutex.Unlock()

		total := obj.Name("Total").Object()
		a.stats.PrintJson(&total)
		total.End()

		if detailedMap {
			a.printDetailedMap(obj.Name("Allocations"))
		}
	}

	obj.End()

	return string(writer.Bytes())
}

func (a *Allocator) printDetailedMap(writer *jwriter.Writer) {
	addresses := make([]Address, 0, a.live.Count())
	a.live.Iter(func(address Address, _ liveAllocation) bool {
		addresses = append(addresses, address)
		return false
	})
	slices.Sort(addresses)

	arr := writer.Array()
	defer arr.End()

	for _, address := range addresses {
		alloc, _ := a.live.Get(address)

		o := arr.Object()
		o.Name("Address").String(address.String())
		o.Name("Size").Int(alloc.size)
		o.Name("MappedSize").Int(alloc.mapped)
		o.End()
	}
}

// Validate checks that the tracked totals agree with the tracked allocations. It always succeeds
// when allocations are not tracked.
func (a *Allocator) Validate() error {
	if !a.tracking {
		return nil
	}

	a.liveMutex.Lock()
	defer a.liveMutex.Unlock()

	var actual memutils.Statistics
	var misaligned []Address
	a.live.Iter(func(address Address, alloc liveAllocation) bool {
		if !address.IsAligned() {
			misaligned = append(misaligned, address)
		}
		actual.AddBlock(alloc.mapped, alloc.size)
		return false
	})

	if len(misaligned) > 0 {
		return pkgerrors.Errorf("%d live allocations are not aligned to %d, including %s", len(misaligned), Alignment, misaligned[0])
	}

	if actual != a.stats {
		return pkgerrors.Errorf("the tracked statistics (%+v) do not match the live allocations (%+v)", a.stats, actual)
	}

	if a.pendingBytes < 0 {
		return pkgerrors.Errorf("pending byte count is negative (%d)", a.pendingBytes)
	}

	return nil
}

// CheckCorruption verifies the guard bytes after every live allocation. It requires the
// debug_pagealloc build tag and returns memutils.ErrFeatureNotPresent without it.
func (a *Allocator) CheckCorruption() error {
	a.logger.Debug("Allocator::CheckCorruption")

	if !memutils.DebugEnabled || !a.tracking {
		return memutils.ErrFeatureNotPresent
	}

	a.liveMutex.Lock()
	defer a.liveMutex.Unlock()

	var corrupted []Address
	a.live.Iter(func(address Address, alloc liveAllocation) bool {
		if !memutils.ValidateMagicValue(address.Pointer(), alloc.size) {
			corrupted = append(corrupted, address)
		}
		return false
	})

	if len(corrupted) > 0 {
		slices.Sort(corrupted)
		return errors.Wrapf(memutils.ErrCorruptionDetected, "guard bytes overwritten after %d allocations, including %s", len(corrupted), corrupted[0])
	}

	return nil
}
