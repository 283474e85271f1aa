package memutils

import (
	"github.com/dustin/go-humanize"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// Statistics summarizes live memory. A block is a single mapping obtained from the platform, and
// an allocation is the range of it handed to the caller, so BlockBytes includes bookkeeping and
// padding that AllocationBytes does not.
type Statistics struct {
	BlockCount      int
	AllocationCount int
	BlockBytes      int
	AllocationBytes int
}

func (s *Statistics) Clear() {
	s.BlockCount = 0
	s.AllocationCount = 0
	s.BlockBytes = 0
	s.AllocationBytes = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.BlockCount += other.BlockCount
	s.AllocationCount += other.AllocationCount
	s.BlockBytes += other.BlockBytes
	s.AllocationBytes += other.AllocationBytes
}

// AddBlock records a single block holding a single allocation
func (s *Statistics) AddBlock(blockSize, allocationSize int) {
	s.BlockCount++
	s.BlockBytes += blockSize
	s.AllocationCount++
	s.AllocationBytes += allocationSize
}

// PrintJson writes the statistics as fields of an open JSON object
func (s *Statistics) PrintJson(json *jwriter.ObjectState) {
	json.Name("BlockCount").Int(s.BlockCount)
	json.Name("BlockBytes").Int(s.BlockBytes)
	json.Name("AllocationCount").Int(s.AllocationCount)
	json.Name("AllocationBytes").Int(s.AllocationBytes)
	json.Name("BlockSize").String(humanize.IBytes(uint64(s.BlockBytes)))
}
