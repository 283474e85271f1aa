package aligned

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/pagealloc/aligned/internal/osmem"
	"github.com/vkngwrapper/pagealloc/aligned/internal/utils"
	"github.com/vkngwrapper/pagealloc/memutils"
	"golang.org/x/exp/slog"
)

// CreateFlags indicate specific allocator behaviors to activate or deactivate
type CreateFlags int32

var allocatorCreateFlagsMapping = make(map[CreateFlags]string)

func (f CreateFlags) Register(str string) {
	allocatorCreateFlagsMapping[f] = str
}

func (f CreateFlags) String() string {
	if f == 0 {
		return "None"
	}

	var names []string
	for bit := CreateFlags(1); bit != 0 && bit <= f; bit <<= 1 {
		if f&bit == 0 {
			continue
		}

		name, ok := allocatorCreateFlagsMapping[bit]
		if !ok {
			return "Unknown"
		}
		names = append(names, name)
	}

	return strings.Join(names, "|")
}

const (
	// CreateExternallySynchronized ensures that this allocator will not be synchronized internally.
	// The consumer must guarantee it is used from only one goroutine at a time or is synchronized by
	// some other mechanism. It only has an effect when allocations are tracked, since an untracked
	// allocator holds no mutable state.
	CreateExternallySynchronized CreateFlags = 1 << iota
	// CreateTrackAllocations causes the allocator to record every live allocation. Deallocating an
	// address that is not live is then reported as memutils.ErrInvalidHandle before any memory is
	// read, and statistics and limits become available.
	CreateTrackAllocations
)

func init() {
	CreateExternallySynchronized.Register("CreateExternallySynchronized")
	CreateTrackAllocations.Register("CreateTrackAllocations")
}

const (
	// initialTrackedCapacity is the starting size of the live allocation map
	initialTrackedCapacity uint32 = 42
)

// CreateOptions contains optional settings when creating an allocator
type CreateOptions struct {
	// Flags indicates specific allocator behaviors to activate or deactivate
	Flags CreateFlags

	// MaxAllocationSize is the largest request this allocator will accept. Larger requests fail with
	// memutils.ErrInvalidSize. 0 means MaxSize.
	MaxAllocationSize int

	// TotalSizeLimit caps the number of requested bytes that may be live at once. Requests that would
	// exceed it fail with memutils.ErrAllocationFailure. 0 means no limit. A limit requires
	// CreateTrackAllocations.
	TotalSizeLimit int

	// MemoryCallbackOptions is an optional set of callbacks that will be executed whenever this
	// allocator maps or unmaps memory
	MemoryCallbackOptions *MemoryCallbackOptions
}

// New creates a new Allocator
//
// logger - Receives debug output for every call. May be nil.
//
// options - Optional parameters: it is valid to leave all the fields blank
func New(logger *slog.Logger, options CreateOptions) (*Allocator, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard))
	}

	memutils.DebugCheckPow2(uint(Alignment), "Alignment")
	tracking := options.Flags&CreateTrackAllocations != 0 || memutils.DebugEnabled

	if options.MaxAllocationSize < 0 {
		return nil, errors.Newf("MaxAllocationSize must not be negative, but was %d", options.MaxAllocationSize)
	}
	if options.MaxAllocationSize > MaxSize {
		return nil, errors.Newf("MaxAllocationSize %d is larger than the maximum of %d", options.MaxAllocationSize, MaxSize)
	}
	if options.TotalSizeLimit < 0 {
		return nil, errors.Newf("TotalSizeLimit must not be negative, but was %d", options.TotalSizeLimit)
	}
	if options.TotalSizeLimit > 0 && !tracking {
		return nil, errors.New("CreateOptions.TotalSizeLimit was provided, but CreateTrackAllocations was not set")
	}

	allocator := &Allocator{
		logger:         logger,
		createFlags:    options.Flags,
		tracking:       tracking,
		totalSizeLimit: options.TotalSizeLimit,
		mapper:         osmem.System{},
		callbacks: memoryCallbacks{
			Callbacks: options.MemoryCallbackOptions,
		},
		liveMutex: utils.OptionalMutex{
			UseMutex: options.Flags&CreateExternallySynchronized == 0,
		},
	}
	allocator.callbacks.Allocator = allocator

	if options.MaxAllocationSize == 0 {
		allocator.maxAllocationSize = MaxSize
	} else {
		allocator.maxAllocationSize = options.MaxAllocationSize
	}

	if tracking {
		allocator.live = swiss.NewMap[Address, liveAllocation](initialTrackedCapacity)
	}

	logger.Debug("Allocator::New",
		slog.String("Flags", options.Flags.String()),
		slog.Bool("Tracking", tracking),
		slog.Int("MaxAllocationSize", allocator.maxAllocationSize),
		slog.Int("TotalSizeLimit", allocator.totalSizeLimit),
	)

	return allocator, nil
}
