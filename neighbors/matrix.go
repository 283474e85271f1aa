package neighbors

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/pagealloc/aligned"
	"github.com/vkngwrapper/pagealloc/memutils"
)

const cellSize = int(unsafe.Sizeof(int32(0)))

// Matrix is a square table of neighbor indices in page-aligned memory. It is sized once for a
// maximum number of points and reused across frames. Rows are packed with a stride equal to the
// number of points in the most recent scan.
type Matrix struct {
	allocator *aligned.Allocator
	address   aligned.Address
	capacity  int
	count     int
	cells     []int32
}

// NewMatrix allocates a Matrix able to hold the neighbors of up to maxPoints points. The backing
// memory is rounded up to a whole number of pages. It must be released with Close.
func NewMatrix(allocator *aligned.Allocator, maxPoints int) (*Matrix, error) {
	if maxPoints <= 0 {
		return nil, errors.Newf("maxPoints must be positive, but was %d", maxPoints)
	}
	if maxPoints > (aligned.MaxSize/cellSize)/maxPoints {
		return nil, errors.Wrapf(memutils.ErrInvalidSize, "a matrix for %d points is too large", maxPoints)
	}

	size := memutils.AlignUp(maxPoints*maxPoints*cellSize, aligned.Alignment)
	address, err := allocator.Allocate(size)
	if err != nil {
		return nil, errors.Wrapf(err, "allocating a neighbor matrix for %d points", maxPoints)
	}

	return &Matrix{
		allocator: allocator,
		address:   address,
		capacity:  maxPoints,
		cells:     unsafe.Slice((*int32)(address.Pointer()), size/cellSize),
	}, nil
}

// Capacity is the largest number of points this Matrix can hold
func (m *Matrix) Capacity() int {
	return m.capacity
}

// Len is the number of points in the most recent scan
func (m *Matrix) Len() int {
	return m.count
}

// Address is the page-aligned start of the backing memory
func (m *Matrix) Address() aligned.Address {
	return m.address
}

// Size is the number of bytes of backing memory, a multiple of aligned.Alignment
func (m *Matrix) Size() int {
	return len(m.cells) * cellSize
}

// Row returns the neighbors of point i from the most recent scan. The slice aliases the Matrix.
func (m *Matrix) Row(i int) []int32 {
	return m.cells[i*m.count : (i+1)*m.count]
}

// Close releases the backing memory. The Matrix and all rows taken from it are unusable
// afterward. Closing twice is a no-op.
func (m *Matrix) Close() error {
	if m.address.IsNull() {
		return nil
	}

	address := m.address
	m.address = 0
	m.cells = nil
	m.count = 0

	return m.allocator.Deallocate(address)
}

func (m *Matrix) reset(count int) error {
	if m.address.IsNull() {
		return errors.New("matrix is closed")
	}
	if count > m.capacity {
		return errors.Newf("%d points do not fit in a matrix with capacity for %d", count, m.capacity)
	}

	m.count = count
	return nil
}
