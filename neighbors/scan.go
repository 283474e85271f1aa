package neighbors

import (
	"context"
	"math"
	"runtime"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

// rowsPerWorker controls how finely a scan is split; more chunks than workers keeps the tail short
const rowsPerWorker = 4

func checkRadius(radius float64) error {
	if !(radius > 0) || math.IsInf(radius, 1) {
		return errors.Newf("radius must be positive and finite, but was %v", radius)
	}
	return nil
}

// isNeighbor reports whether b lies within radius of a. Each axis is checked before the squared
// distance so distant points are rejected cheaply.
func isNeighbor(a, b Point3D, radius, radiusSquared float64) bool {
	xDiff := float32(math.Abs(float64(b.X - a.X)))
	yDiff := float32(math.Abs(float64(b.Y - a.Y)))
	zDiff := float32(math.Abs(float64(b.Z - a.Z)))

	if float64(xDiff) >= radius || float64(yDiff) >= radius || float64(zDiff) >= radius {
		return false
	}

	magnitudeSquared := xDiff*xDiff + yDiff*yDiff + zDiff*zDiff
	return float64(magnitudeSquared) < radiusSquared
}

func scanRow(points []Point3D, i int, radius float64, row []int32) {
	for j := range row {
		row[j] = -1
	}

	radiusSquared := radius * radius
	count := 0
	for j := range points {
		if j != i && isNeighbor(points[i], points[j], radius, radiusSquared) {
			row[count] = int32(j)
			count++
		}
	}
}

// Neighbors computes the neighbor table on the Go heap, one goroutine at a time. Row i holds the
// indices of every other point within radius of point i, ascending, padded to len(points) with -1.
// It is the reference Scan is checked against.
func Neighbors(points []Point3D, radius float64) ([][]int, error) {
	err := checkRadius(radius)
	if err != nil {
		return nil, err
	}

	radiusSquared := radius * radius
	table := make([][]int, len(points))
	for i := range points {
		row := make([]int, len(points))
		count := 0
		for j := range points {
			if j != i && isNeighbor(points[i], points[j], radius, radiusSquared) {
				row[count] = j
				count++
			}
		}
		for ; count < len(row); count++ {
			row[count] = -1
		}
		table[i] = row
	}

	return table, nil
}

// Scan computes the same table as Neighbors into out, splitting rows across up to GOMAXPROCS
// goroutines. It stops early if ctx is cancelled, leaving out partially written.
func Scan(ctx context.Context, points []Point3D, radius float64, out *Matrix) error {
	err := checkRadius(radius)
	if err != nil {
		return err
	}

	err = out.reset(len(points))
	if err != nil {
		return err
	}

	workers := runtime.GOMAXPROCS(0)
	chunk := max(1, len(points)/(workers*rowsPerWorker))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for start := 0; start < len(points); start += chunk {
		start := start
		end := min(start+chunk, len(points))
		group.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				scanRow(points, i, radius, out.Row(i))
			}
			return nil
		})
	}

	return group.Wait()
}

// Equal reports whether the Matrix holds the same table as a result of Neighbors
func (m *Matrix) Equal(table [][]int) bool {
	if len(table) != m.count {
		return false
	}

	for i, expected := range table {
		row := m.Row(i)
		if len(row) != len(expected) {
			return false
		}
		for j := range expected {
			if int(row[j]) != expected[j] {
				return false
			}
		}
	}

	return true
}
