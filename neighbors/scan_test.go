package neighbors

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/pagealloc/aligned"
	"github.com/vkngwrapper/pagealloc/memutils"
)

func readyMatrix(t *testing.T, maxPoints int) (*aligned.Allocator, *Matrix) {
	allocator, err := aligned.New(nil, aligned.CreateOptions{Flags: aligned.CreateTrackAllocations})
	require.NoError(t, err)

	matrix, err := NewMatrix(allocator, maxPoints)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, matrix.Close())
	})

	return allocator, matrix
}

func TestNeighborsSmallFrame(t *testing.T) {
	points := []Point3D{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 2.5, Z: 0},
		{X: 10, Y: 10, Z: 10},
		{X: 1.5, Y: 1.5, Z: 1.5},
	}

	table, err := Neighbors(points, 3)
	require.NoError(t, err)
	require.Equal(t, [][]int{
		{1, 2, 4, -1, -1},
		{0, 2, 4, -1, -1},
		{0, 1, 4, -1, -1},
		{-1, -1, -1, -1, -1},
		{0, 1, 2, -1, -1},
	}, table)
}

func TestNeighborsBoundaryIsExclusive(t *testing.T) {
	points := []Point3D{{X: 0}, {X: 2}, {X: 1, Y: 1}}

	table, err := Neighbors(points, 2)
	require.NoError(t, err)
	// Exactly radius apart on one axis is not a neighbor
	require.Equal(t, []int{2, -1, -1}, table[0])
	require.Equal(t, []int{2, -1, -1}, table[1])
	require.Equal(t, []int{0, 1, -1}, table[2])
}

func TestNeighborsRejectsBadRadius(t *testing.T) {
	_, err := Neighbors(nil, 0)
	require.Error(t, err)
	_, err = Neighbors(nil, -1)
	require.Error(t, err)
}

func TestScanMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	points := RandomNormal(rng, 700, 0, 100)

	_, matrix := readyMatrix(t, 1000)

	require.NoError(t, Scan(context.Background(), points, 100, matrix))
	require.Equal(t, 700, matrix.Len())

	table, err := Neighbors(points, 100)
	require.NoError(t, err)
	require.True(t, matrix.Equal(table))

	for i := range table {
		row := matrix.Row(i)
		for j := range table[i] {
			require.Equal(t, table[i][j], int(row[j]), "row %d column %d", i, j)
		}
	}
}

func TestScanReusesMatrixAcrossFrames(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	base := RandomNormal(rng, 400, 0, 50)

	_, matrix := readyMatrix(t, 400)

	for frame := 0; frame < 5; frame++ {
		points := Shuffle(rng, base, 100, 10)

		require.NoError(t, Scan(context.Background(), points, 30, matrix))

		table, err := Neighbors(points, 30)
		require.NoError(t, err)
		require.True(t, matrix.Equal(table), "frame %d", frame)
	}
}

func TestScanRejectsTooManyPoints(t *testing.T) {
	_, matrix := readyMatrix(t, 10)

	points := make([]Point3D, 11)
	err := Scan(context.Background(), points, 1, matrix)
	require.ErrorContains(t, err, "capacity for 10")
}

func TestScanRejectsBadRadius(t *testing.T) {
	_, matrix := readyMatrix(t, 10)

	require.Error(t, Scan(context.Background(), make([]Point3D, 3), 0, matrix))
}

func TestScanStopsWhenCancelled(t *testing.T) {
	_, matrix := readyMatrix(t, 100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Scan(ctx, make([]Point3D, 100), 1, matrix)
	require.ErrorIs(t, err, context.Canceled)
}

func TestMatrixIsPageAligned(t *testing.T) {
	allocator, matrix := readyMatrix(t, 33)

	require.True(t, matrix.Address().IsAligned())
	require.Equal(t, 33, matrix.Capacity())
	require.Zero(t, matrix.Size()%aligned.Alignment)
	require.GreaterOrEqual(t, matrix.Size(), 33*33*4)

	var stats memutils.Statistics
	allocator.CalculateStatistics(&stats)
	require.Equal(t, 1, stats.AllocationCount)
	require.Equal(t, matrix.Size(), stats.AllocationBytes)
}

func TestMatrixClose(t *testing.T) {
	allocator, err := aligned.New(nil, aligned.CreateOptions{Flags: aligned.CreateTrackAllocations})
	require.NoError(t, err)

	matrix, err := NewMatrix(allocator, 64)
	require.NoError(t, err)

	require.NoError(t, matrix.Close())
	require.NoError(t, matrix.Close())

	var stats memutils.Statistics
	allocator.CalculateStatistics(&stats)
	require.Equal(t, memutils.Statistics{}, stats)

	require.ErrorContains(t, Scan(context.Background(), make([]Point3D, 2), 1, matrix), "closed")
}

func TestNewMatrixRejectsBadSizes(t *testing.T) {
	allocator, err := aligned.New(nil, aligned.CreateOptions{})
	require.NoError(t, err)

	_, err = NewMatrix(allocator, 0)
	require.Error(t, err)

	_, err = NewMatrix(allocator, math.MaxInt32)
	require.Error(t, err)
}

func BenchmarkScan(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	points := RandomNormal(rng, 2000, 0, 100)

	allocator, err := aligned.New(nil, aligned.CreateOptions{})
	require.NoError(b, err)
	matrix, err := NewMatrix(allocator, len(points))
	require.NoError(b, err)
	defer func() { _ = matrix.Close() }()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		require.NoError(b, Scan(context.Background(), points, 100, matrix))
	}
}

func BenchmarkNeighbors(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	points := RandomNormal(rng, 2000, 0, 100)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := Neighbors(points, 100)
		require.NoError(b, err)
	}
}
