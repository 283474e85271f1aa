package neighbors

import (
	"math"
	"math/rand"
)

// Point3D is a single point in a frame
type Point3D struct {
	X, Y, Z float32
}

// RandomNormal returns count points whose coordinates are drawn independently from a normal
// distribution
func RandomNormal(rng *rand.Rand, count int, mean, stdDev float32) []Point3D {
	points := make([]Point3D, count)
	for i := range points {
		points[i] = Point3D{
			X: normal(rng, mean, stdDev),
			Y: normal(rng, mean, stdDev),
			Z: normal(rng, mean, stdDev),
		}
	}

	return points
}

func normal(rng *rand.Rand, mean, stdDev float32) float32 {
	// Box-Muller; 1-Float64 keeps u1 away from zero
	u1 := 1.0 - rng.Float64()
	u2 := 1.0 - rng.Float64()
	standard := math.Sqrt(-2.0*math.Log(u1)) * math.Sin(2.0*math.Pi*u2)

	return mean + stdDev*float32(standard)
}

// Shuffle returns a random subset of points in random order, holding at least minKeep points
// when that many are available. Each coordinate of each returned point is offset by a random
// integer in [-jitter, jitter). The input slice is not modified.
func Shuffle(rng *rand.Rand, points []Point3D, minKeep int, jitter int) []Point3D {
	shuffled := make([]Point3D, len(points))
	copy(shuffled, points)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	keep := len(shuffled)
	if minKeep < keep {
		if minKeep < 0 {
			minKeep = 0
		}
		keep = minKeep + rng.Intn(keep-minKeep)
	}
	shuffled = shuffled[:keep]

	if jitter > 0 {
		for i := range shuffled {
			shuffled[i].X += float32(rng.Intn(2*jitter) - jitter)
			shuffled[i].Y += float32(rng.Intn(2*jitter) - jitter)
			shuffled[i].Z += float32(rng.Intn(2*jitter) - jitter)
		}
	}

	return shuffled
}
