package world

import (
	"hash/fnv"
	"math/rand"
)

const centralSpawnRegionRatio = 0.5

// DeterministicSeedValue derives a stable per-subsystem seed from the root seed.
func DeterministicSeedValue(rootSeed, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

func NewDeterministicRNG(rootSeed, label string) *rand.Rand {
	return rand.New(rand.NewSource(DeterministicSeedValue(rootSeed, label)))
}

func RandomDistance(rng *rand.Rand, min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + rng.Float64()*(max-min)
}

// CentralTopLeftRange bounds the top-left corner of a box of the given size so
// it lands inside the central half of an axis.
func CentralTopLeftRange(total, center, margin, size float64) (float64, float64) {
	if total <= 0 {
		return margin, margin
	}

	regionHalf := total * centralSpawnRegionRatio / 2
	min := center - regionHalf
	max := center + regionHalf - size

	if min < margin {
		min = margin
	}
	maxLimit := total - margin - size
	if max > maxLimit {
		max = maxLimit
	}
	if max < min {
		max = min
	}
	return min, max
}

// randomOpenPosition samples a point away from obstacles. It gives up after a
// bounded number of draws and returns the last sample.
func randomOpenPosition(rng *rand.Rand, width, height float64, obstacles []Obstacle) Vec2 {
	var pos Vec2
	for attempt := 0; attempt < 64; attempt++ {
		pos = Vec2{
			X: RandomDistance(rng, ActorRadius*2, width-ActorRadius*2),
			Y: RandomDistance(rng, ActorRadius*2, height-ActorRadius*2),
		}
		if !blockedByObstacle(pos, obstacles) {
			return pos
		}
	}
	return pos
}
