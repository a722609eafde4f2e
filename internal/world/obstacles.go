package world

import (
	"fmt"
	"math/rand"
)

const (
	ObstacleMinWidth    = 80.0
	ObstacleMaxWidth    = 220.0
	ObstacleMinHeight   = 80.0
	ObstacleMaxHeight   = 220.0
	ObstacleSpawnMargin = 120.0
)

// Obstacle is a static rectangle that blocks movement and navigation.
type Obstacle struct {
	ID     string  `json:"id" msgpack:"id"`
	X      float64 `json:"x" msgpack:"x"`
	Y      float64 `json:"y" msgpack:"y"`
	Width  float64 `json:"width" msgpack:"width"`
	Height float64 `json:"height" msgpack:"height"`
}

// GenerateObstacles scatters non-overlapping blocking rectangles around the
// central region of the arena.
func GenerateObstacles(rng *rand.Rand, count int, width, height float64) []Obstacle {
	if rng == nil || count <= 0 {
		return nil
	}

	obstacles := make([]Obstacle, 0, count)
	attempts := 0
	maxAttempts := count * 20
	for len(obstacles) < count && attempts < maxAttempts {
		attempts++

		w := ObstacleMinWidth + rng.Float64()*(ObstacleMaxWidth-ObstacleMinWidth)
		h := ObstacleMinHeight + rng.Float64()*(ObstacleMaxHeight-ObstacleMinHeight)

		minX, maxX := CentralTopLeftRange(width, width/2, ObstacleSpawnMargin, w)
		minY, maxY := CentralTopLeftRange(height, height/2, ObstacleSpawnMargin, h)
		candidate := Obstacle{
			ID:     fmt.Sprintf("obstacle-%d", len(obstacles)+1),
			X:      RandomDistance(rng, minX, maxX),
			Y:      RandomDistance(rng, minY, maxY),
			Width:  w,
			Height: h,
		}

		overlaps := false
		for _, obs := range obstacles {
			if ObstaclesOverlap(candidate, obs, ActorRadius*2) {
				overlaps = true
				break
			}
		}
		if overlaps {
			continue
		}
		obstacles = append(obstacles, candidate)
	}
	return obstacles
}

func blockedByObstacle(pos Vec2, obstacles []Obstacle) bool {
	for _, obs := range obstacles {
		if CircleRectOverlap(pos.X, pos.Y, ActorRadius, obs) {
			return true
		}
	}
	return false
}
