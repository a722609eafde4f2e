package world

import (
	"math"
	"testing"
)

func TestFindPathOpenFieldIncludesEndpoints(t *testing.T) {
	grid := newNavGrid(nil, 640, 640)
	start := Vec2{X: 100, Y: 100}
	target := Vec2{X: 400, Y: 100}

	path := grid.findPath(start, target)
	if len(path) < 2 {
		t.Fatalf("expected a usable path, got %v", path)
	}
	if path[0] != start {
		t.Fatalf("expected path to start at %+v, got %+v", start, path[0])
	}
	if path[len(path)-1] != target {
		t.Fatalf("expected path to end at %+v, got %+v", target, path[len(path)-1])
	}
	if len(path) != 2 {
		t.Fatalf("expected an open field to collapse to [start target], got %v", path)
	}
}

func TestFindPathSameCellIsDirect(t *testing.T) {
	grid := newNavGrid(nil, 640, 640)
	start := Vec2{X: 100, Y: 100}
	target := Vec2{X: 105, Y: 102}

	path := grid.findPath(start, target)
	if len(path) != 2 || path[1] != target {
		t.Fatalf("expected [start target], got %v", path)
	}
}

func TestFindPathRoutesAroundWall(t *testing.T) {
	wall := Obstacle{ID: "wall", X: 300, Y: 0, Width: 40, Height: 500}
	grid := newNavGrid([]Obstacle{wall}, 640, 640)
	start := Vec2{X: 100, Y: 100}
	target := Vec2{X: 500, Y: 100}

	path := grid.findPath(start, target)
	if len(path) < 3 {
		t.Fatalf("expected a detour, got %v", path)
	}
	for _, point := range path[1 : len(path)-1] {
		if CircleRectOverlap(point.X, point.Y, ActorRadius, wall) {
			t.Fatalf("expected path to avoid the wall, got point %+v", point)
		}
	}
	if cost := pathTravelCost(path); cost <= 400 {
		t.Fatalf("expected detour longer than the straight line, got %.1f", cost)
	}
	for i := 1; i < len(path); i++ {
		if !grid.lineOfSight(path[i-1], path[i]) {
			t.Fatalf("expected clear leg %d from %+v to %+v", i, path[i-1], path[i])
		}
	}
	if path[1].Dist(start) <= NavCellSize*2 {
		t.Fatalf("expected first waypoint to be a corner, got %+v", path[1])
	}
}

func TestFindPathUnreachableTarget(t *testing.T) {
	walls := []Obstacle{
		{ID: "north", X: 400, Y: 360, Width: 200, Height: 40},
		{ID: "south", X: 400, Y: 560, Width: 200, Height: 40},
		{ID: "west", X: 360, Y: 360, Width: 40, Height: 240},
		{ID: "east", X: 600, Y: 360, Width: 40, Height: 240},
	}
	grid := newNavGrid(walls, 1000, 1000)

	if path := grid.findPath(Vec2{X: 100, Y: 100}, Vec2{X: 500, Y: 480}); path != nil {
		t.Fatalf("expected no path into the sealed room, got %v", path)
	}
	if path := grid.findPath(Vec2{X: 100, Y: 100}, Vec2{X: 410, Y: 370}); path != nil {
		t.Fatalf("expected no path to a blocked cell, got %v", path)
	}
}

func TestHeuristicIsOctile(t *testing.T) {
	grid := newNavGrid(nil, 320, 320)
	got := grid.heuristic(navPoint{col: 0, row: 0}, navPoint{col: 3, row: 1})
	want := 3 + (math.Sqrt2 - 1)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestLineOfSightStopsAtObstacles(t *testing.T) {
	wall := Obstacle{ID: "wall", X: 300, Y: 0, Width: 40, Height: 500}
	grid := newNavGrid([]Obstacle{wall}, 640, 640)

	if grid.lineOfSight(Vec2{X: 100, Y: 100}, Vec2{X: 500, Y: 100}) {
		t.Fatalf("expected the wall to block the straight line")
	}
	if !grid.lineOfSight(Vec2{X: 100, Y: 600}, Vec2{X: 500, Y: 600}) {
		t.Fatalf("expected a clear line below the wall")
	}
}

func TestTrimNearSkipsReachedCorners(t *testing.T) {
	path := []Vec2{{X: 0, Y: 0}, {X: 40, Y: 0}, {X: 90, Y: 30}, {X: 300, Y: 30}, {X: 600, Y: 0}}

	got := trimNear(path, 100)
	if len(got) != 3 || got[0] != path[0] || got[1] != path[3] || got[2] != path[4] {
		t.Fatalf("expected [start %+v target], got %v", path[3], got)
	}
	if got := trimNear(path[:2], 100); len(got) != 2 {
		t.Fatalf("expected the target kept even inside the radius, got %v", got)
	}
	if got := trimNear(path, 0); len(got) != len(path) {
		t.Fatalf("expected no trimming without a radius, got %v", got)
	}
}
