package world

import (
	"container/heap"
	"math"
)

const NavCellSize = 32.0

type navNeighbor struct {
	col      int
	row      int
	cost     float64
	diagonal bool
}

var navNeighborOffsets = [...]navNeighbor{
	{col: 0, row: -1, cost: 1},
	{col: 1, row: 0, cost: 1},
	{col: 0, row: 1, cost: 1},
	{col: -1, row: 0, cost: 1},
	{col: 1, row: -1, cost: math.Sqrt2, diagonal: true},
	{col: 1, row: 1, cost: math.Sqrt2, diagonal: true},
	{col: -1, row: 1, cost: math.Sqrt2, diagonal: true},
	{col: -1, row: -1, cost: math.Sqrt2, diagonal: true},
}

type navPoint struct {
	col int
	row int
}

// navGrid is a walkability raster over the arena used for A* queries.
type navGrid struct {
	cols, rows int
	cellSize   float64
	walkable   []bool
	obstacles  []Obstacle
	width      float64
	height     float64
}

func newNavGrid(obstacles []Obstacle, width, height float64) *navGrid {
	cols := int(math.Ceil(width / NavCellSize))
	rows := int(math.Ceil(height / NavCellSize))
	if cols <= 0 {
		cols = 1
	}
	if rows <= 0 {
		rows = 1
	}
	grid := &navGrid{
		cols:      cols,
		rows:      rows,
		cellSize:  NavCellSize,
		walkable:  make([]bool, cols*rows),
		obstacles: obstacles,
		width:     width,
		height:    height,
	}

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			center := grid.worldPos(col, row)
			if center.X < ActorRadius || center.X > width-ActorRadius || center.Y < ActorRadius || center.Y > height-ActorRadius {
				continue
			}
			grid.walkable[grid.index(col, row)] = !blockedByObstacle(center, obstacles)
		}
	}
	return grid
}

func (g *navGrid) inBounds(col, row int) bool {
	return g != nil && col >= 0 && row >= 0 && col < g.cols && row < g.rows
}

func (g *navGrid) index(col, row int) int {
	return row*g.cols + col
}

func (g *navGrid) isWalkable(col, row int) bool {
	return g.inBounds(col, row) && g.walkable[g.index(col, row)]
}

func (g *navGrid) worldPos(col, row int) Vec2 {
	return Vec2{
		X: (float64(col) + 0.5) * g.cellSize,
		Y: (float64(row) + 0.5) * g.cellSize,
	}
}

// canCutCorner refuses diagonal moves that would clip an obstacle corner.
func (g *navGrid) canCutCorner(from navPoint, delta navNeighbor) bool {
	if !delta.diagonal {
		return true
	}
	return g.isWalkable(from.col+delta.col, from.row) && g.isWalkable(from.col, from.row+delta.row)
}

func (g *navGrid) locate(pos Vec2) (navPoint, bool) {
	if g == nil || g.cols == 0 || g.rows == 0 {
		return navPoint{}, false
	}
	x := Clamp(pos.X, 0, math.Max(g.width-1, 0))
	y := Clamp(pos.Y, 0, math.Max(g.height-1, 0))
	point := navPoint{col: int(x / g.cellSize), row: int(y / g.cellSize)}
	return point, g.inBounds(point.col, point.row)
}

// closestWalkable breadth-first searches for the nearest open cell, used when a
// body sits partially inside an obstacle's clearance.
func (g *navGrid) closestWalkable(start navPoint) (navPoint, bool) {
	visited := map[int]struct{}{g.index(start.col, start.row): {}}
	queue := []navPoint{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if g.isWalkable(current.col, current.row) {
			return current, true
		}
		for _, delta := range navNeighborOffsets {
			next := navPoint{col: current.col + delta.col, row: current.row + delta.row}
			if !g.inBounds(next.col, next.row) {
				continue
			}
			idx := g.index(next.col, next.row)
			if _, seen := visited[idx]; seen {
				continue
			}
			visited[idx] = struct{}{}
			queue = append(queue, next)
		}
	}
	return navPoint{}, false
}

func (g *navGrid) heuristic(a, b navPoint) float64 {
	dx := math.Abs(float64(a.col - b.col))
	dy := math.Abs(float64(a.row - b.row))
	if dx > dy {
		return dx + (math.Sqrt2-1)*dy
	}
	return dy + (math.Sqrt2-1)*dx
}

type pathNode struct {
	point  navPoint
	g      float64
	f      float64
	index  int
	parent *pathNode
}

type pathQueue []*pathNode

func (pq pathQueue) Len() int { return len(pq) }

func (pq pathQueue) Less(i, j int) bool { return pq[i].f < pq[j].f }

func (pq pathQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *pathQueue) Push(x any) {
	item := x.(*pathNode)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *pathQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

func (g *navGrid) astar(start, goal navPoint) ([]navPoint, bool) {
	open := &pathQueue{}
	heap.Init(open)
	heap.Push(open, &pathNode{point: start, f: g.heuristic(start, goal)})
	gScore := map[int]float64{g.index(start.col, start.row): 0}
	closed := make(map[int]struct{})

	for open.Len() > 0 {
		current := heap.Pop(open).(*pathNode)
		currIdx := g.index(current.point.col, current.point.row)
		if _, seen := closed[currIdx]; seen {
			continue
		}
		closed[currIdx] = struct{}{}
		if current.point == goal {
			return reconstructPath(current), true
		}

		for _, delta := range navNeighborOffsets {
			if !g.canCutCorner(current.point, delta) {
				continue
			}
			next := navPoint{col: current.point.col + delta.col, row: current.point.row + delta.row}
			if !g.isWalkable(next.col, next.row) {
				continue
			}
			idx := g.index(next.col, next.row)
			if _, seen := closed[idx]; seen {
				continue
			}
			tentative := current.g + delta.cost
			if prev, ok := gScore[idx]; ok && tentative >= prev {
				continue
			}
			gScore[idx] = tentative
			heap.Push(open, &pathNode{
				point:  next,
				g:      tentative,
				f:      tentative + g.heuristic(next, goal),
				parent: current,
			})
		}
	}
	return nil, false
}

func reconstructPath(end *pathNode) []navPoint {
	path := make([]navPoint, 0)
	for node := end; node != nil; node = node.parent {
		path = append(path, node.point)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// findPath returns the route from start to target with start as the first
// point and target as the last. Unreachable targets yield nil.
func (g *navGrid) findPath(start, target Vec2) []Vec2 {
	from, ok := g.locate(start)
	if !ok {
		return nil
	}
	goal, ok := g.locate(target)
	if !ok || !g.isWalkable(goal.col, goal.row) {
		return nil
	}
	if !g.isWalkable(from.col, from.row) {
		if from, ok = g.closestWalkable(from); !ok {
			return nil
		}
	}
	nodes, ok := g.astar(from, goal)
	if !ok {
		return nil
	}

	points := make([]Vec2, 0, len(nodes)+1)
	points = append(points, start)
	for i := 1; i < len(nodes)-1; i++ {
		points = append(points, g.worldPos(nodes[i].col, nodes[i].row))
	}
	points = append(points, target)
	return g.smooth(points)
}

// smooth string-pulls a cell path so only corners remain between the
// endpoints. An open field collapses to [start, target].
func (g *navGrid) smooth(points []Vec2) []Vec2 {
	if len(points) <= 2 {
		return points
	}
	out := []Vec2{points[0]}
	anchor := 0
	for anchor < len(points)-1 {
		next := anchor + 1
		for j := len(points) - 1; j > next; j-- {
			if g.lineOfSight(points[anchor], points[j]) {
				next = j
				break
			}
		}
		out = append(out, points[next])
		anchor = next
	}
	return out
}

// lineOfSight reports whether a body can travel straight from a to b without
// touching an obstacle.
func (g *navGrid) lineOfSight(a, b Vec2) bool {
	dist := a.Dist(b)
	step := g.cellSize / 4
	samples := int(math.Ceil(dist / step))
	for i := 1; i <= samples; i++ {
		t := float64(i) / float64(samples)
		point := Vec2{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
		if blockedByObstacle(point, g.obstacles) {
			return false
		}
	}
	return true
}

// trimNear drops interior points closer than radius to the start so the
// first waypoint is never one the caller already counts as reached.
func trimNear(path []Vec2, radius float64) []Vec2 {
	if len(path) <= 2 || radius <= 0 {
		return path
	}
	keep := 1
	for keep < len(path)-1 && path[keep].Dist(path[0]) <= radius {
		keep++
	}
	if keep == 1 {
		return path
	}
	return append([]Vec2{path[0]}, path[keep:]...)
}

func pathTravelCost(path []Vec2) float64 {
	cost := 0.0
	for i := 1; i < len(path); i++ {
		cost += path[i].Dist(path[i-1])
	}
	return cost
}
