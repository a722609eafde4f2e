package world

import "math"

// SpatialCellKey identifies a grid cell.
type SpatialCellKey struct {
	X int
	Y int
}

// SpatialIndex buckets actor positions into a uniform grid so radius queries
// only look at nearby cells.
type SpatialIndex struct {
	cellSize    float64
	invCellSize float64
	cells       map[SpatialCellKey][]string
	entries     map[string]SpatialCellKey
}

func NewSpatialIndex(cellSize float64) *SpatialIndex {
	if cellSize <= 0 {
		cellSize = DefaultSpatialCell
	}
	return &SpatialIndex{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cells:       make(map[SpatialCellKey][]string),
		entries:     make(map[string]SpatialCellKey),
	}
}

func (idx *SpatialIndex) cellFor(pos Vec2) SpatialCellKey {
	return SpatialCellKey{
		X: int(math.Floor(pos.X * idx.invCellSize)),
		Y: int(math.Floor(pos.Y * idx.invCellSize)),
	}
}

// Upsert places or moves an actor.
func (idx *SpatialIndex) Upsert(id string, pos Vec2) {
	if idx == nil || id == "" {
		return
	}
	cell := idx.cellFor(pos)
	if prev, ok := idx.entries[id]; ok {
		if prev == cell {
			return
		}
		idx.removeFromCell(id, prev)
	}
	idx.entries[id] = cell
	idx.cells[cell] = append(idx.cells[cell], id)
}

func (idx *SpatialIndex) Remove(id string) {
	if idx == nil || id == "" {
		return
	}
	cell, ok := idx.entries[id]
	if !ok {
		return
	}
	idx.removeFromCell(id, cell)
	delete(idx.entries, id)
}

func (idx *SpatialIndex) removeFromCell(id string, cell SpatialCellKey) {
	bucket := idx.cells[cell]
	for i := range bucket {
		if bucket[i] != id {
			continue
		}
		bucket[i] = bucket[len(bucket)-1]
		bucket = bucket[:len(bucket)-1]
		break
	}
	if len(bucket) == 0 {
		delete(idx.cells, cell)
	} else {
		idx.cells[cell] = bucket
	}
}

// Candidates returns every id whose cell intersects the square bounding the
// circle. Callers still need an exact distance check.
func (idx *SpatialIndex) Candidates(origin Vec2, radius float64) []string {
	if idx == nil || radius < 0 {
		return nil
	}
	minCell := idx.cellFor(Vec2{X: origin.X - radius, Y: origin.Y - radius})
	maxCell := idx.cellFor(Vec2{X: origin.X + radius, Y: origin.Y + radius})
	var out []string
	for y := minCell.Y; y <= maxCell.Y; y++ {
		for x := minCell.X; x <= maxCell.X; x++ {
			out = append(out, idx.cells[SpatialCellKey{X: x, Y: y}]...)
		}
	}
	return out
}

func (idx *SpatialIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}
