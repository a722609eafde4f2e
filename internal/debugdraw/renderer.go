// Package debugdraw renders bot debug shapes onto a terminal grid.
package debugdraw

import (
	"math"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"trackerbot/internal/state"
	"trackerbot/internal/tracker"
)

type shapeKind uint8

const (
	shapeSphere shapeKind = iota
	shapeArrow
	shapeText
	shapeMarker
)

type shape struct {
	kind    shapeKind
	from    state.Vec2
	to      state.Vec2
	radius  float64
	text    string
	glyph   rune
	color   tracker.DebugColor
	expires time.Duration
	// persistent shapes survive Render until their expiry.
	persistent bool
}

// Renderer projects arena coordinates onto a tcell screen. Shapes with a TTL
// stay until the clock passes their expiry; arrows and markers last one frame.
type Renderer struct {
	mu     sync.Mutex
	screen tcell.Screen
	width  float64
	height float64
	clock  func() time.Duration
	shapes []shape
}

var _ tracker.DebugDrawer = (*Renderer)(nil)

// NewRenderer draws a width x height arena onto screen. clock supplies the
// simulated time used for expiry.
func NewRenderer(screen tcell.Screen, width, height float64, clock func() time.Duration) *Renderer {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	if clock == nil {
		clock = func() time.Duration { return 0 }
	}
	return &Renderer{screen: screen, width: width, height: height, clock: clock}
}

func (r *Renderer) DrawSphere(center state.Vec2, radius float64, color tracker.DebugColor, ttl time.Duration) {
	r.add(shape{kind: shapeSphere, from: center, radius: radius, color: color}, ttl)
}

func (r *Renderer) DrawArrow(from, to state.Vec2, color tracker.DebugColor) {
	r.add(shape{kind: shapeArrow, from: from, to: to, color: color}, 0)
}

func (r *Renderer) DrawText(at state.Vec2, text string, color tracker.DebugColor, ttl time.Duration) {
	r.add(shape{kind: shapeText, from: at, text: text, color: color}, ttl)
}

// Plot places a one-frame glyph, used for actors.
func (r *Renderer) Plot(at state.Vec2, glyph rune, color tracker.DebugColor) {
	r.add(shape{kind: shapeMarker, from: at, glyph: glyph, color: color}, 0)
}

func (r *Renderer) add(s shape, ttl time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ttl > 0 {
		s.persistent = true
		s.expires = r.clock() + ttl
	}
	r.shapes = append(r.shapes, s)
}

// Pending reports how many shapes the next Render will draw.
func (r *Renderer) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.shapes)
}

// Render draws every live shape, drops one-frame and expired shapes, and
// shows the screen.
func (r *Renderer) Render() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.screen == nil {
		r.shapes = r.shapes[:0]
		return
	}
	now := r.clock()
	r.screen.Clear()
	kept := r.shapes[:0]
	for _, s := range r.shapes {
		if s.persistent && now >= s.expires {
			continue
		}
		r.draw(s)
		if s.persistent {
			kept = append(kept, s)
		}
	}
	r.shapes = kept
	r.screen.Show()
}

func (r *Renderer) draw(s shape) {
	style := tcell.StyleDefault.Foreground(colorOf(s.color))
	switch s.kind {
	case shapeSphere:
		r.drawCircle(s.from, s.radius, style)
	case shapeArrow:
		r.drawLine(s.from, s.to, '.', style)
		x, y := r.cell(s.to)
		r.screen.SetContent(x, y, arrowHead(s.to.Sub(s.from)), nil, style)
	case shapeText:
		x, y := r.cell(s.from)
		for i, ch := range []rune(s.text) {
			r.screen.SetContent(x+i, y, ch, nil, style)
		}
	case shapeMarker:
		x, y := r.cell(s.from)
		r.screen.SetContent(x, y, s.glyph, nil, style)
	}
}

func (r *Renderer) drawCircle(center state.Vec2, radius float64, style tcell.Style) {
	const steps = 48
	for i := 0; i < steps; i++ {
		angle := 2 * math.Pi * float64(i) / steps
		p := state.Vec2{X: center.X + radius*math.Cos(angle), Y: center.Y + radius*math.Sin(angle)}
		x, y := r.cell(p)
		r.screen.SetContent(x, y, 'o', nil, style)
	}
}

func (r *Renderer) drawLine(from, to state.Vec2, glyph rune, style tcell.Style) {
	x0, y0 := r.cell(from)
	x1, y1 := r.cell(to)
	steps := max(abs(x1-x0), abs(y1-y0))
	for i := 0; i <= steps; i++ {
		t := 0.0
		if steps > 0 {
			t = float64(i) / float64(steps)
		}
		x := x0 + int(math.Round(t*float64(x1-x0)))
		y := y0 + int(math.Round(t*float64(y1-y0)))
		r.screen.SetContent(x, y, glyph, nil, style)
	}
}

func (r *Renderer) cell(p state.Vec2) (int, int) {
	cols, rows := r.screen.Size()
	if cols <= 0 || rows <= 0 {
		return 0, 0
	}
	x := int(p.X / r.width * float64(cols))
	y := int(p.Y / r.height * float64(rows))
	return clampInt(x, 0, cols-1), clampInt(y, 0, rows-1)
}

func arrowHead(dir state.Vec2) rune {
	if math.Abs(dir.X) >= math.Abs(dir.Y) {
		if dir.X < 0 {
			return '<'
		}
		return '>'
	}
	if dir.Y < 0 {
		return '^'
	}
	return 'v'
}

func colorOf(c tracker.DebugColor) tcell.Color {
	switch c {
	case tracker.DebugYellow:
		return tcell.ColorYellow
	case tracker.DebugGreen:
		return tcell.ColorGreen
	case tracker.DebugRed:
		return tcell.ColorRed
	default:
		return tcell.ColorWhite
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
