package main

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"fluidsim/fluid"
)

// screenToGrid maps a logical screen position (origin top-left) to grid
// coordinates (row 0 at the bottom).
func screenToGrid(x, y, height int) (float64, float64) {
	return float64(x), float64(height - y)
}

// pointerInput remembers the previous sample of every active contact so
// each Update can report a displacement.
type pointerInput struct {
	height int

	mouseDown        bool
	mouseX, mouseY   float64
	touches          map[ebiten.TouchID][2]float64
	touchIDs         []ebiten.TouchID
	justPressedTouch []ebiten.TouchID
}

func newPointerInput(height int) *pointerInput {
	return &pointerInput{height: height, touches: make(map[ebiten.TouchID][2]float64)}
}

// events appends one PointerEvent per contact that moved since the last
// tick. A press held still produces nothing.
func (p *pointerInput) events(dst []fluid.PointerEvent) []fluid.PointerEvent {
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		cx, cy := ebiten.CursorPosition()
		x, y := screenToGrid(cx, cy, p.height)
		if !p.mouseDown || inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
			p.mouseX, p.mouseY = x, y
		}
		if ev, ok := dragEvent(x, y, p.mouseX, p.mouseY); ok {
			dst = append(dst, ev)
		}
		p.mouseX, p.mouseY = x, y
		p.mouseDown = true
	} else {
		p.mouseDown = false
	}

	p.justPressedTouch = inpututil.AppendJustPressedTouchIDs(p.justPressedTouch[:0])
	for _, id := range p.justPressedTouch {
		tx, ty := ebiten.TouchPosition(id)
		x, y := screenToGrid(tx, ty, p.height)
		p.touches[id] = [2]float64{x, y}
	}
	p.touchIDs = ebiten.AppendTouchIDs(p.touchIDs[:0])
	live := make(map[ebiten.TouchID]bool, len(p.touchIDs))
	for _, id := range p.touchIDs {
		live[id] = true
		tx, ty := ebiten.TouchPosition(id)
		x, y := screenToGrid(tx, ty, p.height)
		prev, ok := p.touches[id]
		if !ok {
			prev = [2]float64{x, y}
		}
		if ev, ok := dragEvent(x, y, prev[0], prev[1]); ok {
			dst = append(dst, ev)
		}
		p.touches[id] = [2]float64{x, y}
	}
	for id := range p.touches {
		if !live[id] {
			delete(p.touches, id)
		}
	}
	return dst
}

// dragEvent reports the drag from (prevX, prevY) to (x, y), or false when the
// contact has not moved.
func dragEvent(x, y, prevX, prevY float64) (fluid.PointerEvent, bool) {
	if x == prevX && y == prevY {
		return fluid.PointerEvent{}, false
	}
	return fluid.PointerEvent{X: x, Y: y, PrevX: prevX, PrevY: prevY}, true
}
