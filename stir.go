package main

import (
	"math"
	"math/rand"
	"time"

	"fluidsim/fluid"
)

// stirrer drives a virtual pointer across the grid in random straight runs,
// bouncing off a margin near the edges. It feeds the simulator while a
// profile is being recorded.
type stirrer struct {
	rng           *rand.Rand
	width, height float64
	x, y          float64
	dirX, dirY    float64
	frames        int
	deadline      time.Time
}

func newStirrer(width, height int, seed int64, duration time.Duration) *stirrer {
	return &stirrer{
		rng:      rand.New(rand.NewSource(seed)),
		width:    float64(width),
		height:   float64(height),
		x:        float64(width) / 2,
		y:        float64(height) / 2,
		deadline: time.Now().Add(duration),
	}
}

// active reports whether the stirring window is still open.
func (s *stirrer) active(now time.Time) bool {
	return now.Before(s.deadline)
}

// next advances the pointer one tick and returns the drag sample.
func (s *stirrer) next() fluid.PointerEvent {
	for attempts := 0; attempts < 5; attempts++ {
		if s.frames <= 0 {
			s.turn()
		}
		nx := s.x + s.dirX*stirSpeed
		ny := s.y + s.dirY*stirSpeed
		if nx > stirMargin && nx < s.width-stirMargin && ny > stirMargin && ny < s.height-stirMargin {
			ev := fluid.PointerEvent{X: nx, Y: ny, PrevX: s.x, PrevY: s.y}
			s.x, s.y = nx, ny
			s.frames--
			return ev
		}
		s.frames = 0
	}
	return fluid.PointerEvent{X: s.x, Y: s.y, PrevX: s.x, PrevY: s.y}
}

func (s *stirrer) turn() {
	angle := s.rng.Float64() * 2 * math.Pi
	s.dirX = math.Cos(angle)
	s.dirY = math.Sin(angle)
	s.frames = stirMinFrames + s.rng.Intn(stirFrameSpread)
}
