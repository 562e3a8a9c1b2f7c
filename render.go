package main

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// Draw presents the renderable pressure image through the active palette.
func (g *Game) Draw(screen *ebiten.Image) {
	g.sim.Renderable(g.values)
	g.pal.Paint(g.pixels, g.values, g.width, g.height)
	screen.WritePixels(g.pixels)

	if *debugFlag {
		s := g.lastStats
		msg := fmt.Sprintf("FPS: %.1f  TPS: %.1f\nBackend: %s  Jacobi: %d\nStep: %.2f ms  Frame: %d\n|div| L2: %.4f  p max: %.3f\nPalette: %s (P)  Reset (R)",
			ebiten.ActualFPS(), ebiten.ActualTPS(),
			g.sim.Backend(), g.sim.Config().Iterations,
			s.Duration.Seconds()*1000, s.Frame,
			s.Divergence.L2, s.Pressure.Max,
			g.pal.Name())
		if g.dropped > 0 {
			msg += fmt.Sprintf("\nDropped frames: %d", g.dropped)
		}
		ebitenutil.DebugPrint(screen, msg)
	}
}

// Layout reports the grid size as the logical screen so one pixel is one
// cell.
func (g *Game) Layout(_, _ int) (int, int) { return g.width, g.height }
