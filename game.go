package main

import (
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"fluidsim/fluid"
	"fluidsim/palette"
)

// Game is the windowed front end: one ebiten tick injects pointer impulses
// and advances the simulation by one step.
type Game struct {
	sim    *fluid.Simulator
	logger *slog.Logger

	width, height int
	pal           *palette.Palette
	values        []float32
	pixels        []byte

	input   *pointerInput
	pending []fluid.PointerEvent

	stir    *stirrer
	stopPGO func()

	lastStats    fluid.FrameStats
	lastStatsLog time.Time
	dropped      int
}

// newGame wires a simulator and palette into an ebiten game.
func newGame(sim *fluid.Simulator, pal *palette.Palette, logger *slog.Logger) *Game {
	cfg := sim.Config()
	return &Game{
		sim:    sim,
		logger: logger,
		width:  cfg.Width,
		height: cfg.Height,
		pal:    pal,
		values: make([]float32, cfg.Width*cfg.Height),
		pixels: make([]byte, cfg.Width*cfg.Height*4),
		input:  newPointerInput(cfg.Height),
	}
}

// enableStirring replaces pointer input with scripted stirring until the
// stirrer expires, then calls stop and ends the game.
func (g *Game) enableStirring(s *stirrer, stop func()) {
	g.stir = s
	g.stopPGO = stop
}

// Update injects this tick's impulses and steps the simulation.
func (g *Game) Update() error {
	if err := g.handleControls(); err != nil {
		return err
	}

	g.pending = g.pending[:0]
	if g.stir != nil {
		if !g.stir.active(time.Now()) {
			if g.stopPGO != nil {
				g.stopPGO()
			}
			return ebiten.Termination
		}
		g.pending = append(g.pending, g.stir.next())
	} else {
		g.pending = g.input.events(g.pending)
	}
	for _, ev := range g.pending {
		g.sim.Inject(ev)
	}

	stats, err := g.sim.Step()
	if err != nil {
		g.dropped++
		g.logger.Warn("frame dropped", slog.Any("err", err), slog.Int("dropped", g.dropped))
		return nil
	}
	g.lastStats = stats
	if now := time.Now(); now.Sub(g.lastStatsLog) >= statsLogInterval {
		g.lastStatsLog = now
		g.logger.Debug("solver",
			slog.Uint64("frame", stats.Frame),
			slog.Duration("step", stats.Duration),
			slog.Float64("divergenceL2", stats.Divergence.L2),
			slog.Float64("pressureMax", stats.Pressure.Max))
	}
	return nil
}

// handleControls processes keyboard shortcuts: R resets the fluid, P cycles
// palettes, Escape quits.
func (g *Game) handleControls() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.sim.Reset()
		g.logger.Info("fluid reset")
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		next := nextPalette(g.pal.Name())
		if pal, err := palette.New(next); err == nil {
			g.pal = pal
		}
	}
	return nil
}

// nextPalette returns the palette after name in sorted order, wrapping.
func nextPalette(name string) string {
	names := palette.Names()
	for i, n := range names {
		if n == name {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}
