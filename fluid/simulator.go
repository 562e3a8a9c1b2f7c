package fluid

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"
)

var (
	// ErrInvalidExtent is returned for non-positive grid dimensions.
	ErrInvalidExtent = errors.New("fluid: grid extent must be positive")
	// ErrInvalidIterations is returned for a negative Jacobi iteration count.
	ErrInvalidIterations = errors.New("fluid: jacobi iterations must not be negative")
	// ErrBackendUnavailable is returned when a GPU backend cannot be used.
	ErrBackendUnavailable = errors.New("fluid: backend unavailable")
)

// Config fixes everything about a simulation at construction time.
type Config struct {
	Width, Height int
	// Iterations is the number of Jacobi relaxations per step.
	Iterations int
	// Storage selects how accumulators and intermediates store values.
	Storage StorageMode
	// Workers sizes the CPU pool; zero uses GOMAXPROCS.
	Workers  int
	Injector InjectorConfig
}

// DefaultConfig is a 640×640 grid, three Jacobi iterations per frame and
// signed float storage.
func DefaultConfig() Config {
	return Config{
		Width:      640,
		Height:     640,
		Iterations: 3,
		Storage:    StorageSigned,
		Injector:   DefaultInjectorConfig(),
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidExtent, c.Width, c.Height)
	}
	if c.Iterations < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidIterations, c.Iterations)
	}
	if _, err := ParseStorageMode(c.Storage.String()); err != nil {
		return err
	}
	return c.Injector.Validate()
}

// Accumulators is the state carried from one frame to the next.
type Accumulators struct {
	Velocity *Field
	Pressure *Field

	dirty bool // written on the host since the last device upload
}

func newAccumulators(width, height int, storage StorageMode) Accumulators {
	acc := Accumulators{
		Velocity: NewField(Velocity, width, height, storage),
		Pressure: NewField(Scalar, width, height, storage),
	}
	acc.reset()
	return acc
}

// reset restores the neutral state: zero velocity, zero pressure.
func (a *Accumulators) reset() {
	a.Velocity.Fill(Encode(0), Encode(0))
	a.Pressure.Fill(0)
	a.dirty = true
}

// FrameStats describes one completed step.
type FrameStats struct {
	Frame    uint64
	Duration time.Duration
	Backend  string
	// Divergence and Pressure are filled only while measuring is enabled.
	Divergence FieldStats
	Pressure   FieldStats
}

// deviceSolver runs a whole step on an accelerator, reading and writing the
// host accumulators.
type deviceSolver interface {
	step(acc *Accumulators, iterations int) error
	name() string
	close()
}

// Simulator owns the accumulators and every intermediate buffer. Steps and
// injections must come from one goroutine (the frame loop).
type Simulator struct {
	cfg      Config
	pool     *Pool
	acc      Accumulators
	injector *Injector
	solver   *PressureSolver

	advected      *Field
	divergence    *Field
	velocitySpare *Field
	pressureSpare *Field

	device  deviceSolver
	frame   uint64
	measure bool
	scratch []float64
}

// NewSimulator validates cfg, allocates all buffers once and starts the
// worker pool.
func NewSimulator(cfg Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	injector, err := NewInjector(cfg.Injector)
	if err != nil {
		return nil, err
	}
	w, h, mode := cfg.Width, cfg.Height, cfg.Storage
	pool := NewPool(cfg.Workers)
	s := &Simulator{
		cfg:           cfg,
		pool:          pool,
		acc:           newAccumulators(w, h, mode),
		injector:      injector,
		solver:        NewPressureSolver(pool, cfg.Iterations, w, h, mode),
		advected:      NewField(Velocity, w, h, mode),
		divergence:    NewField(Scalar, w, h, mode),
		velocitySpare: NewField(Velocity, w, h, mode),
		pressureSpare: NewField(Scalar, w, h, mode),
	}
	Logger().Info("fluid simulator ready",
		slog.Int("width", w), slog.Int("height", h),
		slog.Int("iterations", cfg.Iterations),
		slog.String("storage", mode.String()),
		slog.Int("workers", pool.Workers()))
	return s, nil
}

// Config returns the configuration the simulator was built with.
func (s *Simulator) Config() Config { return s.cfg }

// Accumulators exposes the persistent state. The fields are replaced on
// every Step; do not hold on to them across steps.
func (s *Simulator) Accumulators() *Accumulators { return &s.acc }

// Advected returns the velocity after the last advection stage. Only
// maintained by the CPU backend.
func (s *Simulator) Advected() *Field { return s.advected }

// Divergence returns the divergence computed in the last CPU step.
func (s *Simulator) Divergence() *Field { return s.divergence }

// Frame returns the number of completed steps.
func (s *Simulator) Frame() uint64 { return s.frame }

// SetMeasuring toggles per-frame field statistics in FrameStats.
func (s *Simulator) SetMeasuring(on bool) { s.measure = on }

// Backend names the engine executing steps.
func (s *Simulator) Backend() string {
	if s.device != nil {
		return s.device.name()
	}
	return fmt.Sprintf("cpu/%d", s.pool.Workers())
}

// UseOpenCL moves stepping onto an OpenCL device. The binary must be built
// with the opencl tag; otherwise ErrBackendUnavailable is returned and the
// CPU path stays active.
func (s *Simulator) UseOpenCL() error {
	dev, err := newOpenCLSolver(s.cfg.Width, s.cfg.Height, s.cfg.Storage)
	if err != nil {
		return err
	}
	if s.device != nil {
		s.device.close()
	}
	s.device = dev
	s.acc.dirty = true
	Logger().Info("fluid backend selected", slog.String("backend", dev.name()))
	return nil
}

// Inject composites the impulses for one pointer sample. Call it only while
// the pointer is in contact, before the Step that should see it.
func (s *Simulator) Inject(ev PointerEvent) {
	s.injector.Inject(&s.acc, ev)
}

// Reset returns both accumulators to the neutral state.
func (s *Simulator) Reset() {
	s.acc.reset()
}

// Step advances the simulation by one frame:
// advection, divergence, pressure solve, projection, then the new velocity
// and pressure replace the accumulators. On error the accumulators still
// hold the previous frame.
func (s *Simulator) Step() (FrameStats, error) {
	start := time.Now()
	if s.device != nil {
		if err := s.device.step(&s.acc, s.cfg.Iterations); err != nil {
			Logger().Warn("fluid frame dropped", slog.String("backend", s.device.name()), slog.Any("err", err))
			return FrameStats{}, fmt.Errorf("step %d on %s: %w", s.frame+1, s.device.name(), err)
		}
	} else {
		s.stepCPU()
	}
	s.frame++

	stats := FrameStats{
		Frame:    s.frame,
		Duration: time.Since(start),
		Backend:  s.Backend(),
	}
	if s.measure {
		full := image.Rect(0, 0, s.cfg.Width, s.cfg.Height)
		if s.device == nil {
			stats.Divergence = measureInto(&s.scratch, s.divergence, 0, full)
		}
		stats.Pressure = measureInto(&s.scratch, s.acc.Pressure, 0, full)
	}
	if l := Logger(); l.Enabled(context.Background(), slog.LevelDebug) {
		l.Debug("fluid step",
			slog.Uint64("frame", stats.Frame),
			slog.Duration("took", stats.Duration),
			slog.Float64("divergenceL2", stats.Divergence.L2))
	}
	return stats, nil
}

func (s *Simulator) stepCPU() {
	s.pool.Apply(Advection{}, s.advected, s.acc.Velocity)
	s.pool.Apply(Divergence{}, s.divergence, s.advected)
	s.solver.Solve(s.pressureSpare, s.divergence, s.acc.Pressure)
	s.pool.Apply(Projection{}, s.velocitySpare, s.advected, s.pressureSpare)

	s.acc.Velocity, s.velocitySpare = s.velocitySpare, s.acc.Velocity
	s.acc.Pressure, s.pressureSpare = s.pressureSpare, s.acc.Pressure
}

// Renderable writes the presentable image: for every cell the maximum over
// the pressure channels, clamped to [0, 1]. dst must hold Width*Height
// values, row 0 at the bottom.
func (s *Simulator) Renderable(dst []float32) {
	p := s.acc.Pressure
	ch := p.Channels()
	n := p.width * p.height
	if len(dst) < n {
		panic(fmt.Sprintf("fluid: Renderable needs %d values, got %d", n, len(dst)))
	}
	for i := 0; i < n; i++ {
		m := p.data[i*ch]
		for c := 1; c < ch; c++ {
			if v := p.data[i*ch+c]; v > m {
				m = v
			}
		}
		dst[i] = clamp01(m)
	}
}

// Close releases the worker pool and any device resources.
func (s *Simulator) Close() {
	if s.device != nil {
		s.device.close()
		s.device = nil
	}
	s.pool.Close()
}
