package fluid

import (
	"errors"
	"fmt"
	"math"
)

// PointerEvent is one pointer sample in grid coordinates (row 0 at the
// bottom) together with the previous sample of the same contact.
type PointerEvent struct {
	X, Y         float64
	PrevX, PrevY float64
}

// Delta returns the pointer displacement since the previous sample.
func (e PointerEvent) Delta() (dx, dy float64) {
	return e.X - e.PrevX, e.Y - e.PrevY
}

// InjectorConfig describes the two impulses written per pointer event.
type InjectorConfig struct {
	// PressureSize is the edge of the pressure footprint in cells.
	PressureSize int
	// PressureBlur is the Gaussian radius softening the pressure footprint.
	PressureBlur float64
	// PressureValue is the raw pressure written at full coverage.
	PressureValue float32
	// VelocitySize is the edge of the velocity footprint in cells.
	VelocitySize int
	// VelocityBlur is the Gaussian radius softening the velocity footprint.
	VelocityBlur float64
	// DeltaLimit clamps the pointer displacement per axis; a displacement of
	// DeltaLimit encodes to 1, -DeltaLimit to 0.
	DeltaLimit float64
	// Shape is the footprint outline.
	Shape Shape
}

// DefaultInjectorConfig returns the impulse geometry of the reference
// renderer: a 60 cell pressure square blurred by 15 and a 40 cell velocity
// square blurred by 5, with displacement clamped to ±5 cells.
func DefaultInjectorConfig() InjectorConfig {
	return InjectorConfig{
		PressureSize:  60,
		PressureBlur:  15,
		PressureValue: 1,
		VelocitySize:  40,
		VelocityBlur:  5,
		DeltaLimit:    5,
		Shape:         ShapeSquare,
	}
}

// Validate reports the first invalid setting.
func (c InjectorConfig) Validate() error {
	switch {
	case c.PressureSize < 1 || c.VelocitySize < 1:
		return fmt.Errorf("impulse footprint sizes must be positive, got pressure %d velocity %d", c.PressureSize, c.VelocitySize)
	case c.PressureBlur < 0 || c.VelocityBlur < 0 || math.IsNaN(c.PressureBlur) || math.IsNaN(c.VelocityBlur):
		return errors.New("impulse blur radii must not be negative")
	case !(c.DeltaLimit > 0):
		return fmt.Errorf("impulse delta limit must be positive, got %v", c.DeltaLimit)
	case c.Shape != ShapeSquare && c.Shape != ShapeDisc:
		return fmt.Errorf("unknown impulse shape %v", c.Shape)
	}
	return nil
}

// Injector turns pointer motion into impulses on the accumulators.
type Injector struct {
	cfg      InjectorConfig
	pressure *Stamp
	velocity *Stamp
}

// NewInjector validates cfg and pre-builds both footprints.
func NewInjector(cfg InjectorConfig) (*Injector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Injector{
		cfg:      cfg,
		pressure: NewStamp(cfg.PressureSize, cfg.PressureBlur, cfg.Shape),
		velocity: NewStamp(cfg.VelocitySize, cfg.VelocityBlur, cfg.Shape),
	}, nil
}

// Config returns the configuration the injector was built with.
func (inj *Injector) Config() InjectorConfig { return inj.cfg }

// VelocityColor returns the stored (vx, vy) written by ev's velocity impulse.
func (inj *Injector) VelocityColor(ev PointerEvent) (float32, float32) {
	dx, dy := ev.Delta()
	limit := inj.cfg.DeltaLimit
	r := clampFloat(dx, -limit, limit)/(2*limit) + 0.5
	g := clampFloat(dy, -limit, limit)/(2*limit) + 0.5
	return float32(r), float32(g)
}

// Inject composites the velocity and pressure impulses for ev over acc,
// centred on the current pointer position.
func (inj *Injector) Inject(acc *Accumulators, ev PointerEvent) {
	r, g := inj.VelocityColor(ev)
	acc.Velocity.CompositeOver(inj.velocity, ev.X, ev.Y, r, g)
	acc.Pressure.CompositeOver(inj.pressure, ev.X, ev.Y, inj.cfg.PressureValue)
	acc.dirty = true
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	if math.IsNaN(v) {
		return 0
	}
	return v
}
