package fluid

import (
	"math"
	"testing"
)

func TestInjectorConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*InjectorConfig)
	}{
		{"zero pressure size", func(c *InjectorConfig) { c.PressureSize = 0 }},
		{"negative velocity size", func(c *InjectorConfig) { c.VelocitySize = -3 }},
		{"negative blur", func(c *InjectorConfig) { c.VelocityBlur = -1 }},
		{"NaN blur", func(c *InjectorConfig) { c.PressureBlur = math.NaN() }},
		{"zero delta limit", func(c *InjectorConfig) { c.DeltaLimit = 0 }},
		{"unknown shape", func(c *InjectorConfig) { c.Shape = Shape(9) }},
	}
	if err := DefaultInjectorConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultInjectorConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected error")
			}
			if _, err := NewInjector(cfg); err == nil {
				t.Error("NewInjector accepted invalid config")
			}
		})
	}
}

func TestVelocityColor(t *testing.T) {
	inj, err := NewInjector(DefaultInjectorConfig())
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		dx, dy float64
		r, g   float32
	}{
		{0, 0, 0.5, 0.5},
		{3, -2, 0.8, 0.3},
		{5, -5, 1, 0},
		{40, -40, 1, 0}, // clamped
		{-2.5, 1, 0.25, 0.6},
	}
	for _, tt := range tests {
		ev := PointerEvent{X: 10 + tt.dx, Y: 20 + tt.dy, PrevX: 10, PrevY: 20}
		r, g := inj.VelocityColor(ev)
		if !near(r, tt.r, 1e-6) || !near(g, tt.g, 1e-6) {
			t.Errorf("delta (%v,%v): colour (%v,%v), want (%v,%v)", tt.dx, tt.dy, r, g, tt.r, tt.g)
		}
	}
}

func TestInjectWritesBothAccumulators(t *testing.T) {
	inj, err := NewInjector(DefaultInjectorConfig())
	if err != nil {
		t.Fatal(err)
	}
	acc := newAccumulators(200, 200, StorageSigned)
	acc.dirty = false

	inj.Inject(&acc, PointerEvent{X: 100, Y: 100, PrevX: 97, PrevY: 102})
	if !acc.dirty {
		t.Error("injection did not mark accumulators dirty")
	}
	if got := acc.Velocity.At(100, 100, 0); !near(got, 0.8, 1e-3) {
		t.Errorf("velocity r at centre = %v, want about 0.8", got)
	}
	if got := acc.Velocity.At(100, 100, 1); !near(got, 0.3, 1e-3) {
		t.Errorf("velocity g at centre = %v, want about 0.3", got)
	}
	if got := acc.Pressure.At(100, 100, 0); got < 0.85 || got > 1 {
		t.Errorf("pressure at centre = %v", got)
	}
	// outside both footprints the accumulators keep their neutral content
	if acc.Velocity.At(5, 5, 0) != 0.5 || acc.Pressure.At(5, 5, 0) != 0 {
		t.Errorf("impulse reached (5,5): velocity %v pressure %v", acc.Velocity.At(5, 5, 0), acc.Pressure.At(5, 5, 0))
	}
	// the velocity footprint is smaller than the pressure footprint
	if acc.Velocity.At(100, 150, 0) != 0.5 || acc.Pressure.At(100, 150, 0) <= 0 {
		t.Errorf("footprint sizes wrong at (100,150): velocity %v pressure %v",
			acc.Velocity.At(100, 150, 0), acc.Pressure.At(100, 150, 0))
	}
}

func TestInjectRepeatedOverwritesNotAccumulates(t *testing.T) {
	cfg := DefaultInjectorConfig()
	cfg.PressureBlur = 0
	cfg.VelocityBlur = 0
	inj, err := NewInjector(cfg)
	if err != nil {
		t.Fatal(err)
	}
	acc := newAccumulators(100, 100, StorageSigned)
	ev := PointerEvent{X: 50, Y: 50, PrevX: 50, PrevY: 50}
	inj.Inject(&acc, ev)
	inj.Inject(&acc, ev)
	if got := acc.Pressure.At(50, 50, 0); got != 1 {
		t.Errorf("pressure = %v, source-over of 1 on 1 must stay 1", got)
	}
}
