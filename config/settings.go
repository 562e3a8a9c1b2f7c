// Package config loads the simulator settings file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"fluidsim/fluid"
)

// DefaultPath is the settings file looked up next to the binary.
const DefaultPath = "settings.json"

// Settings is the whole settings file.
type Settings struct {
	Simulation SimulationSettings `json:"simulation"`
	Impulse    ImpulseSettings    `json:"impulse"`
	Display    DisplaySettings    `json:"display"`
	Server     ServerSettings     `json:"server"`
	GPU        GPUSettings        `json:"gpu"`
}

// SimulationSettings sizes the grid and the solver.
type SimulationSettings struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Iterations int    `json:"iterations"`
	Storage    string `json:"storage"`
	Workers    int    `json:"workers"`
}

// ImpulseSettings shapes the stamps injected by pointer drags.
type ImpulseSettings struct {
	PressureSize  int     `json:"pressureSize"`
	PressureBlur  float64 `json:"pressureBlur"`
	PressureValue float32 `json:"pressureValue"`
	VelocitySize  int     `json:"velocitySize"`
	VelocityBlur  float64 `json:"velocityBlur"`
	DeltaLimit    float64 `json:"deltaLimit"`
	Shape         string  `json:"shape"`
}

// DisplaySettings controls the window and its palette.
type DisplaySettings struct {
	Scale   int    `json:"scale"`
	TPS     int    `json:"tps"`
	Palette string `json:"palette"`
}

// ServerSettings configures the headless websocket stream.
type ServerSettings struct {
	Listen          string `json:"listen"`
	FrameIntervalMs int    `json:"frameIntervalMs"`
}

// GPUSettings selects the compute backend.
type GPUSettings struct {
	PreferOpenCL bool `json:"preferOpenCL"`
}

// Default returns the reference setup: a 640×640 grid relaxed three times per
// frame at 60 ticks per second.
func Default() Settings {
	inj := fluid.DefaultInjectorConfig()
	return Settings{
		Simulation: SimulationSettings{
			Width:      640,
			Height:     640,
			Iterations: 3,
			Storage:    fluid.StorageSigned.String(),
		},
		Impulse: ImpulseSettings{
			PressureSize:  inj.PressureSize,
			PressureBlur:  inj.PressureBlur,
			PressureValue: inj.PressureValue,
			VelocitySize:  inj.VelocitySize,
			VelocityBlur:  inj.VelocityBlur,
			DeltaLimit:    inj.DeltaLimit,
			Shape:         inj.Shape.String(),
		},
		Display: DisplaySettings{
			Scale:   1,
			TPS:     60,
			Palette: "gray",
		},
		Server: ServerSettings{
			Listen:          ":8080",
			FrameIntervalMs: 33,
		},
	}
}

// Load reads path over the defaults. A missing file is not an error: the
// defaults are returned and found is false.
func Load(path string) (s Settings, found bool, err error) {
	s = Default()
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, false, nil
		}
		return s, false, err
	}
	defer file.Close()

	s, err = Decode(file)
	if err != nil {
		return s, true, fmt.Errorf("parsing %s: %w", path, err)
	}
	return s, true, nil
}

// Decode reads JSON settings from r. Keys absent from the document keep their
// default values.
func Decode(r io.Reader) (Settings, error) {
	s := Default()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return Default(), err
	}
	return s, s.Validate()
}

// Validate reports the first setting that cannot be turned into a running
// simulator.
func (s Settings) Validate() error {
	if _, err := s.FluidConfig(); err != nil {
		return err
	}
	switch {
	case s.Display.Scale < 1:
		return fmt.Errorf("display scale must be at least 1, got %d", s.Display.Scale)
	case s.Display.TPS < 1:
		return fmt.Errorf("display tps must be positive, got %d", s.Display.TPS)
	case s.Server.FrameIntervalMs < 1:
		return fmt.Errorf("server frame interval must be positive, got %dms", s.Server.FrameIntervalMs)
	}
	return nil
}

// FrameInterval is the headless broadcast period.
func (s Settings) FrameInterval() time.Duration {
	return time.Duration(s.Server.FrameIntervalMs) * time.Millisecond
}

// FluidConfig converts the simulation and impulse sections.
func (s Settings) FluidConfig() (fluid.Config, error) {
	storage, err := fluid.ParseStorageMode(s.Simulation.Storage)
	if err != nil {
		return fluid.Config{}, err
	}
	shape, err := fluid.ParseShape(s.Impulse.Shape)
	if err != nil {
		return fluid.Config{}, err
	}
	cfg := fluid.Config{
		Width:      s.Simulation.Width,
		Height:     s.Simulation.Height,
		Iterations: s.Simulation.Iterations,
		Storage:    storage,
		Workers:    s.Simulation.Workers,
		Injector: fluid.InjectorConfig{
			PressureSize:  s.Impulse.PressureSize,
			PressureBlur:  s.Impulse.PressureBlur,
			PressureValue: s.Impulse.PressureValue,
			VelocitySize:  s.Impulse.VelocitySize,
			VelocityBlur:  s.Impulse.VelocityBlur,
			DeltaLimit:    s.Impulse.DeltaLimit,
			Shape:         shape,
		},
	}
	return cfg, cfg.Validate()
}
