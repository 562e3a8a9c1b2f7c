package main

import (
	"flag"

	"fluidsim/config"
)

// Command-line flags. Simulation flags override the settings file only when
// given explicitly.
var (
	settingsPathFlag = flag.String("settings", config.DefaultPath, "path to the JSON settings file")

	// debugFlag enables debug logging and the on-screen statistics overlay.
	debugFlag = flag.Bool("debug", false, "show FPS and solver statistics, log at debug level")

	headlessFlag = flag.Bool("headless", false, "run without a window and stream frames over websockets")
	listenFlag   = flag.String("listen", "", "address for the headless websocket server (overrides settings)")

	paletteFlag    = flag.String("palette", "", "colour map: gray, inferno, magma, plasma, turbo or viridis")
	storageFlag    = flag.String("storage", "", "field storage: signed, clamped, unorm8 or half")
	iterationsFlag = flag.Int("iterations", 0, "Jacobi iterations per frame")
	workersFlag    = flag.Int("workers", 0, "CPU worker goroutines (0 = GOMAXPROCS)")

	// openCLFlag moves the solver onto an OpenCL device when the binary is
	// built with -tags opencl.
	openCLFlag = flag.Bool("opencl", false, "run the solver on an OpenCL device")

	// recordDefaultPGO stirs the fluid automatically while capturing default.pgo.
	recordDefaultPGO = flag.Bool("record-default-pgo", false, "stir automatically for 15s while capturing default.pgo")
)

// applyFlagOverrides copies explicitly set flags over the loaded settings.
func applyFlagOverrides(fs *flag.FlagSet, s *config.Settings) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			s.Server.Listen = *listenFlag
		case "palette":
			s.Display.Palette = *paletteFlag
		case "storage":
			s.Simulation.Storage = *storageFlag
		case "iterations":
			s.Simulation.Iterations = *iterationsFlag
		case "workers":
			s.Simulation.Workers = *workersFlag
		case "opencl":
			s.GPU.PreferOpenCL = *openCLFlag
		}
	})
}
