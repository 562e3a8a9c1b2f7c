package main

import "time"

// Front-end constants. Grid size, iteration count and impulse geometry live
// in the settings file (see the config package); these only shape the window
// and the scripted stirring used for profile capture.
const (
	windowTitle       = "Stable Fluids"
	pgoRecordDuration = 15 * time.Second
	pgoOutputPath     = "default.pgo"
	stirSpeed         = 4.0 // cells per tick
	stirMinFrames     = 20
	stirFrameSpread   = 50
	stirMargin        = 8
	statsLogInterval  = 5 * time.Second
)
