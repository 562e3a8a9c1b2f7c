package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"fluidsim/config"
	"fluidsim/fluid"
	"fluidsim/palette"
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		slog.Error("fluidsim failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func run() error {
	level := slog.LevelInfo
	if *debugFlag {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	fluid.SetLogger(logger.With(slog.String("component", "fluid")))

	settings, found, err := config.Load(*settingsPathFlag)
	if err != nil {
		return err
	}
	if !found {
		logger.Info("no settings file, using defaults", slog.String("path", *settingsPathFlag))
	}
	applyFlagOverrides(flag.CommandLine, &settings)
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	cfg, err := settings.FluidConfig()
	if err != nil {
		return err
	}

	runtime.GOMAXPROCS(runtime.NumCPU())
	sim, err := newSimulator(cfg, *debugFlag)
	if err != nil {
		return err
	}
	defer sim.Close()
	if settings.GPU.PreferOpenCL {
		if err := sim.UseOpenCL(); err != nil {
			logger.Warn("OpenCL unavailable, staying on CPU", slog.Any("err", err))
		}
	}

	pal, err := palette.New(settings.Display.Palette)
	if err != nil {
		return err
	}

	var stir *stirrer
	stopPGO := func() {}
	if *recordDefaultPGO {
		capture, err := startProfileCapture(pgoOutputPath, pgoRecordDuration, logger)
		if err != nil {
			return err
		}
		stopPGO = capture.stop
		defer capture.stop()
		stir = newStirrer(cfg.Width, cfg.Height, time.Now().UnixNano(), pgoRecordDuration)
	}

	if *headlessFlag {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		err := runHeadless(ctx, sim, pal, settings, stir, logger)
		if errors.Is(err, errStirringDone) {
			stopPGO()
			return nil
		}
		return err
	}

	game := newGame(sim, pal, logger)
	if stir != nil {
		game.enableStirring(stir, stopPGO)
	}
	ebiten.SetTPS(settings.Display.TPS)
	ebiten.SetWindowSize(cfg.Width*settings.Display.Scale, cfg.Height*settings.Display.Scale)
	ebiten.SetWindowTitle(windowTitle)
	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

// newSimulator builds the simulator for run. Debug builds measure every step
// so the overlay and the periodic solver logs have numbers to show.
func newSimulator(cfg fluid.Config, debug bool) (*fluid.Simulator, error) {
	sim, err := fluid.NewSimulator(cfg)
	if err != nil {
		return nil, err
	}
	sim.SetMeasuring(debug)
	return sim, nil
}
