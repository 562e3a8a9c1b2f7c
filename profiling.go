package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/pprof"
	"sync"
	"time"
)

// profileCapture is a CPU profile being written for profile-guided builds.
type profileCapture struct {
	path    string
	file    *os.File
	started time.Time
	logger  *slog.Logger
	once    sync.Once
}

// startProfileCapture starts profiling into path. The capture is expected to
// last about d; the stirrer driving the workload enforces it.
func startProfileCapture(path string, d time.Duration, logger *slog.Logger) (*profileCapture, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("starting profile: %w", err)
	}
	logger.Info("recording profile", slog.String("path", path), slog.Duration("for", d))
	return &profileCapture{path: path, file: f, started: time.Now(), logger: logger}, nil
}

// stop flushes the profile and closes the file. Later calls do nothing.
func (p *profileCapture) stop() {
	p.once.Do(func() {
		pprof.StopCPUProfile()
		var size int64
		if fi, err := p.file.Stat(); err == nil {
			size = fi.Size()
		}
		if err := p.file.Close(); err != nil {
			p.logger.Error("closing profile", slog.String("path", p.path), slog.Any("err", err))
			return
		}
		p.logger.Info("profile written",
			slog.String("path", p.path),
			slog.Duration("took", time.Since(p.started).Round(time.Millisecond)),
			slog.Int64("bytes", size))
	})
}
