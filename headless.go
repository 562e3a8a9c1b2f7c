package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"fluidsim/config"
	"fluidsim/fluid"
	"fluidsim/palette"
	"fluidsim/stream"
)

// runHeadless steps the simulation on a ticker, serves frames to websocket
// clients and accepts their pointer drags until ctx is cancelled.
func runHeadless(ctx context.Context, sim *fluid.Simulator, pal *palette.Palette, settings config.Settings, stir *stirrer, logger *slog.Logger) error {
	cfg := sim.Config()
	srv := stream.NewServer(cfg.Width, cfg.Height, pal.Name(), logger)
	mux := http.NewServeMux()
	mux.Handle("/ws", srv)
	httpServer := &http.Server{Addr: settings.Server.Listen, Handler: mux}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("streaming frames", slog.String("addr", settings.Server.Listen), slog.String("path", "/ws"))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		srv.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return simulate(ctx, sim, pal, srv, settings, stir, logger)
	})
	return g.Wait()
}

// errStirringDone ends a headless profile capture.
var errStirringDone = errors.New("stirring finished")

func simulate(ctx context.Context, sim *fluid.Simulator, pal *palette.Palette, srv *stream.Server, settings config.Settings, stir *stirrer, logger *slog.Logger) error {
	cfg := sim.Config()
	values := make([]float32, cfg.Width*cfg.Height)
	frame := make([]byte, cfg.Width*cfg.Height*4)

	tick := time.NewTicker(time.Second / time.Duration(settings.Display.TPS))
	defer tick.Stop()
	broadcast := time.NewTicker(settings.FrameInterval())
	defer broadcast.Stop()
	statsLog := time.NewTicker(statsLogInterval)
	defer statsLog.Stop()

	var last fluid.FrameStats
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			if stir != nil {
				if !stir.active(time.Now()) {
					return errStirringDone
				}
				sim.Inject(stir.next())
			}
		drain:
			for {
				select {
				case ev := <-srv.Events():
					sim.Inject(ev)
				default:
					break drain
				}
			}
			stats, err := sim.Step()
			if err != nil {
				logger.Warn("frame dropped", slog.Any("err", err))
				continue
			}
			last = stats
		case <-broadcast.C:
			if srv.Clients() == 0 {
				continue
			}
			sim.Renderable(values)
			pal.Paint(frame, values, cfg.Width, cfg.Height)
			srv.Broadcast(frame)
		case <-statsLog.C:
			logger.Debug("solver",
				slog.Uint64("frame", last.Frame),
				slog.Duration("step", last.Duration),
				slog.Float64("divergenceL2", last.Divergence.L2),
				slog.Int("clients", srv.Clients()))
		}
	}
}
