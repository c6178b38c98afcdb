// camview - live camera display
// Reads frames from a camera, converts them to RGB, applies a transform and
// shows them in a browser viewer at a capped frame rate.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/camview/internal/config"
	"github.com/teslashibe/camview/internal/log"
	"github.com/teslashibe/camview/pkg/colorconv"
	"github.com/teslashibe/camview/pkg/display"
	"github.com/teslashibe/camview/pkg/encode"
	"github.com/teslashibe/camview/pkg/opencv"
	_ "github.com/teslashibe/camview/pkg/screen"
	"github.com/teslashibe/camview/pkg/stream"
	"github.com/teslashibe/camview/pkg/transform"
	_ "github.com/teslashibe/camview/pkg/v4l2"
	"github.com/teslashibe/camview/pkg/viewer"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		config.Usage(os.Stderr)
		os.Exit(0)
	}
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(2)
	}

	log.Init(cfg.LogLevel)
	logger := log.With("component", "camview", "backend", cfg.Backend)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("camview failed", "error", err)
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	opts, err := streamOptions(cfg, logger)
	if err != nil {
		return err
	}

	var srv *viewer.Server
	var surface display.Surface
	switch cfg.Surface {
	case config.SurfaceViewer:
		format, _ := encode.ParseFormat(cfg.Format)
		srv = viewer.NewServer(
			viewer.WithAddr(cfg.Addr),
			viewer.WithFormat(format),
			viewer.WithLogger(logger),
		)
		ln, err := net.Listen("tcp", cfg.Addr)
		if err != nil {
			return fmt.Errorf("viewer listen: %w", err)
		}
		go func() {
			if err := srv.Serve(ln); err != nil {
				logger.Error("viewer stopped", "error", err)
			}
		}()
		defer srv.Shutdown()
		surface = srv
	default:
		surface = display.NewRecorder(false)
	}
	opts = append(opts, stream.WithSurface(surface))

	logger.Info("starting stream",
		"device", cfg.Device,
		"backend", cfg.Backend,
		"fps", cfg.FPS,
		"transform", cfg.Transform,
		"surface", cfg.Surface,
	)

	last, err := stream.Run(ctx, opts...)
	if err != nil {
		return err
	}
	if last != nil {
		logger.Info("last frame", "width", last.Width, "height", last.Height)
	}

	if srv != nil && cfg.Linger && ctx.Err() == nil && len(srv.Slots()) > 0 {
		logger.Info("stream ended, viewer still serving; press Ctrl+C to exit", "url", "http://"+cfg.Addr)
		<-ctx.Done()
	}
	return nil
}

// streamOptions maps configuration onto loop options. The surface is added
// by the caller.
func streamOptions(cfg config.Config, logger *slog.Logger) ([]stream.Option, error) {
	format, err := encode.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	fn, err := transform.ByName(cfg.Transform)
	if err != nil {
		return nil, err
	}

	var enc encode.Encoder = encode.New(encode.WithQuality(cfg.Quality))
	if cfg.Encoder == config.ImplOpenCV {
		enc = opencv.NewEncoder(cfg.Quality)
	}
	var conv colorconv.Func = colorconv.BGRToRGB
	if cfg.Converter == config.ImplOpenCV {
		conv = opencv.BGRToRGB
	}

	return []stream.Option{
		stream.WithDevice(cfg.Device),
		stream.WithBackend(cfg.Backend),
		stream.WithSettings(cfg.Settings()),
		stream.WithFPS(cfg.FPS),
		stream.WithFormat(format),
		stream.WithEncoder(enc),
		stream.WithConverter(conv),
		stream.WithTransform(fn),
		stream.WithLogger(logger),
		stream.WithStatsHook(func(s stream.Stats) {
			logger.Info("stream summary",
				"reason", string(s.Reason),
				"display_id", s.DisplayID,
				"frames", s.Frames,
				"elapsed", s.Elapsed.Round(time.Millisecond).String(),
			)
		}),
	}, nil
}
