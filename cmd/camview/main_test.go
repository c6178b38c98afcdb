package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/teslashibe/camview/internal/config"
	"github.com/teslashibe/camview/pkg/capture"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestStreamOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Encoder = config.ImplOpenCV
	cfg.Converter = config.ImplOpenCV
	cfg.Transform = "mirror,grayscale"

	opts, err := streamOptions(cfg, quiet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(opts) == 0 {
		t.Error("expected options")
	}

	cfg.Transform = "blur"
	if _, err := streamOptions(cfg, quiet); err == nil {
		t.Error("expected error for unknown transform")
	}
}

func TestRunHeadless(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = capture.BackendMock
	cfg.Surface = config.SurfaceNone
	cfg.FPS = 1000

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, cfg, quiet); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunViewerNoLinger(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = capture.BackendMock
	cfg.Addr = "127.0.0.1:0"
	cfg.Linger = false
	cfg.FPS = 1000

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, cfg, quiet); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunInterrupted(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = capture.BackendPattern
	cfg.Surface = config.SurfaceNone
	cfg.FPS = 50

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg, quiet) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("interruption should not be an error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}
