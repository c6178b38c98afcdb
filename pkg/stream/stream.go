// Package stream runs the capture/display loop: read a frame from a camera,
// convert it to display order, transform, encode and show it in a live
// display slot, no faster than a configured frame rate.
//
// The loop is synchronous and single-goroutine. Cancelling the context is
// the operator interrupt; it is checked between frames, never mid-frame,
// and cuts any pending rate-limit sleep short.
package stream

import (
	"context"
	"log/slog"
	"time"

	"github.com/teslashibe/camview/pkg/capture"
	"github.com/teslashibe/camview/pkg/frame"
	"github.com/teslashibe/camview/pkg/transform"
)

// State is a loop lifecycle state.
type State int

const (
	Opening State = iota
	AwaitingFirstFrame
	Streaming
	Stopped
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Opening:
		return "opening"
	case AwaitingFirstFrame:
		return "awaiting_first_frame"
	case Streaming:
		return "streaming"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// StopReason records which path led to Stopped.
type StopReason string

const (
	ReasonDeviceUnavailable StopReason = "device_unavailable"
	ReasonNoFirstFrame      StopReason = "no_first_frame"
	ReasonEndOfStream       StopReason = "end_of_stream"
	ReasonInterrupted       StopReason = "interrupted"
	ReasonFailed            StopReason = "failed"
)

// Stats summarizes one loop invocation.
type Stats struct {
	Reason    StopReason
	DisplayID string
	Frames    int // frames processed and shown
	Updates   int // display updates after creation
	Slept     time.Duration
	Elapsed   time.Duration
}

// FPS returns the achieved frame rate.
func (s Stats) FPS() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Frames) / s.Elapsed.Seconds()
}

// Run executes the loop until the stream ends, ctx is cancelled or a
// processing step fails. It returns the last processed frame, or nil if no
// frame was shown.
//
// A device that cannot be opened, an empty stream and cancellation are
// normal termination and return a nil error. Read, convert, transform,
// encode and display failures are returned as *StageError. The device is
// released exactly once on every path.
func Run(ctx context.Context, opts ...Option) (*frame.Frame, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l := &loop{
		cfg:    cfg,
		log:    cfg.Logger.With("component", "stream", "device", cfg.Device),
		budget: cfg.Budget(),
	}
	return l.run(ctx)
}

type loop struct {
	cfg    *Config
	log    *slog.Logger
	budget time.Duration

	state State
	stats Stats
	start time.Time
}

func (l *loop) setState(s State) {
	l.state = s
	l.log.Debug("state", "state", s.String())
	if l.cfg.OnState != nil {
		l.cfg.OnState(s)
	}
}

func (l *loop) stop(reason StopReason) {
	l.stats.Reason = reason
	l.stats.Elapsed = time.Since(l.start)
	l.setState(Stopped)
	l.log.Info("stream stopped",
		"reason", string(reason),
		"frames", l.stats.Frames,
		"updates", l.stats.Updates,
		"fps", l.stats.FPS(),
	)
	if l.cfg.OnStats != nil {
		l.cfg.OnStats(l.stats)
	}
}

func (l *loop) run(ctx context.Context) (last *frame.Frame, err error) {
	l.start = time.Now()
	reason := ReasonFailed
	l.setState(Opening)

	dev, openErr := l.cfg.opener()(l.cfg.Device, l.cfg.Settings)
	if dev == nil {
		l.log.Info("camera unavailable", "backend", l.cfg.Backend, "error", openErr)
		l.stop(ReasonDeviceUnavailable)
		return nil, nil
	}
	// Any handle the opener gave us is ours, even one that failed to open.
	defer func() {
		if relErr := dev.Release(); relErr != nil {
			l.log.Error("release camera", "error", relErr)
		}
		l.stop(reason)
	}()

	if openErr != nil || !dev.IsOpened() {
		l.log.Info("camera not opened", "backend", l.cfg.Backend, "error", openErr)
		reason = ReasonDeviceUnavailable
		return nil, nil
	}

	l.setState(AwaitingFirstFrame)
	if ctx.Err() != nil {
		reason = ReasonInterrupted
		return nil, nil
	}
	raw, readErr := dev.Read()
	if capture.IsEndOfStream(raw, readErr) {
		reason = ReasonNoFirstFrame
		return nil, nil
	}
	if readErr != nil {
		return nil, &StageError{Stage: StageRead, Frame: 1, Err: readErr}
	}

	out, data, err := l.process(raw, 1)
	if err != nil {
		return nil, err
	}
	handle, err := l.cfg.Surface.Create(data, out.Width, out.Height)
	if err != nil {
		return nil, &StageError{Stage: StageDisplay, Frame: 1, Err: err}
	}
	last = out
	l.stats.Frames = 1
	l.stats.DisplayID = handle.ID()
	l.log.Info("display created", "display_id", handle.ID(), "width", out.Width, "height", out.Height)
	l.setState(Streaming)

	for n := 2; ; n++ {
		if ctx.Err() != nil {
			reason = ReasonInterrupted
			return last, nil
		}
		start := time.Now()

		raw, readErr := dev.Read()
		if capture.IsEndOfStream(raw, readErr) {
			reason = ReasonEndOfStream
			return last, nil
		}
		if readErr != nil {
			return nil, &StageError{Stage: StageRead, Frame: n, Err: readErr}
		}

		out, data, err := l.process(raw, n)
		if err != nil {
			return nil, err
		}
		if err := handle.Update(data); err != nil {
			return nil, &StageError{Stage: StageDisplay, Frame: n, Err: err}
		}
		last = out
		l.stats.Frames++
		l.stats.Updates++

		wait := Delay(l.budget, time.Since(start))
		l.stats.Slept += wait
		if !l.cfg.Sleeper(ctx, wait) {
			reason = ReasonInterrupted
			return last, nil
		}
	}
}

// process converts, transforms and encodes one raw camera frame.
func (l *loop) process(raw *frame.Frame, n int) (*frame.Frame, []byte, error) {
	converted, err := l.cfg.Converter(raw)
	if err != nil {
		return nil, nil, &StageError{Stage: StageConvert, Frame: n, Err: err}
	}
	out, err := l.cfg.Transform(converted)
	if err != nil {
		return nil, nil, &StageError{Stage: StageTransform, Frame: n, Err: err}
	}
	if out == nil {
		return nil, nil, &StageError{Stage: StageTransform, Frame: n, Err: transform.ErrNilFrame}
	}
	data, err := l.cfg.Encoder.Encode(out, l.cfg.Format)
	if err != nil {
		return nil, nil, &StageError{Stage: StageEncode, Frame: n, Err: err}
	}
	return out, data, nil
}
