package stream

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/camview/pkg/capture"
	"github.com/teslashibe/camview/pkg/colorconv"
	"github.com/teslashibe/camview/pkg/display"
	"github.com/teslashibe/camview/pkg/encode"
	"github.com/teslashibe/camview/pkg/transform"
)

// Defaults used when an option is not given.
const (
	DefaultFPS     = 30
	DefaultDevice  = 0
	DefaultBackend = "opencv"
)

// Sleeper waits for d or until ctx is done. It returns false when the wait
// was cut short by ctx.
type Sleeper func(ctx context.Context, d time.Duration) bool

// Config holds loop configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Frame source
	Device   int
	Backend  string
	Settings capture.Settings
	Opener   capture.Opener

	// Processing
	Converter colorconv.Func
	Transform transform.Func
	Encoder   encode.Encoder
	Format    encode.Format

	// Output
	Surface display.Surface

	// Rate ceiling in frames per second
	FPS int

	// Hooks
	Sleeper Sleeper
	OnState func(State)
	OnStats func(Stats)

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring the loop.
type Option func(*Config)

// WithDevice selects which camera to open.
func WithDevice(index int) Option {
	return func(c *Config) {
		c.Device = index
	}
}

// WithBackend selects a registered capture backend by name.
func WithBackend(name string) Option {
	return func(c *Config) {
		c.Backend = name
	}
}

// WithSettings sets the capture settings requested from the driver.
func WithSettings(s capture.Settings) Option {
	return func(c *Config) {
		c.Settings = s
	}
}

// WithOpener overrides backend lookup with an explicit opener.
func WithOpener(open capture.Opener) Option {
	return func(c *Config) {
		c.Opener = open
	}
}

// WithConverter replaces the camera-to-display channel converter.
func WithConverter(fn colorconv.Func) Option {
	return func(c *Config) {
		c.Converter = fn
	}
}

// WithTransform sets the per-frame transform. nil means identity.
func WithTransform(fn transform.Func) Option {
	return func(c *Config) {
		c.Transform = fn
	}
}

// WithEncoder sets the image encoder.
func WithEncoder(enc encode.Encoder) Option {
	return func(c *Config) {
		c.Encoder = enc
	}
}

// WithFormat sets the encoded image format.
func WithFormat(f encode.Format) Option {
	return func(c *Config) {
		c.Format = f
	}
}

// WithSurface sets where frames are displayed.
func WithSurface(s display.Surface) Option {
	return func(c *Config) {
		c.Surface = s
	}
}

// WithFPS sets the frame-rate ceiling.
func WithFPS(fps int) Option {
	return func(c *Config) {
		c.FPS = fps
	}
}

// WithSleeper replaces the rate-limit wait.
func WithSleeper(s Sleeper) Option {
	return func(c *Config) {
		c.Sleeper = s
	}
}

// WithStateHook is called on every state transition.
func WithStateHook(fn func(State)) Option {
	return func(c *Config) {
		c.OnState = fn
	}
}

// WithStatsHook is called once when the loop stops.
func WithStatsHook(fn func(Stats)) Option {
	return func(c *Config) {
		c.OnStats = fn
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns sensible default configuration.
// Surface has no default and must be set.
func DefaultConfig() *Config {
	return &Config{
		Device:    DefaultDevice,
		Backend:   DefaultBackend,
		Settings:  capture.DefaultSettings(),
		Converter: colorconv.BGRToRGB,
		Transform: transform.Identity,
		Encoder:   encode.New(),
		Format:    encode.JPEG,
		FPS:       DefaultFPS,
		Sleeper:   sleepContext,
		Logger:    slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
	if c.Transform == nil {
		c.Transform = transform.Identity
	}
	if c.Converter == nil {
		c.Converter = colorconv.BGRToRGB
	}
	if c.Encoder == nil {
		c.Encoder = encode.New()
	}
	if c.Sleeper == nil {
		c.Sleeper = sleepContext
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.FPS <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidFPS, c.FPS)
	}
	if c.Device < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDevice, c.Device)
	}
	if c.Surface == nil {
		return ErrNoSurface
	}
	if errs := c.Settings.Validate(); len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, errs)
	}
	if c.Opener == nil {
		if _, err := capture.Lookup(c.Backend); err != nil {
			return err
		}
	}
	return nil
}

// Budget returns the minimum time per iteration.
func (c *Config) Budget() time.Duration {
	return Budget(c.FPS)
}

func (c *Config) opener() capture.Opener {
	if c.Opener != nil {
		return c.Opener
	}
	return func(index int, s capture.Settings) (capture.Device, error) {
		return capture.Open(c.Backend, index, s)
	}
}
