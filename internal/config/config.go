// Package config loads camview command configuration.
//
// Values are resolved in order, later sources winning: built-in defaults,
// an optional YAML file, CAMVIEW_* environment variables, then flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/camview/pkg/capture"
	"github.com/teslashibe/camview/pkg/encode"
	"github.com/teslashibe/camview/pkg/transform"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid")

// Surfaces accepted for Config.Surface.
const (
	SurfaceViewer = "viewer"
	SurfaceNone   = "none"
)

// Implementations accepted for Config.Encoder and Config.Converter.
const (
	ImplGo     = "go"
	ImplOpenCV = "opencv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CAMVIEW_"

// Config holds everything the camview command needs.
type Config struct {
	Device    int              `yaml:"device"`
	Backend   string           `yaml:"backend"`
	Preset    string           `yaml:"preset"`
	Capture   capture.Settings `yaml:"capture"`
	FPS       int              `yaml:"fps"`
	Format    string           `yaml:"format"`
	Quality   int              `yaml:"quality"`
	Encoder   string           `yaml:"encoder"`
	Converter string           `yaml:"converter"`
	Transform string           `yaml:"transform"`
	Surface   string           `yaml:"surface"`
	Addr      string           `yaml:"addr"`
	Linger    bool             `yaml:"linger"` // keep serving the viewer after the stream ends
	LogLevel  string           `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Device:    0,
		Backend:   "opencv",
		Preset:    capture.PresetDefault,
		FPS:       30,
		Format:    string(encode.JPEG),
		Quality:   encode.DefaultQuality,
		Encoder:   ImplGo,
		Converter: ImplGo,
		Transform: "identity",
		Surface:   SurfaceViewer,
		Addr:      "127.0.0.1:8090",
		Linger:    true,
		LogLevel:  "info",
	}
}

// Load resolves the configuration from defaults, the file named by -config,
// the environment and args. Flags not present in args do not override
// earlier sources.
func Load(args []string) (Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("camview", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fl := bindFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}

	path := *fl.config
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}

	fs.Visit(func(f *flag.Flag) { fl.apply(f.Name, &cfg) })
	return cfg, nil
}

// Usage writes flag help to w.
func Usage(w io.Writer) {
	fs := flag.NewFlagSet("camview", flag.ContinueOnError)
	bindFlags(fs, Default())
	fs.SetOutput(w)
	fmt.Fprintln(w, "Usage: camview [flags]")
	fs.PrintDefaults()
}

// LoadFile merges a YAML file into cfg. Keys missing from the file keep
// their current values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// ApplyEnv merges CAMVIEW_* environment variables into cfg.
func ApplyEnv(cfg *Config) error {
	var errs []error
	envString("BACKEND", &cfg.Backend)
	envString("PRESET", &cfg.Preset)
	envString("FORMAT", &cfg.Format)
	envString("ENCODER", &cfg.Encoder)
	envString("CONVERTER", &cfg.Converter)
	envString("TRANSFORM", &cfg.Transform)
	envString("SURFACE", &cfg.Surface)
	envString("ADDR", &cfg.Addr)
	envString("LOG_LEVEL", &cfg.LogLevel)
	errs = append(errs,
		envInt("DEVICE", &cfg.Device),
		envInt("FPS", &cfg.FPS),
		envInt("QUALITY", &cfg.Quality),
		envInt("WIDTH", &cfg.Capture.Width),
		envInt("HEIGHT", &cfg.Capture.Height),
		envInt("FRAMERATE", &cfg.Capture.Framerate),
		envBool("LINGER", &cfg.Linger),
	)
	return errors.Join(errs...)
}

func envString(key string, dst *string) {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err)
	}
	*dst = n
	return nil
}

func envBool(key string, dst *bool) error {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err)
	}
	*dst = b
	return nil
}

// Settings returns the capture settings: the preset, with any explicitly
// configured width, height or framerate on top.
func (c Config) Settings() capture.Settings {
	s := capture.DefaultSettings()
	if p := capture.GetPreset(c.Preset); p != nil {
		s = *p
	}
	if c.Capture.Width > 0 {
		s.Width = c.Capture.Width
	}
	if c.Capture.Height > 0 {
		s.Height = c.Capture.Height
	}
	if c.Capture.Framerate > 0 {
		s.Framerate = c.Capture.Framerate
	}
	return s
}

// Validate checks every field and reports all problems at once.
func (c Config) Validate() error {
	var problems []string

	if c.Device < 0 {
		problems = append(problems, "device must be >= 0")
	}
	if c.FPS <= 0 {
		problems = append(problems, "fps must be > 0")
	}
	if c.Backend == "" {
		problems = append(problems, "backend is required")
	}
	if c.Preset != "" && capture.GetPreset(c.Preset) == nil {
		problems = append(problems, fmt.Sprintf("unknown preset %q (have %s)", c.Preset, strings.Join(capture.PresetNames(), ", ")))
	}
	settings := c.Settings()
	problems = append(problems, settings.Validate()...)
	if _, err := encode.ParseFormat(c.Format); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Quality < 1 || c.Quality > 100 {
		problems = append(problems, "quality must be between 1 and 100")
	}
	if c.Encoder != ImplGo && c.Encoder != ImplOpenCV {
		problems = append(problems, fmt.Sprintf("encoder must be %q or %q", ImplGo, ImplOpenCV))
	}
	if c.Converter != ImplGo && c.Converter != ImplOpenCV {
		problems = append(problems, fmt.Sprintf("converter must be %q or %q", ImplGo, ImplOpenCV))
	}
	if _, err := transform.ByName(c.Transform); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Surface != SurfaceViewer && c.Surface != SurfaceNone {
		problems = append(problems, fmt.Sprintf("surface must be %q or %q", SurfaceViewer, SurfaceNone))
	}
	if c.Surface == SurfaceViewer && c.Addr == "" {
		problems = append(problems, "addr is required for the viewer surface")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}
