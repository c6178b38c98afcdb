package config

import "flag"

// flagValues holds parsed flag values until we know which were set.
type flagValues struct {
	config    *string
	device    *int
	backend   *string
	preset    *string
	width     *int
	height    *int
	framerate *int
	fps       *int
	format    *string
	quality   *int
	encoder   *string
	converter *string
	transform *string
	surface   *string
	addr      *string
	linger    *bool
	logLevel  *string
}

func bindFlags(fs *flag.FlagSet, def Config) *flagValues {
	return &flagValues{
		config:    fs.String("config", "", "YAML config file (or CAMVIEW_CONFIG)"),
		device:    fs.Int("device", def.Device, "Camera device index"),
		backend:   fs.String("backend", def.Backend, "Capture backend: opencv, v4l2, screen, pattern, mock"),
		preset:    fs.String("preset", def.Preset, "Capture preset: default, legacy, 720p, 1080p"),
		width:     fs.Int("width", 0, "Requested frame width (overrides preset)"),
		height:    fs.Int("height", 0, "Requested frame height (overrides preset)"),
		framerate: fs.Int("framerate", 0, "Requested device framerate (overrides preset)"),
		fps:       fs.Int("fps", def.FPS, "Target display frames per second"),
		format:    fs.String("format", def.Format, "Image format: jpeg, png, bmp"),
		quality:   fs.Int("quality", def.Quality, "JPEG quality 1-100"),
		encoder:   fs.String("encoder", def.Encoder, "Encoder: go, opencv"),
		converter: fs.String("converter", def.Converter, "Color converter: go, opencv"),
		transform: fs.String("transform", def.Transform, "Comma separated transforms: identity, mirror, grayscale, clock"),
		surface:   fs.String("surface", def.Surface, "Display surface: viewer, none"),
		addr:      fs.String("addr", def.Addr, "Viewer listen address"),
		linger:    fs.Bool("linger", def.Linger, "Keep serving the viewer after the stream ends"),
		logLevel:  fs.String("log-level", def.LogLevel, "Log level: debug, info, warn, error"),
	}
}

func (v *flagValues) apply(name string, cfg *Config) {
	switch name {
	case "device":
		cfg.Device = *v.device
	case "backend":
		cfg.Backend = *v.backend
	case "preset":
		cfg.Preset = *v.preset
	case "width":
		cfg.Capture.Width = *v.width
	case "height":
		cfg.Capture.Height = *v.height
	case "framerate":
		cfg.Capture.Framerate = *v.framerate
	case "fps":
		cfg.FPS = *v.fps
	case "format":
		cfg.Format = *v.format
	case "quality":
		cfg.Quality = *v.quality
	case "encoder":
		cfg.Encoder = *v.encoder
	case "converter":
		cfg.Converter = *v.converter
	case "transform":
		cfg.Transform = *v.transform
	case "surface":
		cfg.Surface = *v.surface
	case "addr":
		cfg.Addr = *v.addr
	case "linger":
		cfg.Linger = *v.linger
	case "log-level":
		cfg.LogLevel = *v.logLevel
	}
}
