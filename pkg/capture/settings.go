package capture

import "fmt"

// Settings are requested from the driver when a device is opened.
// Zero values leave the driver default in place.
type Settings struct {
	Width     int `yaml:"width" json:"width"`         // Frame width in pixels
	Height    int `yaml:"height" json:"height"`       // Frame height in pixels
	Framerate int `yaml:"framerate" json:"framerate"` // Requested device FPS
}

// Preset names for common configurations
const (
	PresetDefault = "default"
	PresetLegacy  = "legacy"
	Preset720p    = "720p"
	Preset1080p   = "1080p"
)

// Limits accepted by Validate.
const (
	MaxWidth     = 4608
	MaxHeight    = 2592
	MaxFramerate = 120
)

// DefaultSettings keeps the driver's own resolution and rate.
func DefaultSettings() Settings {
	return Settings{}
}

// LegacySettings returns 640x480, which nearly every webcam supports.
func LegacySettings() Settings {
	return Settings{Width: 640, Height: 480, Framerate: 30}
}

// HD720Settings returns 720p HD settings.
func HD720Settings() Settings {
	return Settings{Width: 1280, Height: 720, Framerate: 30}
}

// HD1080Settings returns 1080p Full HD settings.
// Encoding cost grows with resolution; expect fewer displayed FPS.
func HD1080Settings() Settings {
	return Settings{Width: 1920, Height: 1080, Framerate: 30}
}

// Presets returns all available preset settings.
func Presets() map[string]Settings {
	return map[string]Settings{
		PresetDefault: DefaultSettings(),
		PresetLegacy:  LegacySettings(),
		Preset720p:    HD720Settings(),
		Preset1080p:   HD1080Settings(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{PresetDefault, PresetLegacy, Preset720p, Preset1080p}
}

// GetPreset returns preset settings by name, or nil if not found.
func GetPreset(name string) *Settings {
	if s, ok := Presets()[name]; ok {
		return &s
	}
	return nil
}

// Validate checks if the settings are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (s *Settings) Validate() []string {
	var errors []string

	if s.Width != 0 && (s.Width < 16 || s.Width > MaxWidth) {
		errors = append(errors, fmt.Sprintf("width must be 0 (driver default) or between 16 and %d", MaxWidth))
	}
	if s.Height != 0 && (s.Height < 16 || s.Height > MaxHeight) {
		errors = append(errors, fmt.Sprintf("height must be 0 (driver default) or between 16 and %d", MaxHeight))
	}
	if (s.Width == 0) != (s.Height == 0) {
		errors = append(errors, "width and height must be set together")
	}
	if s.Framerate < 0 || s.Framerate > MaxFramerate {
		errors = append(errors, fmt.Sprintf("framerate must be between 0 and %d", MaxFramerate))
	}

	return errors
}
