package capture

import (
	"sync"
	"time"

	"github.com/teslashibe/camview/pkg/frame"
)

// BackendPattern is the registry name of the synthetic pattern backend.
const BackendPattern = "pattern"

// Default pattern size when settings leave it to the driver.
const (
	patternWidth  = 320
	patternHeight = 240
)

// bars are the classic SMPTE-style colors as (r, g, b).
var bars = [][3]byte{
	{192, 192, 192},
	{192, 192, 0},
	{0, 192, 192},
	{0, 192, 0},
	{192, 0, 192},
	{192, 0, 0},
	{0, 0, 192},
}

// Pattern is a synthetic device producing scrolling color bars in BGR.
// It lets the viewer run on machines without a camera.
type Pattern struct {
	width, height int
	limit         int
	interval      time.Duration

	mu       sync.Mutex
	n        int
	last     time.Time
	released bool
}

// NewPattern creates a pattern device. limit <= 0 means unbounded.
// A positive settings.Framerate paces Read like a real driver would.
func NewPattern(settings Settings, limit int) *Pattern {
	p := &Pattern{
		width:  settings.Width,
		height: settings.Height,
		limit:  limit,
	}
	if p.width <= 0 || p.height <= 0 {
		p.width, p.height = patternWidth, patternHeight
	}
	if settings.Framerate > 0 {
		p.interval = time.Second / time.Duration(settings.Framerate)
	}
	return p
}

// IsOpened implements Device.
func (p *Pattern) IsOpened() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.released
}

// Read implements Device.
func (p *Pattern) Read() (*frame.Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.released {
		return nil, ErrReleased
	}
	if p.limit > 0 && p.n >= p.limit {
		return nil, ErrEndOfStream
	}
	if p.interval > 0 && !p.last.IsZero() {
		if wait := p.interval - time.Since(p.last); wait > 0 {
			time.Sleep(wait)
		}
	}
	p.last = time.Now()

	f := frame.New(p.width, p.height, frame.BGR)
	barWidth := p.width / len(bars)
	if barWidth == 0 {
		barWidth = 1
	}
	shift := p.n * 4
	for y := 0; y < p.height; y++ {
		row := y * f.Stride()
		for x := 0; x < p.width; x++ {
			c := bars[((x+shift)/barWidth)%len(bars)]
			i := row + x*frame.Channels
			f.Pix[i], f.Pix[i+1], f.Pix[i+2] = c[2], c[1], c[0]
		}
	}
	p.n++
	return f, nil
}

// Release implements Device.
func (p *Pattern) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released = true
	return nil
}

func init() {
	Register(BackendPattern, func(_ int, settings Settings) (Device, error) {
		return NewPattern(settings, 0), nil
	})
}
