// Package transform provides per-frame processing steps for the stream loop.
//
// A transform receives frames in display (RGB) order and must return frames
// in display order. It may return its input or a new frame.
package transform

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/teslashibe/camview/pkg/frame"
)

// Sentinel errors for common error conditions.
var (
	// ErrUnknown is returned by ByName for an unregistered transform.
	ErrUnknown = errors.New("transform: unknown transform")

	// ErrNilFrame is returned when a transform produces no frame.
	ErrNilFrame = errors.New("transform: nil frame")
)

// Func maps one frame to another.
type Func func(*frame.Frame) (*frame.Frame, error)

// Pure adapts a transform that cannot fail.
func Pure(fn func(*frame.Frame) *frame.Frame) Func {
	return func(f *frame.Frame) (*frame.Frame, error) {
		return fn(f), nil
	}
}

// Identity returns its input unchanged.
func Identity(f *frame.Frame) (*frame.Frame, error) {
	return f, nil
}

// Mirror flips the frame horizontally, like a selfie preview.
func Mirror(f *frame.Frame) (*frame.Frame, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("mirror: %w", err)
	}
	out := frame.New(f.Width, f.Height, f.Order)
	stride := f.Stride()
	for y := 0; y < f.Height; y++ {
		row := y * stride
		for x := 0; x < f.Width; x++ {
			src := row + x*frame.Channels
			dst := row + (f.Width-1-x)*frame.Channels
			copy(out.Pix[dst:dst+frame.Channels], f.Pix[src:src+frame.Channels])
		}
	}
	return out, nil
}

// Grayscale replaces every pixel with its BT.601 luma.
func Grayscale(f *frame.Frame) (*frame.Frame, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("grayscale: %w", err)
	}
	out := frame.New(f.Width, f.Height, f.Order)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			r, g, b := f.RGBAt(x, y)
			luma := byte((299*int(r) + 587*int(g) + 114*int(b) + 500) / 1000)
			i := y*f.Stride() + x*frame.Channels
			out.Pix[i], out.Pix[i+1], out.Pix[i+2] = luma, luma, luma
		}
	}
	return out, nil
}

// Chain runs transforms left to right. An empty chain is Identity.
func Chain(fns ...Func) Func {
	return func(f *frame.Frame) (*frame.Frame, error) {
		var err error
		for i, fn := range fns {
			f, err = fn(f)
			if err != nil {
				return nil, err
			}
			if f == nil {
				return nil, fmt.Errorf("%w: step %d", ErrNilFrame, i)
			}
		}
		return f, nil
	}
}

var builtin = map[string]Func{
	"identity":  Identity,
	"none":      Identity,
	"mirror":    Mirror,
	"grayscale": Grayscale,
}

// stateful transforms get a fresh instance from every ByName call.
var stateful = map[string]func() Func{
	"clock": Clock,
}

// Names returns the names accepted by ByName.
func Names() []string {
	names := make([]string, 0, len(builtin)+len(stateful))
	for name := range builtin {
		names = append(names, name)
	}
	for name := range stateful {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByName parses a comma separated list of builtin transform names into a
// chain, e.g. "mirror,grayscale".
func ByName(spec string) (Func, error) {
	var fns []Func
	for _, name := range strings.Split(spec, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		fn, ok := builtin[name]
		if mk, isStateful := stateful[name]; isStateful {
			fn, ok = mk(), true
		}
		if !ok {
			return nil, fmt.Errorf("%w: %q (have %v)", ErrUnknown, name, Names())
		}
		fns = append(fns, fn)
	}
	if len(fns) == 0 {
		return Identity, nil
	}
	if len(fns) == 1 {
		return fns[0], nil
	}
	return Chain(fns...), nil
}
