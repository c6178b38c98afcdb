package capture

import (
	"sync"

	"github.com/teslashibe/camview/pkg/frame"
)

// BackendMock is the registry name of the mock backend.
const BackendMock = "mock"

// Call records a method invocation on a Mock device.
type Call struct {
	Method string
}

// Mock is a scripted capture device for testing.
// Read returns Frames in order, then ErrEndOfStream.
type Mock struct {
	mu sync.Mutex

	// Frames are returned by successive reads.
	Frames []*frame.Frame

	// Closed makes IsOpened report false.
	Closed bool

	// ReadErr, when set, is returned by the read at index FailAt.
	ReadErr error
	FailAt  int

	// OnRead, when set, runs before every read with its zero-based index.
	OnRead func(n int)

	reads    int
	released int
	calls    []Call
}

// NewMock creates an open mock device yielding the given frames.
func NewMock(frames ...*frame.Frame) *Mock {
	return &Mock{Frames: frames, FailAt: -1}
}

// NewClosedMock creates a mock device that failed to open.
func NewClosedMock() *Mock {
	return &Mock{Closed: true, FailAt: -1}
}

// MockFrames returns n distinct BGR frames of the given size. Frame i has
// every byte set to i+1 so tests can tell them apart.
func MockFrames(n, width, height int) []*frame.Frame {
	frames := make([]*frame.Frame, n)
	for i := range frames {
		f := frame.New(width, height, frame.BGR)
		for j := range f.Pix {
			f.Pix[j] = byte(i + 1)
		}
		frames[i] = f
	}
	return frames
}

// IsOpened implements Device.
func (m *Mock) IsOpened() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: "IsOpened"})
	return !m.Closed && m.released == 0
}

// Read implements Device.
func (m *Mock) Read() (*frame.Frame, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Method: "Read"})
	n := m.reads
	m.reads++
	onRead := m.OnRead
	released := m.released
	m.mu.Unlock()

	if onRead != nil {
		onRead(n)
	}
	if released > 0 {
		return nil, ErrReleased
	}
	if m.Closed {
		return nil, ErrNotOpened
	}
	if m.ReadErr != nil && n == m.FailAt {
		return nil, m.ReadErr
	}
	if n >= len(m.Frames) {
		return nil, ErrEndOfStream
	}
	return m.Frames[n].Clone(), nil
}

// Release implements Device.
func (m *Mock) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: "Release"})
	m.released++
	return nil
}

// Calls returns all recorded calls.
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// ReleaseCount returns how many times Release was called.
func (m *Mock) ReleaseCount() int {
	return m.CallCount("Release")
}

// Opener returns an Opener that hands out m regardless of index and
// records the requested index.
func (m *Mock) Opener(gotIndex *int) Opener {
	return func(index int, _ Settings) (Device, error) {
		if gotIndex != nil {
			*gotIndex = index
		}
		return m, nil
	}
}

func init() {
	Register(BackendMock, func(int, Settings) (Device, error) {
		return NewMock(MockFrames(3, 64, 48)...), nil
	})
}
