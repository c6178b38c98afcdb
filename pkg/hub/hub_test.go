package hub

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
)

type written struct {
	kind int
	data []byte
}

// fakeConn blocks reads until closed and records writes.
type fakeConn struct {
	writes chan written
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{writes: make(chan written, 64), closed: make(chan struct{})}
}

func (c *fakeConn) SetReadLimit(int64)                {}
func (c *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (c *fakeConn) SetWriteDeadline(time.Time) error  { return nil }
func (c *fakeConn) SetPongHandler(func(string) error) {}

func (c *fakeConn) WriteMessage(kind int, data []byte) error {
	select {
	case <-c.closed:
		return errors.New("closed")
	default:
	}
	c.writes <- written{kind: kind, data: data}
	return nil
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	<-c.closed
	return 0, nil, errors.New("closed")
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func nextWrite(t *testing.T, c *fakeConn) written {
	t.Helper()
	select {
	case w := <-c.writes:
		return w
	case <-time.After(2 * time.Second):
		t.Fatal("no write received")
		return written{}
	}
}

func TestNew(t *testing.T) {
	h := New("slot", nil)
	if h.Name() != "slot" {
		t.Errorf("expected name slot, got %q", h.Name())
	}
	if h.Viewers() != 0 {
		t.Error("Viewers should be 0 initially")
	}
	if h.IsRunning() {
		t.Error("hub should not be running before Run")
	}
}

func TestPublishReachesViewers(t *testing.T) {
	h := New("slot", nil)
	go h.Run()
	defer h.Stop()

	conn := newFakeConn()
	v := Attach(h, conn, NewText([]byte(`{"width":2}`)), NewBinary([]byte("first")))
	go v.Serve()

	waitFor(t, func() bool { return h.Viewers() == 1 })

	t.Run("initial messages first", func(t *testing.T) {
		w := nextWrite(t, conn)
		if w.kind != websocket.TextMessage || string(w.data) != `{"width":2}` {
			t.Errorf("unexpected first write %d %q", w.kind, w.data)
		}
		w = nextWrite(t, conn)
		if w.kind != websocket.BinaryMessage || string(w.data) != "first" {
			t.Errorf("unexpected second write %d %q", w.kind, w.data)
		}
	})

	t.Run("image published", func(t *testing.T) {
		h.PublishImage([]byte("frame"))
		w := nextWrite(t, conn)
		if w.kind != websocket.BinaryMessage || string(w.data) != "frame" {
			t.Errorf("unexpected write %d %q", w.kind, w.data)
		}
	})

	t.Run("text published", func(t *testing.T) {
		h.Publish(NewText([]byte(`{"updates":3}`)))
		w := nextWrite(t, conn)
		if w.kind != websocket.TextMessage || string(w.data) != `{"updates":3}` {
			t.Errorf("unexpected write %d %q", w.kind, w.data)
		}
	})

	t.Run("disconnect leaves", func(t *testing.T) {
		conn.Close()
		waitFor(t, func() bool { return h.Viewers() == 0 })
	})
}

func TestJoinReceivesLatestImage(t *testing.T) {
	h := New("slot", nil)
	go h.Run()
	defer h.Stop()

	first := newFakeConn()
	v := Attach(h, first)
	go v.Serve()
	waitFor(t, func() bool { return h.Viewers() == 1 })

	h.PublishImage([]byte("a"))
	if w := nextWrite(t, first); string(w.data) != "a" {
		t.Fatalf("expected a, got %q", w.data)
	}
	h.Publish(NewText([]byte(`{"updates":1}`)))
	if w := nextWrite(t, first); w.kind != websocket.TextMessage {
		t.Fatalf("expected text, got %d", w.kind)
	}

	late := newFakeConn()
	lv := Attach(h, late, NewText([]byte(`{"id":"slot"}`)))
	go lv.Serve()

	w := nextWrite(t, late)
	if w.kind != websocket.TextMessage || string(w.data) != `{"id":"slot"}` {
		t.Errorf("expected info first, got %d %q", w.kind, w.data)
	}
	w = nextWrite(t, late)
	if w.kind != websocket.BinaryMessage || string(w.data) != "a" {
		t.Errorf("expected latest image a, got %d %q", w.kind, w.data)
	}

	h.PublishImage([]byte("b"))
	if w := nextWrite(t, late); string(w.data) != "b" {
		t.Errorf("expected b, got %q", w.data)
	}
	select {
	case w := <-late.writes:
		t.Errorf("unexpected extra write %q", w.data)
	case <-time.After(50 * time.Millisecond):
	}

	first.Close()
	late.Close()
}

func TestOfferEvictsOldest(t *testing.T) {
	v := &Viewer{queue: make(chan Message, 2)}

	if v.offer(NewBinary([]byte("1"))) || v.offer(NewBinary([]byte("2"))) {
		t.Fatal("no eviction expected while the queue has room")
	}
	if !v.offer(NewBinary([]byte("3"))) {
		t.Fatal("expected eviction on a full queue")
	}

	got := []string{string((<-v.queue).Data), string((<-v.queue).Data)}
	if got[0] != "2" || got[1] != "3" {
		t.Errorf("expected [2 3], got %v", got)
	}
}

func TestStop(t *testing.T) {
	h := New("slot", nil)
	go h.Run()
	waitFor(t, h.IsRunning)

	conn := newFakeConn()
	v := Attach(h, conn)
	go v.Serve()
	waitFor(t, func() bool { return h.Viewers() == 1 })

	h.Stop()
	h.Stop()

	waitFor(t, func() bool { return !h.IsRunning() })
	if h.Viewers() != 0 {
		t.Error("Stop should detach viewers")
	}

	w := nextWrite(t, conn)
	if w.kind != websocket.CloseMessage {
		t.Errorf("expected close frame, got %d", w.kind)
	}

	if Attach(h, newFakeConn()) != nil {
		t.Error("Attach on a stopped hub should return nil")
	}

	// Must not block after Stop.
	h.PublishImage([]byte("late"))
}
