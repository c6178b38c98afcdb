package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeTimeout = 10 * time.Second
	readTimeout  = 60 * time.Second
	pingInterval = readTimeout * 9 / 10

	// Viewers only send control frames.
	readLimit = 4 * 1024

	queueSize = 16
)

// Conn is the part of a websocket connection a Viewer drives.
// *websocket.Conn from gofiber/websocket satisfies it.
type Conn interface {
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Viewer is one websocket attached to a hub.
type Viewer struct {
	hub   *Hub
	conn  Conn
	queue chan Message
}

// Attach registers conn with h. The initial messages are written first,
// then the last image h delivered, then anything published afterwards.
// Attach returns nil once h is stopped.
func Attach(h *Hub, conn Conn, initial ...Message) *Viewer {
	v := &Viewer{
		hub:   h,
		conn:  conn,
		queue: make(chan Message, queueSize+len(initial)),
	}
	for _, msg := range initial {
		v.queue <- msg
	}
	select {
	case h.join <- v:
		return v
	case <-h.done:
		return nil
	}
}

// offer queues msg, evicting the oldest queued message if the queue is
// full. It reports whether a message was evicted. Only the hub goroutine
// calls offer.
func (v *Viewer) offer(msg Message) bool {
	select {
	case v.queue <- msg:
		return false
	default:
	}
	select {
	case <-v.queue:
	default:
	}
	select {
	case v.queue <- msg:
	default:
	}
	return true
}

// Serve pumps the connection until it closes or the hub stops. It blocks,
// so call it from the websocket handler.
func (v *Viewer) Serve() {
	go v.writeLoop()
	v.readLoop()
}

func (v *Viewer) readLoop() {
	defer func() {
		select {
		case v.hub.leave <- v:
		case <-v.hub.done:
		}
		v.conn.Close()
	}()

	v.conn.SetReadLimit(readLimit)
	v.conn.SetReadDeadline(time.Now().Add(readTimeout))
	v.conn.SetPongHandler(func(string) error {
		return v.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop is the only writer on conn.
func (v *Viewer) writeLoop() {
	ping := time.NewTicker(pingInterval)
	defer func() {
		ping.Stop()
		v.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-v.queue:
			v.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				v.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			kind := websocket.TextMessage
			if msg.Kind == KindBinary {
				kind = websocket.BinaryMessage
			}
			if err := v.conn.WriteMessage(kind, msg.Data); err != nil {
				return
			}

		case <-ping.C:
			v.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
