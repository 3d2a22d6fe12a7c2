package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"pricehub/internal/application/port"
)

// Conn is one accepted websocket client. Outbound messages go through a
// bounded queue drained by writePump; Send never touches the socket.
type Conn struct {
	id     string
	remote string
	ws     *websocket.Conn
	send   chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

var _ port.Subscriber = (*Conn)(nil)

func newConn(ws *websocket.Conn, remote string, buffer int) *Conn {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	return &Conn{
		id:     uuid.NewString(),
		remote: remote,
		ws:     ws,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) RemoteAddr() string { return c.remote }

// Send queues msg, failing fast with ErrSubscriberSlow when the queue is full.
func (c *Conn) Send(msg []byte) error {
	select {
	case <-c.done:
		return port.ErrSubscriberClosed
	default:
	}
	select {
	case c.send <- msg:
		return nil
	case <-c.done:
		return port.ErrSubscriberClosed
	default:
		return port.ErrSubscriberSlow
	}
}

// Close is idempotent. The socket itself is closed by writePump on its way out.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *Conn) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Conn) writePump(writeTimeout, pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				_ = c.Close()
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeTimeout)); err != nil {
				_ = c.Close()
				return
			}
		case <-c.done:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeTimeout))
			return
		}
	}
}

func (c *Conn) readPump(readLimit int64, pongWait time.Duration, onMessage func([]byte)) error {
	c.ws.SetReadLimit(readLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, b, err := c.ws.ReadMessage()
		if err != nil {
			return err
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		onMessage(b)
	}
}
