package websocket

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"pricehub/internal/application/port"
)

const (
	DefaultSendBuffer   = 64
	DefaultWriteTimeout = 10 * time.Second
	DefaultPingInterval = 25 * time.Second
	DefaultPongWait     = 60 * time.Second
	DefaultReadLimit    = 64 << 10
)

// Handler is told about each connection's lifecycle and inbound frames.
type Handler interface {
	OnConnect(sub port.Subscriber)
	OnDisconnect(sub port.Subscriber)
	HandleMessage(sub port.Subscriber, raw []byte)
}

type Config struct {
	AllowedOrigins []string
	SendBuffer     int
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	PongWait       time.Duration
	ReadLimit      int64
}

func (c *Config) applyDefaults() {
	if c.SendBuffer <= 0 {
		c.SendBuffer = DefaultSendBuffer
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.PingInterval <= 0 {
		c.PingInterval = DefaultPingInterval
	}
	if c.PongWait <= c.PingInterval {
		c.PongWait = c.PingInterval * 2
		if c.PongWait < DefaultPongWait {
			c.PongWait = DefaultPongWait
		}
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = DefaultReadLimit
	}
}

// Manager upgrades HTTP requests to websocket connections and runs their pumps.
type Manager struct {
	cfg      Config
	handler  Handler
	upgrader websocket.Upgrader
	wg       sync.WaitGroup
}

func NewManager(cfg Config, handler Handler) *Manager {
	cfg.applyDefaults()
	m := &Manager{cfg: cfg, handler: handler}
	m.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     m.checkOrigin,
	}
	return m
}

// ServeHTTP blocks for the lifetime of the connection.
func (m *Manager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	conn := newConn(ws, r.RemoteAddr, m.cfg.SendBuffer)
	m.wg.Add(1)
	defer m.wg.Done()

	go conn.writePump(m.cfg.WriteTimeout, m.cfg.PingInterval)
	log.Debug().Str("subscriber", conn.ID()).Str("remote", conn.RemoteAddr()).Msg("websocket opened")
	m.handler.OnConnect(conn)

	err = conn.readPump(m.cfg.ReadLimit, m.cfg.PongWait, func(b []byte) {
		m.handler.HandleMessage(conn, b)
	})
	if err != nil && !conn.closed() &&
		websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		log.Debug().Err(err).Str("subscriber", conn.ID()).Msg("websocket read ended")
	}

	m.handler.OnDisconnect(conn)
	_ = conn.Close()
	log.Debug().Str("subscriber", conn.ID()).Str("remote", conn.RemoteAddr()).Msg("websocket closed")
}

// Wait blocks until every connection served so far has finished.
func (m *Manager) Wait() { m.wg.Wait() }

func (m *Manager) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(m.cfg.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range m.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(strings.TrimRight(allowed, "/"), strings.TrimRight(origin, "/")) {
			return true
		}
	}
	log.Warn().Str("origin", origin).Msg("websocket origin rejected")
	return false
}
