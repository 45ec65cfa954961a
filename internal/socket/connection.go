package socket

import (
	"time"

	"github.com/momentum-xyz/mapconfig/internal/logger"
	"github.com/momentum-xyz/mapconfig/utils"

	"github.com/eapache/queue"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sasha-s/go-deadlock"
)

const (
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	inMessageSizeLimit = 1024
	// maximal size of buffer in messages, after which we drop connection as not-working
	maxBufferSize = 64
)

var log = logger.L().With("package", "socket")

// Connection is a read-only settings feed to one web client. Clients never
// send data; the read pump only services control frames.
type Connection struct {
	send      chan *websocket.PreparedMessage
	buffer    *queue.Queue
	OnPumpEnd func()
	canWrite  utils.TAtomBool
	mu        *deadlock.RWMutex
	conn      *websocket.Conn
	closed    bool
}

func NewConnection(conn *websocket.Conn) *Connection {
	c := &Connection{
		send:      make(chan *websocket.PreparedMessage, 10),
		buffer:    queue.New(),
		OnPumpEnd: func() {},
		mu:        new(deadlock.RWMutex),
		conn:      conn,
	}
	c.canWrite.Set(false)
	return c
}

func (c *Connection) SetPumpEndCallback(f func()) {
	c.OnPumpEnd = f
}

func (c *Connection) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	log.Debug("Connection: closing connection and chan")
	c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
	c.conn.Close()
}

func (c *Connection) StartReadPump() {
	defer func() {
		c.Close()
		log.Debug("Connection: end of read pump")
	}()

	c.conn.SetReadLimit(inMessageSizeLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(
		func(string) error {
			return c.conn.SetReadDeadline(time.Now().Add(pongWait))
		},
	)

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				log.Debug(errors.WithMessage(err, "Connection: read pump: websocket closed by client"))
				return
			}
			log.Debug(errors.WithMessage(err, "Connection: read pump: failed to read message from connection"))
			return
		}
	}
}

// EnableWriting releases messages buffered before the client was ready.
func (c *Connection) EnableWriting() {
	c.canWrite.Set(true)
}

func (c *Connection) StartWritePump() {
	pingTicker := time.NewTicker(pingPeriod)
	defer func() {
		pingTicker.Stop()
		c.Close()
		c.OnPumpEnd()
		log.Debug("Connection: end of write pump")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			if !c.canWrite.Get() {
				if c.buffer.Length() >= maxBufferSize {
					log.Error(errors.New("Connection: write pump: buffer full, dropping connection!"))
					return
				}
				c.buffer.Add(message)
				continue
			}
			if err := c.flushBuffer(); err != nil {
				return
			}
			if err := c.SendDirectly(message); err != nil {
				return
			}
		case <-pingTicker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			if c.canWrite.Get() {
				if err := c.flushBuffer(); err != nil {
					return
				}
			}
		}
	}
}

func (c *Connection) flushBuffer() error {
	for c.buffer.Length() > 0 {
		if err := c.SendDirectly(c.buffer.Remove().(*websocket.PreparedMessage)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Connection) Send(m *websocket.PreparedMessage) {
	if m == nil {
		return
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return
	}
	select {
	case c.send <- m:
	default:
		log.Warn("Connection: send chan full, dropping message")
	}
}

func (c *Connection) SendDirectly(m *websocket.PreparedMessage) error {
	if m == nil {
		return nil
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return errors.WithMessage(err, "failed to set write deadline")
	}
	if err := c.conn.WritePreparedMessage(m); err != nil {
		return errors.WithMessage(err, "failed to write prepared message")
	}
	return nil
}
