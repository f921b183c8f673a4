package ws

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"stowroom/domain"
	"stowroom/errors"
)

// Conn wraps a gorilla websocket connection behind the contract.Conn
// abstraction. The metadata slot is the connection-attached payload the
// coordinator relies on instead of any map it owns; it is set exactly once
// at admission.
type Conn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration

	// gorilla allows a single concurrent writer; the coordinator may write
	// from a message handler while the transport writes a close frame.
	writeMu sync.Mutex
	meta    atomic.Pointer[domain.ConnectionMetadata]
	closed  atomic.Bool
}

func NewConn(ws *websocket.Conn, writeTimeout time.Duration) *Conn {
	return &Conn{ws: ws, writeTimeout: writeTimeout}
}

func (c *Conn) Attach(meta domain.ConnectionMetadata) error {
	if !c.meta.CompareAndSwap(nil, &meta) {
		return errors.ErrMetadataAttached
	}
	return nil
}

func (c *Conn) Metadata() (domain.ConnectionMetadata, bool) {
	meta := c.meta.Load()
	if meta == nil {
		return domain.ConnectionMetadata{}, false
	}
	return *meta, true
}

func (c *Conn) Write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Close sends a close frame with the given status code and reason, then
// tears down the underlying connection. Safe to call more than once.
func (c *Conn) Close(code int, reason string) error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.writeMu.Lock()
	deadline := time.Now().Add(c.writeTimeout)
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), deadline)
	c.writeMu.Unlock()
	return c.ws.Close()
}
