package ws

import (
	"chat-relay/domain"
	"chat-relay/services"
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

// client couples one live websocket connection with its sink. The read pump
// decodes inbound frames and dispatches them; the write pump drains the sink
// back to the socket. Separating the two avoids head-of-line blocking when a
// peer is slow.
type client struct {
	identity     string
	conn         *websocket.Conn
	sink         *Sink
	chat         services.IChatService
	log          *slog.Logger
	writeTimeout time.Duration

	// closeCode is sent in the close frame once the sink is released. The
	// handler may change it before closing the sink; the channel close
	// orders that write ahead of the pump's read.
	closeCode int
}

// readPump blocks until the connection dies, then releases the identity's
// presence. Routing errors for individual frames are local: they are logged
// and the connection stays open.
func (c *client) readPump(ctx context.Context) {
	defer func() {
		// Background context: the request context may already be gone,
		// but presence must still be released promptly.
		if err := c.chat.Release(context.Background(), c.identity, c.sink); err != nil {
			c.log.Error("Releasing presence failed", "identity", c.identity, "error", err)
		}
		c.sink.Close()
		_ = c.conn.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.log.Debug("Connection closed", "identity", c.identity, "error", err)
			return
		}
		c.dispatch(ctx, data)
	}
}

func (c *client) dispatch(ctx context.Context, data []byte) {
	frame, err := decodeInbound(data)
	if err != nil {
		c.log.Warn("Dropping malformed frame", "identity", c.identity, "error", err)
		return
	}

	switch frame.Type {
	case domain.FrameDirect:
		if err := c.chat.SendDirect(ctx, c.identity, frame.Recipient, frame.Text); err != nil {
			c.log.Warn("Direct message rejected", "sender", c.identity, "error", err)
		}
	case domain.FrameGroup:
		if err := c.chat.SendGroup(ctx, c.identity, frame.Group, frame.Text); err != nil {
			c.log.Warn("Group message rejected", "sender", c.identity, "error", err)
		}
	default:
		c.log.Warn("Dropping frame with unknown type", "identity", c.identity, "type", frame.Type)
	}
}

// writePump drains the sink until it is released, then sends a close frame.
func (c *client) writePump() {
	defer func() { _ = c.conn.Close() }()

	for frame := range c.sink.Frames() {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
		if err := c.conn.WriteJSON(frame); err != nil {
			c.log.Debug("Write failed", "identity", c.identity, "error", err)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(c.closeCode, ""),
		time.Now().Add(c.writeTimeout))
}
