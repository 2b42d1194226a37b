package socket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/bullsgame/internal/api/apierr"
	"github.com/mcoot/bullsgame/internal/model"
)

var errConnClosed = errors.New("connection closed")

// Conn is one websocket client. It is the room's broadcast subscriber
// for that client, and its handler processes the client's requests one
// at a time.
//
// Only the write pump writes to the websocket, so replies and
// broadcasts are queued on the same send channel and reach the client
// in the order they were queued.
type Conn struct {
	id      string
	ws      *websocket.Conn
	config  Config
	handler *Handler
	logger  *slog.Logger

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// Deliver queues a broadcast without blocking. A full queue means the
// client is not keeping up, and the caller evicts it.
func (c *Conn) Deliver(snapshot model.Snapshot) error {
	data, err := json.Marshal(Present{Type: TypePresent, Payload: snapshot})
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return errConnClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		return model.ErrSlowConsumer
	}
}

// Close shuts the connection down. The read pump then sees the transport
// fail and runs the disconnect cleanup.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// ID returns the connection id used in logs
func (c *Conn) ID() string {
	return c.id
}

func (c *Conn) reply(r Reply) {
	data, err := json.Marshal(r)
	if err != nil {
		c.logger.Error("failed to encode reply", slog.Any("error", err))
		return
	}
	select {
	case c.send <- data:
	case <-c.done:
	}
}

// readPump reads requests until the transport fails, then disconnects
// the handler
func (c *Conn) readPump(ctx context.Context) {
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.config.RequestTimeout)
		defer cancel()
		c.handler.Disconnect(cleanupCtx)
		c.Close()
		_ = c.ws.Close()
		c.logger.Info("connection closed")
	}()

	c.ws.SetReadLimit(c.config.MaxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.config.PongWait))
	})

	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read failed", slog.Any("error", err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			c.reply(errorReply(0, model.Snapshot{}, apierr.NewInvalidRequestError("malformed message: "+err.Error())))
			continue
		}

		reqCtx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
		reply := c.handler.Handle(reqCtx, req)
		cancel()

		c.reply(reply)
	}
}

// writePump writes queued messages and keeps the connection alive with
// pings until the connection is closed
func (c *Conn) writePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("websocket write failed", slog.Any("error", err))
				c.Close()
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}

		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(time.Second))
			_ = c.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
