package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

const writeWait = 5 * time.Second

// handleWS streams the current frame followed by every update until the
// client goes away or the sink is closed.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer c.Close(websocket.StatusInternalError, "stream ended")

	id, updates := s.frames.Subscribe()
	defer s.frames.Unsubscribe(id)

	// Reads are only needed to notice the client closing.
	ctx := c.CloseRead(r.Context())

	frame := s.frames.Frame()
	if err := writeJSON(ctx, c, Message{Kind: KindFrame, Frame: &frame}); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-updates:
			if !ok {
				c.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if err := writeJSON(ctx, c, msg); err != nil {
				s.log.Debug().Err(err).Msg("websocket write failed")
				return
			}
		}
	}
}

func writeJSON(ctx context.Context, c *websocket.Conn, v any) error {
	js, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return writeTimeout(ctx, writeWait, c, js)
}

func writeTimeout(ctx context.Context, timeout time.Duration, c *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return c.Write(ctx, websocket.MessageText, msg)
}
