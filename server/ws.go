package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ftthdiag/diagchat/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebSocket mirrors the resume endpoint over a WebSocket: the
// chat's most recent stream is replayed and followed live, one JSON
// event per message. The socket closes after the terminal event.
func (s *Server) handleWebSocket(c *gin.Context) {
	session, err := s.Auth.Authenticate(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	chat, err := s.authorizeChatAccess(c.Param("chatID"), session)
	if err != nil {
		s.fail(c, err)
		return
	}
	if s.Registry == nil {
		s.fail(c, models.NewChatError(models.ErrBadRequest, "stream resumption is not enabled"))
		return
	}

	streamID, err := s.Store.LatestStreamID(chat.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if streamID == "" {
		s.fail(c, models.NewChatError(models.ErrBadRequest, "chat %s has no stream to follow", chat.ID))
		return
	}
	buffered, err := s.Registry.Buffered(c.Request.Context(), streamID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if buffered == 0 {
		s.fail(c, models.NewChatError(models.ErrBadRequest, "chat %s has no stream to follow", chat.ID))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	events, cancel, err := s.Registry.Subscribe(ctx, streamID)
	if err != nil {
		s.Logger.Printf("Could not subscribe to stream %s: %v", streamID, err)
		return
	}
	defer cancel()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
