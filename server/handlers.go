package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleResume reattaches a client to the chat's most recent generation
// stream. The full event sequence is replayed from the start, then the
// stream is followed live until its terminal event. 204 means there is
// nothing to resume.
func (s *Server) handleResume(c *gin.Context) {
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
		c.Status(http.StatusNoContent)
		return
	}
	streamID, err := s.Store.LatestStreamID(chat.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if streamID == "" {
		c.Status(http.StatusNoContent)
		return
	}

	// A swept buffer leaves nothing to replay; treat it like the
	// no-stream case instead of waiting on an empty subscription.
	buffered, err := s.Registry.Buffered(c.Request.Context(), streamID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if buffered == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	ctx := c.Request.Context()
	events, cancel, err := s.Registry.Subscribe(ctx, streamID)
	if err != nil {
		s.fail(c, err)
		return
	}
	defer cancel()

	writer := newSSEWriter(c)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writer.WriteEvent(ev); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) handleMessages(c *gin.Context) {
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

	messages, err := s.Store.History(chat.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chatId": chat.ID, "messages": messages})
}

func (s *Server) handleChats(c *gin.Context) {
	session, err := s.Auth.Authenticate(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	chats, err := s.Store.ListChatsForUser(session.UserID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": chats})
}
