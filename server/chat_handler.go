package server

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ftthdiag/diagchat/engine"
	"github.com/ftthdiag/diagchat/models"
	"github.com/ftthdiag/diagchat/stores"
)

// handleChat runs the full pipeline for one user message: admission,
// conversation bootstrap, persistence, generation and streaming. The
// generation itself is detached from the request; disconnecting mid-run
// leaves the run going and its events buffered for resumption.
func (s *Server) handleChat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, models.NewChatError(models.ErrBadRequest, "invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(c, err)
		return
	}

	session, err := s.Auth.Authenticate(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.Gate.Admit(session, req.SelectedModel); err != nil {
		s.fail(c, err)
		return
	}

	userText := (models.Message{Parts: req.Message.Parts}).TextContent()

	title, err := s.titleForChat(c.Request.Context(), req.ID, userText)
	if err != nil {
		s.fail(c, err)
		return
	}
	chat, err := s.Store.GetOrCreateChat(req.ID, session.UserID, title, req.Visibility)
	if err != nil {
		s.fail(c, err)
		return
	}

	history, err := s.Store.History(chat.ID)
	if err != nil {
		s.fail(c, err)
		return
	}

	// A retried request carries the same message id; the message is
	// persisted once and the retry just starts a fresh run over it.
	if !containsMessage(history, req.Message.ID) {
		parts, attachments := stores.SanitizeParts(req.Message.Parts, req.Message.Attachments)
		userMsg := models.Message{
			ID:          req.Message.ID,
			ChatID:      chat.ID,
			Role:        models.RoleUser,
			Parts:       parts,
			Attachments: attachments,
			CreatedAt:   time.Now(),
		}
		if err := s.Store.AppendMessages([]models.Message{userMsg}); err != nil {
			s.fail(c, err)
			return
		}
		history = append(history, userMsg)
	}

	streamID := uuid.NewString()
	if err := s.Store.RecordStreamID(streamID, chat.ID); err != nil {
		s.fail(c, err)
		return
	}

	eng := engine.New(s.Model, models.ChatModels[req.SelectedModel], SystemPrompt, s.Adapters)
	eng.Logger = s.Logger
	if s.MaxSteps > 0 {
		eng.MaxSteps = s.MaxSteps
	}
	if s.MaxDuration > 0 {
		eng.MaxDuration = s.MaxDuration
	}

	events := eng.Run(stores.SanitizeHistory(history), s.persistAssistantMessage(chat.ID))

	writer := newSSEWriter(c)
	s.pumpEvents(c, streamID, events, writer)
}

// pumpEvents forwards run events to the registry and the client. The
// run's events are always consumed to the end: a client that goes away
// stops receiving, but buffering for resumption continues.
func (s *Server) pumpEvents(c *gin.Context, streamID string, events <-chan models.Event, writer *sseWriter) {
	clientGone := c.Request.Context().Done()
	clientAlive := true

	for ev := range events {
		if s.Registry != nil {
			if err := s.Registry.Publish(context.Background(), streamID, ev); err != nil {
				s.Logger.Printf("Could not buffer event for stream %s: %v", streamID, err)
			}
		}
		if clientAlive {
			select {
			case <-clientGone:
				clientAlive = false
				s.Logger.Printf("Client left stream %s, continuing run detached", streamID)
			default:
				if err := writer.WriteEvent(ev); err != nil {
					clientAlive = false
				}
			}
		}
	}
}

// persistAssistantMessage is the run finish hook: it sanitizes the
// assembled parts and appends the assistant message.
func (s *Server) persistAssistantMessage(chatID string) func(parts []models.Part) error {
	return func(parts []models.Part) error {
		clean, _ := stores.SanitizeParts(parts, nil)
		return s.Store.AppendMessages([]models.Message{{
			ID:        uuid.NewString(),
			ChatID:    chatID,
			Role:      models.RoleAssistant,
			Parts:     clean,
			CreatedAt: time.Now(),
		}})
	}
}

// titleForChat generates a title only when the chat does not exist yet.
// Title generation is best effort; failures fall back to the message
// text.
func (s *Server) titleForChat(ctx context.Context, chatID, userText string) (string, error) {
	_, err := s.Store.GetChat(chatID)
	if err == nil {
		return "", nil
	}
	ce := models.AsChatError(err)
	if ce.Code != models.ErrBadRequest {
		return "", err
	}

	if s.Titler != nil {
		titleCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if title, err := s.Titler.Title(titleCtx, userText); err == nil {
			return title, nil
		} else {
			s.Logger.Printf("Title generation failed, using fallback: %v", err)
		}
	}
	return FallbackTitle(userText), nil
}

func containsMessage(history []models.Message, messageID string) bool {
	for _, msg := range history {
		if msg.ID == messageID {
			return true
		}
	}
	return false
}
