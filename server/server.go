// Package server exposes the chat pipeline over HTTP: a streaming chat
// endpoint, a resume endpoint for reattaching to in-flight runs, chat and
// message listings, and a WebSocket mirror of the resume surface.
package server

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ftthdiag/diagchat/adapters"
	"github.com/ftthdiag/diagchat/engine"
	"github.com/ftthdiag/diagchat/models"
	"github.com/ftthdiag/diagchat/stores"
	"github.com/ftthdiag/diagchat/streams"
)

// Server wires the pipeline's components behind the HTTP surface.
// Registry and Titler may be nil: without a registry streams are not
// resumable, without a titler chats get a fallback title.
type Server struct {
	Store    stores.ConversationStore
	Registry *streams.Registry
	Model    engine.ModelClient
	Adapters adapters.Map
	Auth     Authenticator
	Gate     *Gate
	Titler   Titler

	MaxSteps    int
	MaxDuration time.Duration

	Logger *log.Logger
}

func New(store stores.ConversationStore, registry *streams.Registry, model engine.ModelClient, adapterMap adapters.Map) *Server {
	return &Server{
		Store:    store,
		Registry: registry,
		Model:    model,
		Adapters: adapterMap,
		Auth:     HeaderAuthenticator{},
		Gate:     NewGate(store),
		Logger:   log.New(os.Stdout, "[SERVER] ", log.LstdFlags),
	}
}

// Routes registers all endpoints on the router.
func (s *Server) Routes(router *gin.Engine) {
	api := router.Group("/api")
	api.POST("/chat", s.handleChat)
	api.GET("/chat/:chatID/stream", s.handleResume)
	api.GET("/chat/:chatID/messages", s.handleMessages)
	api.GET("/chats", s.handleChats)

	router.GET("/ws/chat/:chatID", s.handleWebSocket)

	router.GET("/health", func(c *gin.Context) {
		if err := s.Store.Ping(); err != nil {
			c.JSON(503, gin.H{"status": "degraded", "error": "store unreachable"})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})
}

// fail writes a classified error response. Raw error details of internal
// failures stay in the logs.
func (s *Server) fail(c *gin.Context, err error) {
	ce := models.AsChatError(err)
	if ce.Code == models.ErrInternal || ce.Code == models.ErrStorage {
		s.Logger.Printf("Request failed: %v", err)
	}
	c.JSON(ce.HTTPStatus(), gin.H{"code": ce.Code, "error": ce.Message})
}

// authorizeChatAccess loads the chat and checks that the session may read
// it. Private chats are owner-only; public chats are readable by any
// authenticated user.
func (s *Server) authorizeChatAccess(chatID string, session Session) (stores.Chat, error) {
	chat, err := s.Store.GetChat(chatID)
	if err != nil {
		return stores.Chat{}, err
	}
	if chat.Visibility == models.VisibilityPrivate && chat.OwnerID != session.UserID {
		return stores.Chat{}, models.NewChatError(models.ErrForbidden, "chat %s belongs to another user", chatID)
	}
	return chat, nil
}
