package stores

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ftthdiag/diagchat/models"
)

// Chat holds metadata for one conversation. The id is opaque and supplied
// by the client on the first message; the owner never changes afterwards.
type Chat struct {
	ID         string `gorm:"primaryKey"`
	OwnerID    string `gorm:"index;not null"`
	Title      string `gorm:"type:text"`
	Visibility string `gorm:"not null;default:private"`
	CreatedAt  time.Time
}

// ChatMessage is the persisted form of a message. Parts and attachments are
// stored as JSON arrays; rows are append-only and never updated in place.
type ChatMessage struct {
	ID              string    `gorm:"primaryKey"`
	ChatID          string    `gorm:"index;not null"`
	Role            string    `gorm:"not null"`
	PartsJSON       string    `gorm:"type:json"`
	AttachmentsJSON string    `gorm:"type:json"`
	CreatedAt       time.Time `gorm:"index"`
}

// Stream correlates a generation run with its chat so a later request can
// reattach to the run's event stream. Streams are never deleted; one goes
// stale as soon as the chat advances past it.
type Stream struct {
	ID        string `gorm:"primaryKey"`
	ChatID    string `gorm:"index;not null"`
	CreatedAt time.Time
}

// ToMessage unmarshals the stored JSON columns back into the wire shape.
func (m ChatMessage) ToMessage() (models.Message, error) {
	msg := models.Message{
		ID:        m.ID,
		ChatID:    m.ChatID,
		Role:      m.Role,
		CreatedAt: m.CreatedAt,
	}
	if m.PartsJSON != "" && m.PartsJSON != "null" {
		if err := json.Unmarshal([]byte(m.PartsJSON), &msg.Parts); err != nil {
			return models.Message{}, fmt.Errorf("failed to unmarshal parts for message %s: %w", m.ID, err)
		}
	}
	if m.AttachmentsJSON != "" && m.AttachmentsJSON != "null" {
		if err := json.Unmarshal([]byte(m.AttachmentsJSON), &msg.Attachments); err != nil {
			return models.Message{}, fmt.Errorf("failed to unmarshal attachments for message %s: %w", m.ID, err)
		}
	}
	return msg, nil
}

// ConversationStore abstracts persistence for chats, messages and stream
// ids. All I/O failures surface as storage_error; retries are the
// caller's infrastructure concern, not this layer's.
type ConversationStore interface {
	// GetOrCreateChat creates the chat on first contact. When the chat
	// already exists the owner must match or the call fails forbidden.
	GetOrCreateChat(id, ownerID, title, visibility string) (Chat, error)
	GetChat(id string) (Chat, error)
	ListChatsForUser(ownerID string) ([]Chat, error)

	// AppendMessages inserts messages append-only. The caller guarantees
	// every id is fresh.
	AppendMessages(msgs []models.Message) error

	// History returns the chat's messages ordered by creation time
	// ascending.
	History(chatID string) ([]models.Message, error)

	// CountMessagesByUser counts user-authored messages across the user's
	// chats within the trailing window. Used by the admission gate.
	CountMessagesByUser(userID string, window time.Duration) (int, error)

	RecordStreamID(streamID, chatID string) error
	// LatestStreamID returns "" without error when the chat has no stream.
	LatestStreamID(chatID string) (string, error)

	Connect() error
	Close() error
	Ping() error
}

// StoreConfig selects and configures a ConversationStore implementation.
type StoreConfig struct {
	Type       string `json:"type"`       // "sqlite" or "postgres"
	Connection string `json:"connection"` // file path or DSN
}

// NewStoreConfig creates a new store configuration.
func NewStoreConfig(storeType, connection string) *StoreConfig {
	return &StoreConfig{Type: storeType, Connection: connection}
}
