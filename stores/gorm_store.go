package stores

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/ftthdiag/diagchat/models"
)

// gormStore carries the shared query implementation for both database
// backends. The concrete stores only differ in how they connect.
type gormStore struct {
	db     *gorm.DB
	logger *log.Logger
}

func newGormStore() gormStore {
	return gormStore{logger: log.New(os.Stdout, "[STORE] ", log.LstdFlags)}
}

func (s *gormStore) migrate() error {
	if err := s.db.AutoMigrate(&Chat{}, &ChatMessage{}, &Stream{}); err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}
	return nil
}

func storageErr(op string, err error) error {
	return models.NewChatError(models.ErrStorage, "%s: %v", op, err)
}

// GetOrCreateChat creates the chat when absent. An existing chat with a
// different owner fails forbidden; the title and visibility of an existing
// chat are left untouched.
func (s *gormStore) GetOrCreateChat(id, ownerID, title, visibility string) (Chat, error) {
	if s.db == nil {
		return Chat{}, storageErr("get or create chat", errors.New("database connection is nil"))
	}

	var chat Chat
	err := s.db.Where("id = ?", id).First(&chat).Error
	if err == nil {
		if chat.OwnerID != ownerID {
			return Chat{}, models.NewChatError(models.ErrForbidden, "chat %s belongs to another user", id)
		}
		return chat, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Chat{}, storageErr("load chat", err)
	}

	chat = Chat{
		ID:         id,
		OwnerID:    ownerID,
		Title:      title,
		Visibility: visibility,
		CreatedAt:  time.Now(),
	}
	if err := s.db.Create(&chat).Error; err != nil {
		return Chat{}, storageErr("create chat", err)
	}
	s.logger.Printf("Created chat %s for user %s", id, ownerID)
	return chat, nil
}

func (s *gormStore) GetChat(id string) (Chat, error) {
	var chat Chat
	if err := s.db.Where("id = ?", id).First(&chat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Chat{}, models.NewChatError(models.ErrBadRequest, "chat %s not found", id)
		}
		return Chat{}, storageErr("load chat", err)
	}
	return chat, nil
}

func (s *gormStore) ListChatsForUser(ownerID string) ([]Chat, error) {
	var chats []Chat
	if err := s.db.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&chats).Error; err != nil {
		return nil, storageErr("list chats", err)
	}
	return chats, nil
}

// AppendMessages inserts the messages in a single transaction. Marshal
// failures here are programming errors upstream; the sanitizer guarantees
// serializable parts before anything reaches this point.
func (s *gormStore) AppendMessages(msgs []models.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	rows := make([]ChatMessage, 0, len(msgs))
	for _, msg := range msgs {
		partsJSON, err := json.Marshal(msg.Parts)
		if err != nil {
			return storageErr("marshal parts", err)
		}
		attachments := msg.Attachments
		if attachments == nil {
			attachments = []models.Attachment{}
		}
		attachmentsJSON, err := json.Marshal(attachments)
		if err != nil {
			return storageErr("marshal attachments", err)
		}
		createdAt := msg.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		rows = append(rows, ChatMessage{
			ID:              msg.ID,
			ChatID:          msg.ChatID,
			Role:            msg.Role,
			PartsJSON:       string(partsJSON),
			AttachmentsJSON: string(attachmentsJSON),
			CreatedAt:       createdAt,
		})
	}

	tx := s.db.Begin()
	for i := range rows {
		if err := tx.Create(&rows[i]).Error; err != nil {
			tx.Rollback()
			return storageErr("insert message", err)
		}
	}
	if err := tx.Commit().Error; err != nil {
		return storageErr("commit messages", err)
	}
	return nil
}

func (s *gormStore) History(chatID string) ([]models.Message, error) {
	var rows []ChatMessage
	if err := s.db.Where("chat_id = ?", chatID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, storageErr("fetch history", err)
	}

	msgs := make([]models.Message, 0, len(rows))
	for _, row := range rows {
		msg, err := row.ToMessage()
		if err != nil {
			s.logger.Printf("Skipping unreadable message %s: %v", row.ID, err)
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func (s *gormStore) CountMessagesByUser(userID string, window time.Duration) (int, error) {
	var count int64
	since := time.Now().Add(-window)
	err := s.db.Model(&ChatMessage{}).
		Joins("JOIN chats ON chats.id = chat_messages.chat_id").
		Where("chats.owner_id = ? AND chat_messages.role = ? AND chat_messages.created_at > ?",
			userID, models.RoleUser, since).
		Count(&count).Error
	if err != nil {
		return 0, storageErr("count user messages", err)
	}
	return int(count), nil
}

func (s *gormStore) RecordStreamID(streamID, chatID string) error {
	stream := Stream{ID: streamID, ChatID: chatID, CreatedAt: time.Now()}
	if err := s.db.Create(&stream).Error; err != nil {
		return storageErr("record stream id", err)
	}
	return nil
}

func (s *gormStore) LatestStreamID(chatID string) (string, error) {
	var stream Stream
	err := s.db.Where("chat_id = ?", chatID).Order("created_at DESC").First(&stream).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", storageErr("load latest stream id", err)
	}
	return stream.ID, nil
}

func (s *gormStore) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *gormStore) Ping() error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
