package stores

import (
	"fmt"
)

// NewStore creates a conversation store based on the configuration.
func NewStore(config *StoreConfig) (ConversationStore, error) {
	switch config.Type {
	case "sqlite":
		return NewSQLiteStore(config)
	case "postgres":
		return NewPostgresStore(config)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Type)
	}
}

// NewStoreDefault creates a SQLite store with default settings.
func NewStoreDefault() (ConversationStore, error) {
	return NewSQLiteStoreSimple("diagchat.sqlite")
}
