package server

import (
	"time"

	"github.com/ftthdiag/diagchat/models"
	"github.com/ftthdiag/diagchat/stores"
)

// DefaultQuotaWindow is the trailing window over which daily message
// quotas are counted.
const DefaultQuotaWindow = 24 * time.Hour

// Gate is the admission control in front of generation. It checks the
// caller's entitlements and message quota before any side effect.
type Gate struct {
	Store  stores.ConversationStore
	Window time.Duration
}

func NewGate(store stores.ConversationStore) *Gate {
	return &Gate{Store: store, Window: DefaultQuotaWindow}
}

// Admit fails forbidden when the model is outside the caller's
// entitlements and rate_limit when the quota is spent. A request at
// exactly the quota boundary is rejected; the message that reached the
// limit was the last admitted one.
func (g *Gate) Admit(session Session, modelID string) error {
	ent, ok := models.EntitlementsByUserType[session.UserType]
	if !ok {
		return models.NewChatError(models.ErrForbidden, "user type %q has no entitlements", session.UserType)
	}
	if !models.ModelAllowed(session.UserType, modelID) {
		return models.NewChatError(models.ErrForbidden, "model %q is not available to %s users", modelID, session.UserType)
	}

	count, err := g.Store.CountMessagesByUser(session.UserID, g.Window)
	if err != nil {
		return err
	}
	if count >= ent.MaxMessagesPerDay {
		return models.NewChatError(models.ErrRateLimit, "message quota of %d per day exhausted", ent.MaxMessagesPerDay)
	}
	return nil
}
