package models

// User types recognized by the admission gate.
const (
	UserTypeGuest   = "guest"
	UserTypeRegular = "regular"
)

// Entitlement is the static capability set of one user type.
type Entitlement struct {
	MaxMessagesPerDay int
	ChatModelIDs      []string
}

// EntitlementsByUserType is the static capability map consulted by the
// admission gate. Quotas count user messages over a trailing 24h window.
var EntitlementsByUserType = map[string]Entitlement{
	UserTypeGuest: {
		MaxMessagesPerDay: 20,
		ChatModelIDs:      []string{"chat-model", "chat-model-lite"},
	},
	UserTypeRegular: {
		MaxMessagesPerDay: 100,
		ChatModelIDs:      []string{"chat-model", "chat-model-lite"},
	},
}

// ModelAllowed reports whether the user type may select the given chat
// model id. Unknown user types are allowed nothing.
func ModelAllowed(userType, modelID string) bool {
	ent, ok := EntitlementsByUserType[userType]
	if !ok {
		return false
	}
	for _, id := range ent.ChatModelIDs {
		if id == modelID {
			return true
		}
	}
	return false
}
