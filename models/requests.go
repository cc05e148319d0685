package models

import "strings"

// ChatModels maps the client-facing model ids to the underlying Gemini
// model names. Selection between them is configuration, not logic.
var ChatModels = map[string]string{
	"chat-model":      "gemini-2.5-flash",
	"chat-model-lite": "gemini-2.5-flash-lite",
}

// DefaultChatModel is used when the request omits a selection.
const DefaultChatModel = "chat-model"

// ChatRequest is the POST /api/chat body.
type ChatRequest struct {
	ID            string          `json:"id"`
	Message       IncomingMessage `json:"message"`
	SelectedModel string          `json:"selectedChatModel"`
	Visibility    string          `json:"selectedVisibilityType"`
}

// IncomingMessage is the client-authored user message of a chat request.
type IncomingMessage struct {
	ID          string       `json:"id"`
	Role        string       `json:"role"`
	Parts       []Part       `json:"parts"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Validate checks structural requirements that fail fast with bad_request
// before any side effect.
func (r *ChatRequest) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return NewChatError(ErrBadRequest, "chat id is required")
	}
	if strings.TrimSpace(r.Message.ID) == "" {
		return NewChatError(ErrBadRequest, "message id is required")
	}
	if r.Message.Role != RoleUser {
		return NewChatError(ErrBadRequest, "message role must be %q", RoleUser)
	}
	if len(r.Message.Parts) == 0 {
		return NewChatError(ErrBadRequest, "message must contain at least one part")
	}
	if r.SelectedModel == "" {
		r.SelectedModel = DefaultChatModel
	}
	if _, ok := ChatModels[r.SelectedModel]; !ok {
		return NewChatError(ErrBadRequest, "unknown chat model %q", r.SelectedModel)
	}
	switch r.Visibility {
	case "":
		r.Visibility = VisibilityPrivate
	case VisibilityPrivate, VisibilityPublic:
	default:
		return NewChatError(ErrBadRequest, "invalid visibility %q", r.Visibility)
	}
	return nil
}
