package models

import "time"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Part types. A persisted message is an ordered sequence of typed parts.
const (
	PartText       = "text"
	PartReasoning  = "reasoning"
	PartToolCall   = "tool-call"
	PartToolResult = "tool-result"
)

// Chat visibility.
const (
	VisibilityPrivate = "private"
	VisibilityPublic  = "public"
)

// PlaceholderText substitutes the body of an assistant message whose parts
// were all dropped during sanitization. A message is never persisted with
// zero parts.
const PlaceholderText = "Respuesta del asistente"

// Part is one content fragment of a message. Exactly one of the payload
// fields is set, selected by Type.
type Part struct {
	Type string `json:"type"`

	// Text payload for "text" and "reasoning" parts.
	Text string `json:"text,omitempty"`

	// Tool payloads.
	ToolCall   *ToolCall   `json:"toolCall,omitempty"`
	ToolResult *ToolResult `json:"toolResult,omitempty"`
}

// ToolCall is a model-requested invocation of one adapter.
type ToolCall struct {
	ID   string                 `json:"id"`
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

// ToolResult carries the adapter output, or an error payload when the
// adapter failed. Errors here are data, not protocol failures.
type ToolResult struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Attachment references a file the user attached to a message. Upload
// itself happens elsewhere; only the reference is persisted.
type Attachment struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
}

// Message is the persisted unit of a conversation. Messages are append-only
// and never mutated after they are saved.
type Message struct {
	ID          string       `json:"id"`
	ChatID      string       `json:"chatId"`
	Role        string       `json:"role"`
	Parts       []Part       `json:"parts"`
	Attachments []Attachment `json:"attachments"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// TextContent concatenates the text parts of a message. Reasoning and tool
// parts are skipped.
func (m Message) TextContent() string {
	out := ""
	for _, p := range m.Parts {
		if p.Type == PartText {
			out += p.Text
		}
	}
	return out
}

// NewTextPart is a convenience constructor for plain text parts.
func NewTextPart(text string) Part {
	return Part{Type: PartText, Text: text}
}
