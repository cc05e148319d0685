package models

// FunctionDeclaration describes one tool to the model, as a JSON Schema
// parameter object plus name and description.
type FunctionDeclaration struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  Parameters `json:"parameters"`
}

// Parameters is the JSON Schema for a tool's arguments.
type Parameters struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Required   []string               `json:"required,omitempty"`
}

// StepRequest is the input to one model-generation step: the system prompt,
// the accumulated conversation context, and the tools the model may call.
// Tools is nil on a forced final step.
type StepRequest struct {
	Model        string
	SystemPrompt string
	Messages     []Message
	Tools        []FunctionDeclaration
}

// StepChunk is one streamed fragment of a model step. Exactly one field is
// set. Tool calls are collected by the caller and dispatched after the
// step's stream ends.
type StepChunk struct {
	TextDelta      string
	ReasoningDelta string
	ToolCall       *ToolCall
}
