package models

// Event types emitted by a generation run, in the order they can occur
// within a step. Every run ends with exactly one terminal event, either
// "finish" or "error".
const (
	EventTextDelta      = "text-delta"
	EventReasoningDelta = "reasoning-delta"
	EventToolCall       = "tool-call"
	EventToolResult     = "tool-result"
	EventError          = "error"
	EventFinish         = "finish"
)

// Finish reasons carried on the terminal "finish" event.
const (
	FinishStop     = "stop"
	FinishMaxSteps = "max-steps"
)

// Event is one element of a run's ordered event stream. The stream is
// what the HTTP handler writes to the client and what the resumable
// registry buffers for late subscribers.
type Event struct {
	Type string `json:"type"`

	// Delta text for text-delta / reasoning-delta events.
	Delta string `json:"delta,omitempty"`

	ToolCall   *ToolCall   `json:"toolCall,omitempty"`
	ToolResult *ToolResult `json:"toolResult,omitempty"`

	// Terminal payloads.
	FinishReason string `json:"finishReason,omitempty"`
	ErrorCode    string `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// Terminal reports whether the event ends its stream.
func (e Event) Terminal() bool {
	return e.Type == EventFinish || e.Type == EventError
}
