package stores

import (
	"log"

	"github.com/ftthdiag/diagchat/models"
)

// SanitizeHistory ensures a loaded history has a valid turn structure
// before it is handed to the model as context. Two problems show up in
// practice:
//
//  1. Truncated or partially saved runs leave assistant messages whose
//     tool-call parts have no matching tool-result, which model APIs
//     reject.
//  2. A history that does not open with a user message (the system prompt
//     travels separately, so the first context turn must be the user's).
//
// Messages that end up with zero usable parts are dropped entirely.
func SanitizeHistory(msgs []models.Message) []models.Message {
	if len(msgs) == 0 {
		return msgs
	}

	startIdx := -1
	for i, msg := range msgs {
		if msg.Role == models.RoleUser {
			startIdx = i
			break
		}
	}
	if startIdx == -1 {
		log.Printf("[HISTORY_SANITIZER] No user message in history, returning empty context")
		return []models.Message{}
	}
	if startIdx > 0 {
		log.Printf("[HISTORY_SANITIZER] Skipping %d leading messages to reach a user turn", startIdx)
		msgs = msgs[startIdx:]
	}

	result := make([]models.Message, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Role == models.RoleAssistant {
			msg.Parts = repairToolCycle(msg.ID, msg.Parts)
		}
		if len(msg.Parts) == 0 {
			log.Printf("[HISTORY_SANITIZER] Dropping message %s with no usable parts", msg.ID)
			continue
		}
		result = append(result, msg)
	}
	return result
}

// repairToolCycle removes tool-call parts that never received a result and
// tool-result parts that answer no call. Pairing is by tool call id, with
// a name fallback for rows written before ids were recorded.
func repairToolCycle(msgID string, parts []models.Part) []models.Part {
	resolved := map[string]bool{}
	called := map[string]bool{}
	for _, p := range parts {
		switch p.Type {
		case models.PartToolCall:
			called[toolKey(p.ToolCall.ID, p.ToolCall.Name)] = true
		case models.PartToolResult:
			resolved[toolKey(p.ToolResult.ID, p.ToolResult.Name)] = true
		}
	}

	result := make([]models.Part, 0, len(parts))
	for _, p := range parts {
		switch p.Type {
		case models.PartToolCall:
			if !resolved[toolKey(p.ToolCall.ID, p.ToolCall.Name)] {
				log.Printf("[HISTORY_SANITIZER] Removing unresolved tool call %s in message %s", p.ToolCall.Name, msgID)
				continue
			}
		case models.PartToolResult:
			if !called[toolKey(p.ToolResult.ID, p.ToolResult.Name)] {
				log.Printf("[HISTORY_SANITIZER] Removing orphaned tool result %s in message %s", p.ToolResult.Name, msgID)
				continue
			}
		}
		result = append(result, p)
	}
	return result
}

func toolKey(id, name string) string {
	if id != "" {
		return id
	}
	return "name:" + name
}
