package stores

import (
	"testing"

	"github.com/ftthdiag/diagchat/models"
)

func userMsg(id, text string) models.Message {
	return models.Message{ID: id, Role: models.RoleUser, Parts: []models.Part{models.NewTextPart(text)}}
}

func assistantMsg(id string, parts ...models.Part) models.Message {
	return models.Message{ID: id, Role: models.RoleAssistant, Parts: parts}
}

func TestSanitizeHistory_Empty(t *testing.T) {
	if got := SanitizeHistory(nil); len(got) != 0 {
		t.Errorf("Expected empty result, got %d messages", len(got))
	}
}

func TestSanitizeHistory_ValidHistoryUntouched(t *testing.T) {
	msgs := []models.Message{
		userMsg("u1", "hola"),
		assistantMsg("a1",
			models.Part{Type: models.PartToolCall, ToolCall: &models.ToolCall{ID: "c1", Name: "getHostDetails"}},
			models.Part{Type: models.PartToolResult, ToolResult: &models.ToolResult{ID: "c1", Name: "getHostDetails", Output: "ok"}},
			models.NewTextPart("done"),
		),
	}
	got := SanitizeHistory(msgs)
	if len(got) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(got))
	}
	if len(got[1].Parts) != 3 {
		t.Errorf("Expected assistant parts untouched, got %d", len(got[1].Parts))
	}
}

func TestSanitizeHistory_SkipsLeadingAssistant(t *testing.T) {
	msgs := []models.Message{
		assistantMsg("a0", models.NewTextPart("orphaned")),
		userMsg("u1", "hola"),
		assistantMsg("a1", models.NewTextPart("respuesta")),
	}
	got := SanitizeHistory(msgs)
	if len(got) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(got))
	}
	if got[0].Role != models.RoleUser {
		t.Errorf("Expected history to start with a user message, got %s", got[0].Role)
	}
}

func TestSanitizeHistory_NoUserMessage(t *testing.T) {
	msgs := []models.Message{assistantMsg("a1", models.NewTextPart("alone"))}
	if got := SanitizeHistory(msgs); len(got) != 0 {
		t.Errorf("Expected empty context, got %d messages", len(got))
	}
}

func TestSanitizeHistory_RemovesUnresolvedToolCall(t *testing.T) {
	msgs := []models.Message{
		userMsg("u1", "estado del host FHTT12345678"),
		assistantMsg("a1",
			models.Part{Type: models.PartToolCall, ToolCall: &models.ToolCall{ID: "c1", Name: "getHostDetails"}},
			models.NewTextPart("buscando"),
		),
	}
	got := SanitizeHistory(msgs)
	if len(got) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(got))
	}
	for _, p := range got[1].Parts {
		if p.Type == models.PartToolCall {
			t.Errorf("Unresolved tool call should have been removed")
		}
	}
}

func TestSanitizeHistory_RemovesOrphanedToolResult(t *testing.T) {
	msgs := []models.Message{
		userMsg("u1", "hola"),
		assistantMsg("a1",
			models.Part{Type: models.PartToolResult, ToolResult: &models.ToolResult{ID: "c9", Name: "problem_get", Output: "{}"}},
		),
	}
	got := SanitizeHistory(msgs)
	// The assistant message loses its only part and is dropped entirely.
	if len(got) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(got))
	}
	if got[0].ID != "u1" {
		t.Errorf("Expected only the user message to survive, got %s", got[0].ID)
	}
}
