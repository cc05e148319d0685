package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ftthdiag/diagchat/models"
)

func testClient(serverURL string) *Client {
	c := NewClient("test-key")
	c.BaseURL = serverURL
	return c
}

func stepRequest(text string) models.StepRequest {
	return models.StepRequest{
		Model:        "gemini-2.5-flash",
		SystemPrompt: "Eres un asistente.",
		Messages: []models.Message{
			{Role: models.RoleUser, Parts: []models.Part{models.NewTextPart(text)}},
		},
	}
}

func collectChunks(t *testing.T, chunkChan <-chan models.StepChunk, errChan <-chan error) []models.StepChunk {
	t.Helper()
	var chunks []models.StepChunk
	for chunkChan != nil || errChan != nil {
		select {
		case c, ok := <-chunkChan:
			if !ok {
				chunkChan = nil
				continue
			}
			chunks = append(chunks, c)
		case err, ok := <-errChan:
			if !ok {
				errChan = nil
				continue
			}
			if err != nil {
				t.Fatalf("Unexpected stream error: %v", err)
			}
		}
	}
	return chunks
}

func TestStreamStepText(t *testing.T) {
	var gotBody requestBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Errorf("Request body not decodable: %v", err)
		}
		io.WriteString(w, `[
			{"candidates":[{"content":{"role":"model","parts":[{"text":"Hola, "}]}}]},
			{"candidates":[{"content":{"role":"model","parts":[{"text":"¿cómo estás?"}]},"finishReason":"STOP"}]}
		]`)
	}))
	defer server.Close()

	chunkChan, errChan := testClient(server.URL).StreamStep(context.Background(), stepRequest("hola"))
	chunks := collectChunks(t, chunkChan, errChan)

	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d: %+v", len(chunks), chunks)
	}
	if chunks[0].TextDelta != "Hola, " || chunks[1].TextDelta != "¿cómo estás?" {
		t.Errorf("Wrong deltas: %+v", chunks)
	}
	if gotBody.SystemInstruction == nil || gotBody.SystemInstruction.Parts[0].Text != "Eres un asistente." {
		t.Errorf("System instruction not sent: %+v", gotBody.SystemInstruction)
	}
	if len(gotBody.Contents) != 1 || gotBody.Contents[0].Role != "user" {
		t.Errorf("Wrong contents: %+v", gotBody.Contents)
	}
}

func TestStreamStepFunctionCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[
			{"candidates":[{"content":{"role":"model","parts":[{"functionCall":{"name":"getHostDetails","args":{"hostname":"olt-caracas-01"}}}]}}]}
		]`)
	}))
	defer server.Close()

	req := stepRequest("revisa el OLT")
	req.Tools = []models.FunctionDeclaration{{Name: "getHostDetails", Description: "Busca un host"}}

	chunkChan, errChan := testClient(server.URL).StreamStep(context.Background(), req)
	chunks := collectChunks(t, chunkChan, errChan)

	if len(chunks) != 1 || chunks[0].ToolCall == nil {
		t.Fatalf("Expected one tool-call chunk, got %+v", chunks)
	}
	call := chunks[0].ToolCall
	if call.Name != "getHostDetails" || call.Args["hostname"] != "olt-caracas-01" {
		t.Errorf("Wrong call: %+v", call)
	}
}

func TestStreamStepThoughtBecomesReasoning(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[
			{"candidates":[{"content":{"role":"model","parts":[{"text":"analizando","thought":true},{"text":"respuesta"}]}}]}
		]`)
	}))
	defer server.Close()

	chunkChan, errChan := testClient(server.URL).StreamStep(context.Background(), stepRequest("hola"))
	chunks := collectChunks(t, chunkChan, errChan)

	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %+v", chunks)
	}
	if chunks[0].ReasoningDelta != "analizando" || chunks[1].TextDelta != "respuesta" {
		t.Errorf("Thought part not split from text: %+v", chunks)
	}
}

func TestStreamStepErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	chunkChan, errChan := testClient(server.URL).StreamStep(context.Background(), stepRequest("hola"))

	var streamErr error
	for chunkChan != nil || errChan != nil {
		select {
		case _, ok := <-chunkChan:
			if !ok {
				chunkChan = nil
			}
		case err, ok := <-errChan:
			if !ok {
				errChan = nil
				continue
			}
			streamErr = err
		}
	}
	if streamErr == nil {
		t.Fatal("Expected an error from a 429 response")
	}
}

func TestToContentsToolExchange(t *testing.T) {
	messages := []models.Message{
		{Role: models.RoleUser, Parts: []models.Part{models.NewTextPart("revisa")}},
		{Role: models.RoleAssistant, Parts: []models.Part{
			{Type: models.PartToolCall, ToolCall: &models.ToolCall{ID: "c1", Name: "getHostDetails", Args: map[string]interface{}{"hostname": "olt"}}},
		}},
		{Role: models.RoleUser, Parts: []models.Part{
			{Type: models.PartToolResult, ToolResult: &models.ToolResult{ID: "c1", Name: "getHostDetails", Output: `{"status":"ok"}`}},
		}},
	}

	contents := toContents(messages)
	if len(contents) != 3 {
		t.Fatalf("Expected 3 content blocks, got %d", len(contents))
	}
	if contents[1].Role != "model" || contents[1].Parts[0].FunctionCall == nil {
		t.Errorf("Tool call block wrong: %+v", contents[1])
	}
	if contents[2].Role != "user" || contents[2].Parts[0].FunctionResponse == nil {
		t.Errorf("Tool response block wrong: %+v", contents[2])
	}
	if contents[2].Parts[0].FunctionResponse.Response["status"] != "ok" {
		t.Errorf("JSON output not passed through: %+v", contents[2].Parts[0].FunctionResponse.Response)
	}
}

func TestToolResultPayloadShapes(t *testing.T) {
	if got := toolResultPayload(models.ToolResult{Output: "plain text"}); got["output"] != "plain text" {
		t.Errorf("Plain output should be wrapped, got %+v", got)
	}
	if got := toolResultPayload(models.ToolResult{Error: "backend unreachable"}); got["error"] != "backend unreachable" {
		t.Errorf("Errors should surface under error key, got %+v", got)
	}
}

func TestToContentsSkipsReasoning(t *testing.T) {
	contents := toContents([]models.Message{
		{Role: models.RoleAssistant, Parts: []models.Part{
			{Type: models.PartReasoning, Text: "pensando"},
			models.NewTextPart("respuesta"),
		}},
	})
	if len(contents) != 1 || len(contents[0].Parts) != 1 {
		t.Fatalf("Reasoning must not be sent back: %+v", contents)
	}
	if contents[0].Parts[0].Text == nil || *contents[0].Parts[0].Text != "respuesta" {
		t.Errorf("Wrong surviving part: %+v", contents[0].Parts)
	}
}
