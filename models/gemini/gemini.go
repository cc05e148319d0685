// Package gemini implements the generation engine's model client against
// the Gemini streamGenerateContent API. Responses arrive as a JSON array
// of chunks that is decoded incrementally and translated into step
// chunks as elements complete.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/ftthdiag/diagchat/models"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client streams generation steps from the Gemini API.
type Client struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
	Logger  *log.Logger
}

func NewClient(apiKey string) *Client {
	return &Client{
		APIKey:  apiKey,
		BaseURL: defaultBaseURL,
		HTTP:    &http.Client{Timeout: 5 * time.Minute},
		Logger:  log.New(os.Stdout, "[GEMINI] ", log.LstdFlags),
	}
}

// StreamStep runs one model step and streams its chunks. The channels
// close when the step is complete; a send on the error channel ends the
// step early.
func (c *Client) StreamStep(ctx context.Context, req models.StepRequest) (<-chan models.StepChunk, <-chan error) {
	chunkChan := make(chan models.StepChunk)
	errChan := make(chan error, 1)

	go func() {
		defer close(chunkChan)
		defer close(errChan)

		body, err := c.buildRequest(req)
		if err != nil {
			errChan <- err
			return
		}

		url := fmt.Sprintf("%s/models/%s:streamGenerateContent?key=%s", c.BaseURL, req.Model, c.APIKey)
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			errChan <- fmt.Errorf("building request: %w", err)
			return
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.HTTP.Do(httpReq)
		if err != nil {
			errChan <- fmt.Errorf("calling model: %w", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			c.Logger.Printf("Model call failed with status %d", resp.StatusCode)
			errChan <- fmt.Errorf("model returned status %d: %s", resp.StatusCode, string(respBody))
			return
		}

		decoder := json.NewDecoder(resp.Body)

		// The body is a JSON array of response objects. Read the opening
		// bracket, then decode elements as they arrive.
		t, err := decoder.Token()
		if err != nil {
			errChan <- fmt.Errorf("reading stream start: %w", err)
			return
		}
		if delim, ok := t.(json.Delim); !ok || delim != '[' {
			errChan <- fmt.Errorf("expected '[' at start of stream, got %v", t)
			return
		}

		for decoder.More() {
			var chunk generateResponse
			if err := decoder.Decode(&chunk); err != nil {
				errChan <- fmt.Errorf("decoding stream chunk: %w", err)
				return
			}
			for _, step := range toStepChunks(chunk) {
				select {
				case chunkChan <- step:
				case <-ctx.Done():
					errChan <- ctx.Err()
					return
				}
			}
		}

		if t, err = decoder.Token(); err != nil && err != io.EOF {
			errChan <- fmt.Errorf("reading stream end: %w", err)
			return
		}
	}()

	return chunkChan, errChan
}

func toStepChunks(resp generateResponse) []models.StepChunk {
	var out []models.StepChunk
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			switch {
			case part.FunctionCall != nil:
				out = append(out, models.StepChunk{ToolCall: &models.ToolCall{
					ID:   part.FunctionCall.ID,
					Name: part.FunctionCall.Name,
					Args: part.FunctionCall.Args,
				}})
			case part.Text != nil && *part.Text != "":
				if part.Thought {
					out = append(out, models.StepChunk{ReasoningDelta: *part.Text})
				} else {
					out = append(out, models.StepChunk{TextDelta: *part.Text})
				}
			}
		}
	}
	return out
}

func (c *Client) buildRequest(req models.StepRequest) ([]byte, error) {
	body := requestBody{Contents: toContents(req.Messages)}
	if len(body.Contents) == 0 {
		return nil, fmt.Errorf("request has no sendable messages")
	}
	if req.SystemPrompt != "" {
		body.SystemInstruction = &systemInstruction{Parts: []systemPart{{Text: req.SystemPrompt}}}
	}
	if len(req.Tools) > 0 {
		body.Tools = []toolBlock{{FunctionDeclarations: toWireDeclarations(req.Tools)}}
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	return encoded, nil
}

// toContents maps conversation messages onto the API's content blocks.
// Assistant messages take the "model" role; tool results ride in "user"
// blocks as function responses. Reasoning parts are never sent back.
func toContents(messages []models.Message) []content {
	var contents []content
	for _, msg := range messages {
		role := "user"
		if msg.Role == models.RoleAssistant {
			role = "model"
		}

		var parts []wirePart
		for _, p := range msg.Parts {
			switch p.Type {
			case models.PartText:
				text := p.Text
				parts = append(parts, wirePart{Text: &text})
			case models.PartToolCall:
				if p.ToolCall != nil {
					parts = append(parts, wirePart{FunctionCall: &functionCall{
						ID:   p.ToolCall.ID,
						Name: p.ToolCall.Name,
						Args: p.ToolCall.Args,
					}})
				}
			case models.PartToolResult:
				if p.ToolResult != nil {
					parts = append(parts, wirePart{FunctionResponse: &functionResponse{
						ID:       p.ToolResult.ID,
						Name:     p.ToolResult.Name,
						Response: toolResultPayload(*p.ToolResult),
					}})
				}
			}
		}
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, content{Role: role, Parts: parts})
	}
	return contents
}

// toolResultPayload shapes a tool result into the object form the API
// expects. Output that is not itself a JSON object gets wrapped.
func toolResultPayload(result models.ToolResult) map[string]interface{} {
	if result.Error != "" {
		return map[string]interface{}{"error": result.Error}
	}
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(result.Output), &payload); err == nil && payload != nil {
		return payload
	}
	return map[string]interface{}{"output": result.Output}
}
