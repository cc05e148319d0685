package server

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"google.golang.org/genai"
)

const titleMaxLen = 80

// Titler names a new chat from its first user message.
type Titler interface {
	Title(ctx context.Context, firstMessage string) (string, error)
}

// GenaiTitler asks a lightweight Gemini model for a title. Title
// generation is best effort; callers fall back to FallbackTitle when it
// fails.
type GenaiTitler struct {
	client *genai.Client
	model  string
}

func NewGenaiTitler(ctx context.Context, model string) (*GenaiTitler, error) {
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create title client: %w", err)
	}
	if model == "" {
		model = "gemini-2.5-flash-lite"
	}
	return &GenaiTitler{client: client, model: model}, nil
}

func (t *GenaiTitler) Title(ctx context.Context, firstMessage string) (string, error) {
	result, err := t.client.Models.GenerateContent(
		ctx,
		t.model,
		genai.Text(titlePrompt+"\n\nMensaje: "+firstMessage),
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate title: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty title response")
	}

	var title string
	for _, part := range result.Candidates[0].Content.Parts {
		title += part.Text
	}
	title = strings.TrimSpace(strings.Trim(strings.TrimSpace(title), `"`))
	if title == "" {
		return "", fmt.Errorf("empty title response")
	}
	return clampTitle(title), nil
}

// FallbackTitle derives a title from the message text itself, used when
// no Titler is configured or title generation fails.
func FallbackTitle(firstMessage string) string {
	title := strings.Join(strings.Fields(firstMessage), " ")
	if title == "" {
		return "Nueva conversación"
	}
	return clampTitle(title)
}

func clampTitle(title string) string {
	if utf8.RuneCountInString(title) <= titleMaxLen {
		return title
	}
	runes := []rune(title)
	return strings.TrimSpace(string(runes[:titleMaxLen-1])) + "…"
}
