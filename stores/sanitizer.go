package stores

import (
	"encoding/json"
	"log"
	"strings"

	"github.com/ftthdiag/diagchat/models"
)

// SanitizeParts validates and normalizes an assembled message before it is
// persisted. Rules, in order:
//
//  1. Drop parts with no payload for their type.
//  2. Drop text and reasoning parts whose trimmed content is empty.
//  3. Drop any part or attachment that fails a JSON round-trip.
//  4. If no parts survive, substitute a single placeholder text part.
//
// Attachments may legitimately end up empty; only parts get a substitute.
// The function is idempotent: sanitizing sanitized output is a no-op.
func SanitizeParts(parts []models.Part, attachments []models.Attachment) ([]models.Part, []models.Attachment) {
	validParts := make([]models.Part, 0, len(parts))
	for _, part := range parts {
		if !partHasPayload(part) {
			log.Printf("[SANITIZER] Dropping part with empty %q payload", part.Type)
			continue
		}
		if !roundTrips(part) {
			log.Printf("[SANITIZER] Dropping non-serializable %q part", part.Type)
			continue
		}
		validParts = append(validParts, part)
	}

	if len(validParts) == 0 {
		log.Printf("[SANITIZER] No valid parts remain, substituting placeholder text part")
		validParts = []models.Part{models.NewTextPart(models.PlaceholderText)}
	}

	validAttachments := make([]models.Attachment, 0, len(attachments))
	for _, att := range attachments {
		if strings.TrimSpace(att.URL) == "" {
			log.Printf("[SANITIZER] Dropping attachment without URL")
			continue
		}
		if !roundTrips(att) {
			log.Printf("[SANITIZER] Dropping non-serializable attachment %q", att.Name)
			continue
		}
		validAttachments = append(validAttachments, att)
	}

	return validParts, validAttachments
}

func partHasPayload(part models.Part) bool {
	switch part.Type {
	case models.PartText, models.PartReasoning:
		return strings.TrimSpace(part.Text) != ""
	case models.PartToolCall:
		return part.ToolCall != nil && part.ToolCall.Name != ""
	case models.PartToolResult:
		return part.ToolResult != nil && part.ToolResult.Name != ""
	default:
		return false
	}
}

// roundTrips reports whether v survives a lossless JSON round-trip. Tool
// arguments arrive as arbitrary maps from the model; values like NaN or
// nested non-marshalable types must never reach the database.
func roundTrips(v interface{}) bool {
	data, err := json.Marshal(v)
	if err != nil {
		return false
	}
	var back interface{}
	return json.Unmarshal(data, &back) == nil
}
